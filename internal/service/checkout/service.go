package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
	cartsvc "subscription-checkout/internal/service/cart"
)

type catalogLoader interface {
	Load(ctx context.Context, customerID string) (*domain.ProductsList, error)
}

// Session is one checkout in progress: the customer's catalog index plus a cart over it.
type Session struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	Catalog    *domain.ProductsList
	Cart       *cartsvc.Service
}

// Service keeps checkout sessions in memory. Cart state is never persisted. With a positive
// ttl, sessions older than ttl are treated as gone and removed on lookup or by Sweep.
type Service struct {
	catalog catalogLoader
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(catalog catalogLoader, logger *zap.Logger, ttl time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		logger:   logger.Named("checkout"),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start loads the customer's catalog and opens an empty cart over it.
func (s *Service) Start(ctx context.Context, customerID string) (*Session, error) {
	list, err := s.catalog.Load(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	sess := &Session{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		CreatedAt:  s.now().UTC(),
		Catalog:    list,
		Cart:       cartsvc.New(list, s.logger),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("customer_id", customerID),
		zap.Bool("active_subscription", list.HasActiveSubscription()),
	)
	return sess, nil
}

func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.expired(sess, s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.logger.Info("session expired", zap.String("session_id", id))
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Toggle forwards to the session's cart. Unknown items are ignored by the cart itself.
func (s *Service) Toggle(id, itemUUID string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Cart.Toggle(itemUUID)
	return sess, nil
}

func (s *Service) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	s.logger.Info("session ended", zap.String("session_id", id))
	return nil
}

// Sweep removes every expired session and returns how many were dropped.
func (s *Service) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("expired sessions swept", zap.Int("count", n), zap.Int("remaining", len(s.sessions)))
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Service) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.CreatedAt) > s.ttl
}
