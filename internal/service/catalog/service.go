package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"subscription-checkout/internal/domain"
)

type entrySource interface {
	ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]domain.SubscriptionDetail, error)
}

// Service builds catalog indexes from stored raw entries.
type Service struct {
	repo   entrySource
	logger *zap.Logger
}

func New(repo entrySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("catalog")}
}

// Load returns a fresh catalog index for the customer, with their existing subscriptions marked.
// An empty customerID loads the catalog without subscriptions.
func (s *Service) Load(ctx context.Context, customerID string) (*domain.ProductsList, error) {
	var (
		entries []*domain.CatalogEntry
		subs    []domain.SubscriptionDetail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.ListEntries(gctx)
		if err != nil {
			return fmt.Errorf("list catalog entries: %w", err)
		}
		return nil
	})
	if customerID != "" {
		g.Go(func() error {
			var err error
			subs, err = s.repo.ListSubscriptions(gctx, customerID)
			if err != nil {
				return fmt.Errorf("list subscriptions: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list, err := domain.FromEntries(entries, subs)
	if err != nil {
		s.logger.Warn("catalog rejected", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	s.logger.Debug("catalog loaded",
		zap.String("customer_id", customerID),
		zap.Int("entries", len(entries)),
		zap.Int("plans", len(list.Products)),
		zap.Int("products", len(list.Flattened())),
		zap.Int("subscriptions", len(subs)),
	)
	return list, nil
}
