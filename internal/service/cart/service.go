package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
)

// Catalog is the read side of the catalog index the controller resolves uuids through.
type Catalog interface {
	ProductByUUID(uuid string) (*domain.Product, bool)
	ProductsByUUIDs(uuids []string) *domain.ProductsList
	ParentProduct(supplementUUID string) (*domain.Product, bool)
	HasActiveSubscription() bool
}

// Service holds the selection of one checkout session. It keeps uuids only; product records
// stay owned by the catalog.
type Service struct {
	catalog Catalog
	logger  *zap.Logger

	mu        sync.RWMutex
	selected  []string
	frequency *domain.Interval
}

func New(catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, logger: logger}
}

// Toggle adds or removes an item and re-derives the operating payment frequency. Unknown or
// unpurchasable items leave the selection untouched.
func (s *Service) Toggle(itemUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frequency = nil

	item, ok := s.catalog.ProductByUUID(itemUUID)
	if !ok || !item.HasValidPrice() {
		s.logger.Debug("cart: toggle ignored", zap.String("item_uuid", itemUUID), zap.Bool("known", ok))
		return
	}

	inCart := slices.Contains(s.selected, itemUUID)
	subscribed := s.catalog.HasActiveSubscription()
	cartSupplements := s.supplementUUIDs()

	if subscribed && item.Type == domain.ProductKindPlan && s.holdsForeignSupplements(cartSupplements, itemUUID) {
		s.logger.Debug("cart: plan switch clears selection", zap.String("item_uuid", itemUUID), zap.Strings("dropped", s.selected))
		s.selected = nil
	}
	if subscribed && item.Type == domain.ProductKindSupplement {
		s.selected = cartSupplements
	}

	if inCart {
		s.remove(item)
	} else {
		s.selected = append(s.selected, itemUUID)
	}

	if item.Type == domain.ProductKindSupplement {
		if parent, ok := s.catalog.ParentProduct(itemUUID); ok && parent.SubscriptionFrequency != nil {
			f := *parent.SubscriptionFrequency
			s.frequency = &f
		}
	}

	s.logger.Debug("cart: toggled",
		zap.String("item_uuid", itemUUID),
		zap.Bool("removed", inCart),
		zap.Strings("selected", s.selected),
	)
}

// supplementUUIDs lists the selected supplements in catalog order.
func (s *Service) supplementUUIDs() []string {
	items := s.catalog.ProductsByUUIDs(s.selected).FilterByType(domain.ProductKindSupplement)
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.UUID())
	}
	return out
}

// holdsForeignSupplements reports whether any selected supplement belongs to a plan other than
// planUUID. A supplement without a parent counts as foreign.
func (s *Service) holdsForeignSupplements(supplements []string, planUUID string) bool {
	for _, id := range supplements {
		parent, ok := s.catalog.ParentProduct(id)
		if !ok || parent.UUID() != planUUID {
			return true
		}
	}
	return false
}

// remove drops the item and, for a plan, every one of its supplements.
func (s *Service) remove(item *domain.Product) {
	drop := map[string]struct{}{item.UUID(): {}}
	for _, sup := range item.Supplements {
		drop[sup.UUID()] = struct{}{}
	}
	s.selected = slices.DeleteFunc(s.selected, func(id string) bool {
		_, ok := drop[id]
		return ok
	})
}

// Snapshot is a consistent read of the cart taken under a single lock.
type Snapshot struct {
	Items                     []string
	TotalPerMonth             decimal.Decimal
	TotalPerAnnum             decimal.Decimal
	OperatingPaymentFrequency *domain.Interval
}

// IsAddedToCart reports whether the snapshot holds the item.
func (s Snapshot) IsAddedToCart(itemUUID string) bool {
	return slices.Contains(s.Items, itemUUID)
}

// Snapshot reads the selection, both totals and the operating frequency without letting a
// concurrent Toggle land in between.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.catalog.ProductsByUUIDs(s.selected)
	snap := Snapshot{
		Items:         slices.Clone(s.selected),
		TotalPerMonth: items.CalculateTotal(domain.IntervalMonth),
		TotalPerAnnum: items.CalculateTotal(domain.IntervalYear),
	}
	if s.frequency != nil {
		f := *s.frequency
		snap.OperatingPaymentFrequency = &f
	}
	return snap
}

func (s *Service) IsAddedToCart(itemUUID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.selected, itemUUID)
}

// ItemUUIDs returns the selection in the order items were added.
func (s *Service) ItemUUIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

func (s *Service) TotalPerMonth() decimal.Decimal {
	return s.total(domain.IntervalMonth)
}

func (s *Service) TotalPerAnnum() decimal.Decimal {
	return s.total(domain.IntervalYear)
}

// OperatingPaymentFrequency is the billing interval imposed by the plan of the last toggled
// supplement, or nil.
func (s *Service) OperatingPaymentFrequency() *domain.Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frequency == nil {
		return nil
	}
	f := *s.frequency
	return &f
}

func (s *Service) total(interval domain.Interval) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.ProductsByUUIDs(s.selected).CalculateTotal(interval)
}
