package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductsList is an ordered catalog of top-level products. The flattened index (every
// product followed by its supplements) is built once in NewProductsList; membership never
// changes afterwards, so build a new list instead of editing Products.
type ProductsList struct {
	Products []*Product

	flat []*Product
	byID map[string]int
}

// NewProductsList wraps products and precomputes the flattened uuid index.
func NewProductsList(products []*Product) *ProductsList {
	l := &ProductsList{Products: products}
	l.flat = make([]*Product, 0, len(products))
	for _, p := range products {
		l.flat = append(l.flat, p)
		l.flat = append(l.flat, p.Supplements...)
	}
	l.byID = make(map[string]int, len(l.flat))
	for i, p := range l.flat {
		if _, seen := l.byID[p.uuid]; !seen {
			l.byID[p.uuid] = i
		}
	}
	return l
}

// FromEntries parses raw entries and wraps the surviving plans in a ProductsList.
func FromEntries(entries []*CatalogEntry, subscriptions []SubscriptionDetail) (*ProductsList, error) {
	products, err := Parse(entries, subscriptions)
	if err != nil {
		return nil, err
	}
	return NewProductsList(products), nil
}

// Parse turns raw entries into plans with their supplements attached. Supplement-only
// listings are skipped, and plans or supplements without a valid price are dropped silently.
// Entries missing a uuid or name abort the parse with ErrInvalidCatalogEntry.
func Parse(entries []*CatalogEntry, subscriptions []SubscriptionDetail) ([]*Product, error) {
	details := make(map[string]SubscriptionDetail, len(subscriptions))
	for _, d := range subscriptions {
		details[d.ProductUUID] = d
	}

	var plans []*Product
	for _, entry := range entries {
		if entry == nil || strings.Contains(entry.FullSlug, supplementListingSlug) {
			continue
		}

		supplements := make([]*Product, 0, len(entry.Content.Supplements))
		for _, raw := range entry.Content.Supplements {
			if raw == nil {
				continue
			}
			s, err := newCatalogProduct(*raw, ProductKindSupplement, details)
			if err != nil {
				return nil, err
			}
			if s.HasValidPrice() {
				supplements = append(supplements, s)
			}
		}

		plan, err := newCatalogProduct(*entry, ProductKindPlan, details)
		if err != nil {
			return nil, err
		}
		if plan.HasValidPrice() {
			plan.Supplements = supplements
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func newCatalogProduct(entry CatalogEntry, kind ProductKind, details map[string]SubscriptionDetail) (*Product, error) {
	d, ok := details[entry.UUID]
	if !ok {
		return NewProduct(entry, kind)
	}
	d.Kind = kind
	return NewProductFromDetail(entry, d)
}

// Flattened returns every product in index order: each top-level product followed by its
// supplements.
func (l *ProductsList) Flattened() []*Product {
	return append([]*Product(nil), l.flat...)
}

// ProductByUUID looks up a plan or supplement. Repeated calls return the same pointer.
func (l *ProductsList) ProductByUUID(uuid string) (*Product, bool) {
	i, ok := l.byID[uuid]
	if !ok {
		return nil, false
	}
	return l.flat[i], true
}

// ProductsByUUIDs returns a new list holding the indexed products whose uuid is in uuids,
// in index order. Supplements become top-level entries of the new list. A supplement nested
// under several plans appears once.
func (l *ProductsList) ProductsByUUIDs(uuids []string) *ProductsList {
	wanted := make(map[string]bool, len(uuids))
	for _, id := range uuids {
		wanted[id] = true
	}
	var products []*Product
	for _, p := range l.flat {
		if wanted[p.uuid] {
			products = append(products, p)
			wanted[p.uuid] = false
		}
	}
	return NewProductsList(products)
}

// ParentProduct returns the top-level product owning the given supplement.
func (l *ProductsList) ParentProduct(supplementUUID string) (*Product, bool) {
	for _, p := range l.Products {
		for _, s := range p.Supplements {
			if s.uuid == supplementUUID {
				return p, true
			}
		}
	}
	return nil, false
}

// FilterByType returns the top-level products of the given kind. Nested supplements are not
// visited.
func (l *ProductsList) FilterByType(kind ProductKind) []*Product {
	var out []*Product
	for _, p := range l.Products {
		if p.Type == kind {
			out = append(out, p)
		}
	}
	return out
}

// HasActiveSubscription reports whether any top-level product is already subscribed.
func (l *ProductsList) HasActiveSubscription() bool {
	for _, p := range l.Products {
		if p.Subscribed {
			return true
		}
	}
	return false
}

// CalculateTotal sums the interval price of the top-level products, rounded half-up to cents.
// Supplements nested under a plan are not added.
// TODO: confirm with product whether nested supplement prices are folded into the plan price.
func (l *ProductsList) CalculateTotal(interval Interval) decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Products {
		total = total.Add(p.PriceInfo.For(interval).Price)
	}
	return total.Round(2)
}
