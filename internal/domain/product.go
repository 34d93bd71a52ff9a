package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Interval is the unit a price or a subscription is billed in.
type Interval string

const (
	IntervalMonth Interval = "MONTH"
	IntervalYear  Interval = "YEAR"
)

// Valid reports whether i is a known billing interval.
func (i Interval) Valid() bool {
	return i == IntervalMonth || i == IntervalYear
}

// ProductKind tags a product as a top-level plan or an add-on supplement.
type ProductKind string

const (
	ProductKindPlan       ProductKind = "PLAN"
	ProductKindSupplement ProductKind = "SUPPLEMENT"
)

// Price is the amount charged for one interval and its payment processor reference.
type Price struct {
	Price                   decimal.Decimal `json:"price"`
	PaymentProcessorPriceID string          `json:"paymentProcessorPriceId"`
}

// PriceInfo holds the monthly and annual price of a product.
type PriceInfo struct {
	Monthly  Price `json:"monthly"`
	Annually Price `json:"annually"`
}

// For returns the price charged per interval. Unknown intervals yield a zero Price.
func (pi PriceInfo) For(interval Interval) Price {
	switch interval {
	case IntervalMonth:
		return pi.Monthly
	case IntervalYear:
		return pi.Annually
	default:
		return Price{Price: decimal.Zero}
	}
}

// ProductContent is descriptive only; no business rule reads it.
type ProductContent struct {
	Summary    json.RawMessage `json:"summary,omitempty"`
	Contract   json.RawMessage `json:"contract,omitempty"`
	Highlights []string        `json:"highlights"`
}

// Product is one sellable catalog item. Plans own their supplements; supplements own nothing.
type Product struct {
	uuid                  string
	Name                  string         `json:"name"`
	Content               ProductContent `json:"content"`
	PriceInfo             PriceInfo      `json:"priceInfo"`
	Type                  ProductKind    `json:"type"`
	Subscribed            bool           `json:"subscribed"`
	SubscriptionFrequency *Interval      `json:"subscriptionFrequency,omitempty"`
	Supplements           []*Product     `json:"supplements,omitempty"`
}

type productIdentity struct {
	UUID string `validate:"required"`
	Name string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewProduct builds a Product of the given kind from a raw entry. Supplements of the entry are
// not attached; the catalog index decides which of them survive.
func NewProduct(entry CatalogEntry, kind ProductKind) (*Product, error) {
	if err := validateIdentity(entry); err != nil {
		return nil, err
	}
	c := entry.Content
	return &Product{
		uuid: entry.UUID,
		Name: c.Name,
		Content: ProductContent{
			Summary:    c.Summary,
			Contract:   c.FullDocument,
			Highlights: splitHighlights(c.Highlights),
		},
		PriceInfo: PriceInfo{
			Monthly: Price{
				Price:                   parsePrice(c.MonthlyPrice),
				PaymentProcessorPriceID: strings.TrimSpace(c.StripeMonthlyPriceID),
			},
			Annually: Price{
				Price:                   parsePrice(c.AnnuallyPrice),
				PaymentProcessorPriceID: strings.TrimSpace(c.StripeAnnuallyPriceID),
			},
		},
		Type: kind,
	}, nil
}

// NewProductFromDetail builds a Product that the customer already subscribes to. The kind and
// billing interval come from the subscription detail.
func NewProductFromDetail(entry CatalogEntry, detail SubscriptionDetail) (*Product, error) {
	p, err := NewProduct(entry, detail.Kind)
	if err != nil {
		return nil, err
	}
	p.markSubscribed(detail.BillingInterval)
	return p, nil
}

// UUID returns the immutable identifier assigned at construction.
func (p *Product) UUID() string {
	return p.uuid
}

// HasValidPrice reports whether the product is purchasable: both prices positive and both
// payment processor price ids present.
func (p *Product) HasValidPrice() bool {
	m, a := p.PriceInfo.Monthly, p.PriceInfo.Annually
	return m.Price.IsPositive() &&
		a.Price.IsPositive() &&
		m.PaymentProcessorPriceID != "" &&
		a.PaymentProcessorPriceID != ""
}

// MarshalJSON adds the unexported uuid to the encoded product.
func (p *Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		UUID string `json:"uuid"`
		*alias
	}{UUID: p.uuid, alias: (*alias)(p)})
}

func (p *Product) markSubscribed(interval Interval) {
	p.Subscribed = true
	if interval.Valid() {
		p.SubscriptionFrequency = &interval
	}
}

func validateIdentity(entry CatalogEntry) error {
	err := validate.Struct(productIdentity{
		UUID: strings.TrimSpace(entry.UUID),
		Name: strings.TrimSpace(entry.Content.Name),
	})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidCatalogEntry, err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: uuid=%q missing %s", ErrInvalidCatalogEntry, entry.UUID, strings.Join(missing, ", "))
}

// parsePrice degrades unparsable or negative input to zero.
func parsePrice(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// splitHighlights breaks on every newline run, not only on blank lines, so a single-spaced
// list in the CMS still yields one highlight per line.
func splitHighlights(blob string) []string {
	highlights := strings.FieldsFunc(strings.TrimSpace(blob), func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	if highlights == nil {
		return []string{}
	}
	return highlights
}
