package domain

import (
	"encoding/json"
	"fmt"
)

// supplementListingSlug marks top-level content-source listings that only hold supplements.
const supplementListingSlug = "products/supplements"

// CatalogEntry is one raw item as delivered by the content source.
type CatalogEntry struct {
	UUID     string       `json:"uuid"`
	FullSlug string       `json:"full_slug,omitempty"`
	Content  EntryContent `json:"content"`
}

// EntryContent holds the loosely typed fields of a CatalogEntry.
type EntryContent struct {
	Name                  string          `json:"name"`
	Highlights            string          `json:"highlights,omitempty"`
	FullDocument          json.RawMessage `json:"full_document,omitempty"`
	Summary               json.RawMessage `json:"summary,omitempty"`
	MonthlyPrice          string          `json:"monthly_price,omitempty"`
	AnnuallyPrice         string          `json:"annually_price,omitempty"`
	StripeMonthlyPriceID  string          `json:"stripe_monthly_price_id,omitempty"`
	StripeAnnuallyPriceID string          `json:"stripe_annually_price_id,omitempty"`
	Supplements           []*CatalogEntry `json:"supplements,omitempty"`
}

// SubscriptionDetail describes a recurring subscription the customer already holds.
type SubscriptionDetail struct {
	ProductUUID     string      `json:"product_uuid" validate:"required"`
	Kind            ProductKind `json:"kind" validate:"oneof=PLAN SUPPLEMENT"`
	BillingInterval Interval    `json:"billing_interval" validate:"oneof=MONTH YEAR"`
}

func (d SubscriptionDetail) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid subscription detail for %q: %w", d.ProductUUID, err)
	}
	return nil
}

// ValidateEntry checks the identity fields of an entry and of its nested supplements.
func ValidateEntry(entry CatalogEntry) error {
	if err := validateIdentity(entry); err != nil {
		return err
	}
	for _, s := range entry.Content.Supplements {
		if s == nil {
			continue
		}
		if err := validateIdentity(*s); err != nil {
			return err
		}
	}
	return nil
}
