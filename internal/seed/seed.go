package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"subscription-checkout/internal/domain"
)

// DemoCustomerID holds an annual subscription to the Essential plan in the seed data.
const DemoCustomerID = "demo-customer"

type catalogWriter interface {
	UpsertEntry(ctx context.Context, entry domain.CatalogEntry, position int) error
	UpsertSubscription(ctx context.Context, customerID string, detail domain.SubscriptionDetail) error
}

type planSeed struct {
	UUID        string
	Name        string
	Highlights  string
	Monthly     string
	Annually    string
	Supplements []supplementSeed
}

type supplementSeed struct {
	UUID     string
	Name     string
	Monthly  string
	Annually string
}

var plans = []planSeed{
	{
		UUID:       "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9a01",
		Name:       "Essential",
		Highlights: "Unlimited consultations\n\nPrescription delivery",
		Monthly:    "32.95",
		Annually:   "395.40",
		Supplements: []supplementSeed{
			{UUID: "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9a11", Name: "Dental cover", Monthly: "4.50", Annually: "54.00"},
			{UUID: "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9a12", Name: "Vision cover", Monthly: "3.25", Annually: "39.00"},
		},
	},
	{
		UUID:       "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9a02",
		Name:       "Premium",
		Highlights: "Everything in Essential\n\nSpecialist referrals",
		Monthly:    "54.95",
		Annually:   "659.40",
		Supplements: []supplementSeed{
			{UUID: "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9a21", Name: "Physiotherapy", Monthly: "6.00", Annually: "72.00"},
		},
	},
}

// Apply upserts a small demo catalog and one subscribed customer. It is idempotent.
func Apply(ctx context.Context, w catalogWriter) error {
	for i, p := range plans {
		if err := w.UpsertEntry(ctx, planEntry(p), i); err != nil {
			return fmt.Errorf("upsert plan %s: %w", p.Name, err)
		}
	}

	listing := domain.CatalogEntry{
		UUID:     "5b0e8a8e-5d7a-4c65-9a57-0d1c1f3f9aff",
		FullSlug: "products/supplements",
		Content:  domain.EntryContent{Name: "All supplements"},
	}
	if err := w.UpsertEntry(ctx, listing, len(plans)); err != nil {
		return fmt.Errorf("upsert supplement listing: %w", err)
	}

	sub := domain.SubscriptionDetail{
		ProductUUID:     plans[0].UUID,
		Kind:            domain.ProductKindPlan,
		BillingInterval: domain.IntervalYear,
	}
	if err := w.UpsertSubscription(ctx, DemoCustomerID, sub); err != nil {
		return fmt.Errorf("upsert demo subscription: %w", err)
	}
	return nil
}

func planEntry(p planSeed) domain.CatalogEntry {
	e := domain.CatalogEntry{
		UUID:     p.UUID,
		FullSlug: "products/plans/" + p.UUID,
		Content: domain.EntryContent{
			Name:                  p.Name,
			Highlights:            p.Highlights,
			Summary:               summary(p.Name + " plan"),
			MonthlyPrice:          p.Monthly,
			AnnuallyPrice:         p.Annually,
			StripeMonthlyPriceID:  "price_" + p.UUID[len(p.UUID)-4:] + "_monthly",
			StripeAnnuallyPriceID: "price_" + p.UUID[len(p.UUID)-4:] + "_annually",
		},
	}
	for _, s := range p.Supplements {
		e.Content.Supplements = append(e.Content.Supplements, &domain.CatalogEntry{
			UUID: s.UUID,
			Content: domain.EntryContent{
				Name:                  s.Name,
				Summary:               summary(s.Name),
				MonthlyPrice:          s.Monthly,
				AnnuallyPrice:         s.Annually,
				StripeMonthlyPriceID:  "price_" + s.UUID[len(s.UUID)-4:] + "_monthly",
				StripeAnnuallyPriceID: "price_" + s.UUID[len(s.UUID)-4:] + "_annually",
			},
		})
	}
	return e
}

func summary(text string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return raw
}
