package catalog

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"subscription-checkout/internal/domain"
	"subscription-checkout/internal/migrate"
)

func TestPostgres_EntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)

	plan := domain.CatalogEntry{
		UUID:     "plan-1",
		FullSlug: "products/plans/basic",
		Content: domain.EntryContent{
			Name:                  "Basic",
			Highlights:            "One\n\nTwo",
			Summary:               json.RawMessage(`{"text":"basic plan"}`),
			MonthlyPrice:          "9.99",
			AnnuallyPrice:         "99.00",
			StripeMonthlyPriceID:  "price_m",
			StripeAnnuallyPriceID: "price_y",
			Supplements: []*domain.CatalogEntry{{
				UUID:    "sup-1",
				Content: domain.EntryContent{Name: "Extra", MonthlyPrice: "1", AnnuallyPrice: "10"},
			}},
		},
	}
	second := domain.CatalogEntry{UUID: "plan-0", Content: domain.EntryContent{Name: "Zero"}}

	if err := repo.UpsertEntry(ctx, plan, 1); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	if err := repo.UpsertEntry(ctx, second, 2); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	plan.Content.Name = "Basic v2"
	if err := repo.UpsertEntry(ctx, plan, 1); err != nil {
		t.Fatalf("UpsertEntry update: %v", err)
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	got := entries[0]
	if got.UUID != "plan-1" || got.Content.Name != "Basic v2" || got.FullSlug != "products/plans/basic" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if len(got.Content.Supplements) != 1 || got.Content.Supplements[0].UUID != "sup-1" {
		t.Fatalf("expected nested supplement, got %+v", got.Content.Supplements)
	}
}

func TestPostgres_UpsertEntryRequiresUUID(t *testing.T) {
	repo := &postgresRepo{}
	if err := repo.UpsertEntry(context.Background(), domain.CatalogEntry{}, 0); err == nil {
		t.Fatalf("expected error for missing uuid")
	}
}

func TestPostgres_Subscriptions(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	detail := domain.SubscriptionDetail{ProductUUID: "plan-1", Kind: domain.ProductKindPlan, BillingInterval: domain.IntervalMonth}
	if err := repo.UpsertSubscription(ctx, "cust-1", detail); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	detail.BillingInterval = domain.IntervalYear
	if err := repo.UpsertSubscription(ctx, "cust-1", detail); err != nil {
		t.Fatalf("UpsertSubscription update: %v", err)
	}

	subs, err := repo.ListSubscriptions(ctx, "cust-1")
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].BillingInterval != domain.IntervalYear || subs[0].Kind != domain.ProductKindPlan {
		t.Fatalf("unexpected subscriptions %+v", subs)
	}

	none, err := repo.ListSubscriptions(ctx, "cust-2")
	if err != nil {
		t.Fatalf("ListSubscriptions other customer: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no subscriptions, got %+v", none)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE catalog_entries, subscription_details`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
