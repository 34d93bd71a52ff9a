package catalog

import (
	"context"

	"subscription-checkout/internal/domain"
)

type Repository interface {
	ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]domain.SubscriptionDetail, error)
	UpsertEntry(ctx context.Context, entry domain.CatalogEntry, position int) error
	UpsertSubscription(ctx context.Context, customerID string, detail domain.SubscriptionDetail) error
}
