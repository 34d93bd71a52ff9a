package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("catalog_repo")}
}

func (r *postgresRepo) ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error) {
	const q = `
SELECT uuid, full_slug, content
FROM catalog_entries
ORDER BY position, uuid
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []*domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.UUID, &e.FullSlug, &e.Content); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list entries rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list entries", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) ListSubscriptions(ctx context.Context, customerID string) ([]domain.SubscriptionDetail, error) {
	const q = `
SELECT product_uuid, kind, billing_interval
FROM subscription_details
WHERE customer_id = $1
ORDER BY created_at, product_uuid
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		r.logger.Error("list subscriptions", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubscriptionDetail
	for rows.Next() {
		var (
			d        domain.SubscriptionDetail
			kind     string
			interval string
		)
		if err := rows.Scan(&d.ProductUUID, &kind, &interval); err != nil {
			return nil, err
		}
		d.Kind = domain.ProductKind(kind)
		d.BillingInterval = domain.Interval(interval)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list subscriptions rows", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list subscriptions", zap.String("customer_id", customerID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) UpsertEntry(ctx context.Context, entry domain.CatalogEntry, position int) error {
	if strings.TrimSpace(entry.UUID) == "" {
		return fmt.Errorf("%w: uuid required", domain.ErrInvalidCatalogEntry)
	}
	const q = `
INSERT INTO catalog_entries (uuid, full_slug, content, position)
VALUES ($1, $2, $3, $4)
ON CONFLICT (uuid) DO UPDATE SET
    full_slug = EXCLUDED.full_slug,
    content = EXCLUDED.content,
    position = EXCLUDED.position,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, entry.UUID, entry.FullSlug, entry.Content, position); err != nil {
		r.logger.Error("upsert entry", zap.String("uuid", entry.UUID), zap.Error(err))
		return fmt.Errorf("upsert catalog entry %q: %w", entry.UUID, err)
	}
	r.logger.Debug("upserted entry", zap.String("uuid", entry.UUID), zap.Int("position", position))
	return nil
}

func (r *postgresRepo) UpsertSubscription(ctx context.Context, customerID string, detail domain.SubscriptionDetail) error {
	const q = `
INSERT INTO subscription_details (customer_id, product_uuid, kind, billing_interval)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_uuid) DO UPDATE SET
    kind = EXCLUDED.kind,
    billing_interval = EXCLUDED.billing_interval
`
	_, err := r.pool.Exec(ctx, q, customerID, detail.ProductUUID, string(detail.Kind), string(detail.BillingInterval))
	if err != nil {
		r.logger.Error("upsert subscription",
			zap.String("customer_id", customerID),
			zap.String("product_uuid", detail.ProductUUID),
			zap.Error(err),
		)
		return fmt.Errorf("upsert subscription %q for %q: %w", detail.ProductUUID, customerID, err)
	}
	return nil
}
