package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
)

type CatalogWriter interface {
	UpsertEntry(ctx context.Context, entry domain.CatalogEntry, position int) error
	UpsertSubscription(ctx context.Context, customerID string, detail domain.SubscriptionDetail) error
}

// catalogFile is the content-source export: the raw entries plus, optionally, the
// subscriptions customers already hold, keyed by customer id.
type catalogFile struct {
	Items         []*domain.CatalogEntry                 `json:"items"`
	Subscriptions map[string][]domain.SubscriptionDetail `json:"subscriptions,omitempty"`
}

// Result counts what an import stored.
type Result struct {
	Entries       int
	Subscriptions int
}

// JSONImporter reads a content-source JSON export and upserts its entries in file order.
type JSONImporter struct {
	r      io.Reader
	writer CatalogWriter
	logger *zap.Logger
}

func NewJSONImporter(r io.Reader, writer CatalogWriter, logger *zap.Logger) *JSONImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONImporter{r: r, writer: writer, logger: logger.Named("importer")}
}

// Run validates the whole file before writing anything, so a bad entry aborts the import
// without a partial catalog.
func (i *JSONImporter) Run(ctx context.Context) (Result, error) {
	var file catalogFile
	if err := json.NewDecoder(i.r).Decode(&file); err != nil {
		return Result{}, fmt.Errorf("decode catalog: %w", err)
	}

	for idx, entry := range file.Items {
		if entry == nil {
			continue
		}
		if err := domain.ValidateEntry(*entry); err != nil {
			return Result{}, fmt.Errorf("item %d: %w", idx, err)
		}
	}
	customers := make([]string, 0, len(file.Subscriptions))
	for customerID, details := range file.Subscriptions {
		for _, d := range details {
			if err := d.Validate(); err != nil {
				return Result{}, fmt.Errorf("customer %q: %w", customerID, err)
			}
		}
		customers = append(customers, customerID)
	}
	sort.Strings(customers)

	var res Result
	for idx, entry := range file.Items {
		if entry == nil {
			continue
		}
		if err := i.writer.UpsertEntry(ctx, *entry, idx); err != nil {
			return res, err
		}
		res.Entries++
	}
	for _, customerID := range customers {
		for _, d := range file.Subscriptions[customerID] {
			if err := i.writer.UpsertSubscription(ctx, customerID, d); err != nil {
				return res, err
			}
			res.Subscriptions++
		}
	}

	i.logger.Info("catalog imported", zap.Int("entries", res.Entries), zap.Int("subscriptions", res.Subscriptions))
	return res, nil
}
