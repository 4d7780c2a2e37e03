package analytics

import (
	"context"
	"time"

	"app/models"
)

// SeriesStore is the narrow read surface the analytics components need from
// the transaction store. Both methods return rows in ascending date order
// from a consistent snapshot; days with no sales are simply absent and count
// as zero demand.
type SeriesStore interface {
	// GetSeries returns the per-day aggregated sales of one product.
	GetSeries(ctx context.Context, productID string, start, end time.Time) ([]models.SalesPoint, error)
	// GetTransactions returns the raw sale lines of one product.
	GetTransactions(ctx context.Context, productID string, start, end time.Time) ([]models.TransactionRecord, error)
}
