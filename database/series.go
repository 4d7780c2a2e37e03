package database

import (
	"context"
	"fmt"
	"time"

	"app/analytics"
	"app/models"
)

// SeriesStore reads per-product sales series for one merchant. It implements
// analytics.SeriesStore over the sales tables; each query is a single
// statement, so a result always reflects one consistent snapshot.
type SeriesStore struct {
	MerchantID string
}

var _ analytics.SeriesStore = (*SeriesStore)(nil)

func NewSeriesStore(merchantID string) *SeriesStore {
	return &SeriesStore{MerchantID: merchantID}
}

// GetSeries aggregates sale lines into one SalesPoint per calendar day,
// ascending. Days without sales are absent; callers treat them as zero
// demand.
func (s *SeriesStore) GetSeries(ctx context.Context, productID string, start, end time.Time) ([]models.SalesPoint, error) {
	query := `
        SELECT date_trunc('day', s.sale_date) AS day,
               SUM(si.quantity_sold)::float8 AS quantity,
               SUM(si.subtotal)::float8 AS revenue
        FROM sales s
        JOIN sale_items si ON s.id = si.sale_id
        WHERE si.inventory_item_id = $1 AND s.merchant_id = $2
          AND s.sale_date BETWEEN $3 AND $4
        GROUP BY day
        ORDER BY day
    `
	rows, err := GetDB().Query(ctx, query, productID, s.MerchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales series: %w", err)
	}
	defer rows.Close()

	series := make([]models.SalesPoint, 0)
	for rows.Next() {
		point := models.SalesPoint{ProductID: productID}
		if err := rows.Scan(&point.Date, &point.Quantity, &point.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan sales point: %w", err)
		}
		series = append(series, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sales series: %w", err)
	}
	return series, nil
}

// GetAllTransactions returns the raw sale lines of every product of the
// merchant in ascending date order.
func (s *SeriesStore) GetAllTransactions(ctx context.Context, start, end time.Time) ([]models.TransactionRecord, error) {
	query := `
        SELECT si.id, si.inventory_item_id, s.sale_date,
               si.quantity_sold::float8,
               si.selling_price_at_sale::float8,
               si.original_price_at_sale::float8,
               si.subtotal::float8
        FROM sales s
        JOIN sale_items si ON s.id = si.sale_id
        WHERE s.merchant_id = $1 AND s.sale_date BETWEEN $2 AND $3
        ORDER BY s.sale_date
    `
	rows, err := GetDB().Query(ctx, query, s.MerchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.TransactionRecord, 0)
	for rows.Next() {
		var tx models.TransactionRecord
		if err := rows.Scan(&tx.TransactionID, &tx.ProductID, &tx.Date, &tx.Quantity, &tx.UnitPrice, &tx.CostPrice, &tx.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}

// GetTransactions returns the raw sale lines of one product in ascending
// date order. The cost recorded at sale time becomes CostPrice when present.
func (s *SeriesStore) GetTransactions(ctx context.Context, productID string, start, end time.Time) ([]models.TransactionRecord, error) {
	query := `
        SELECT si.id, s.sale_date,
               si.quantity_sold::float8,
               si.selling_price_at_sale::float8,
               si.original_price_at_sale::float8,
               si.subtotal::float8
        FROM sales s
        JOIN sale_items si ON s.id = si.sale_id
        WHERE si.inventory_item_id = $1 AND s.merchant_id = $2
          AND s.sale_date BETWEEN $3 AND $4
        ORDER BY s.sale_date
    `
	rows, err := GetDB().Query(ctx, query, productID, s.MerchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.TransactionRecord, 0)
	for rows.Next() {
		tx := models.TransactionRecord{ProductID: productID}
		if err := rows.Scan(&tx.TransactionID, &tx.Date, &tx.Quantity, &tx.UnitPrice, &tx.CostPrice, &tx.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}
