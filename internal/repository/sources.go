// backend-go/internal/repository/sources.go
package repository

import (
	"context"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
)

// The fact and dimension sources are the engine's only upstream boundary.
// Each adapter converts the loosely-typed legacy rows into typed records; no
// component past this package ever sees raw rows.

// ProductSource resolves canonical product identity.
type ProductSource interface {
	// GetProduct returns the product for a canonical base code, or
	// domain.ErrProductNotFound.
	GetProduct(ctx context.Context, baseCode string) (domain.Product, error)
}

// StockSource reads the point-in-time stock position by location. Stock reads
// are never date-filtered.
type StockSource interface {
	// GetStock returns all stock rows whose article code matches the base
	// code prefix. Pending quantities may be nil when the pending column is
	// unavailable in the source.
	GetStock(ctx context.Context, baseCode string) ([]domain.StockRecord, error)
}

// SalesSource reads sales transaction facts.
type SalesSource interface {
	// GetSales returns sales rows for the product, optionally restricted to a
	// date window. Negative units represent returns.
	GetSales(ctx context.Context, baseCode string, window domain.DateRange) ([]domain.SalesRecord, error)

	// TopProducts returns the best-selling base codes for a period, limited
	// to n, for the batch redistribution mode.
	TopProducts(ctx context.Context, window domain.DateRange, n int) ([]domain.TopProduct, error)
}

// PurchaseSource reads the most-recent-purchase facts by SKU. Purchase reads
// represent current state and are never date-filtered.
type PurchaseSource interface {
	GetLastPurchases(ctx context.Context, baseCode string) ([]domain.PurchaseRecord, error)
}

// StoreSource is the dimension source for store identity and classification.
type StoreSource interface {
	GetStores(ctx context.Context) ([]domain.Store, error)
}
