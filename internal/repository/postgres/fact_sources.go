// backend-go/internal/repository/postgres/fact_sources.go
//
// Postgres adapters over the legacy denormalized fact tables. The tables share
// no foreign keys: article codes are variable-length and the purchase source
// appends size/color segments to them, so every query matches on the base-code
// prefix and the aggregator resolves the remainder.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

type FactSources struct {
	db *sqlx.DB

	// pendingUnavailable flips on permanently once the optional pending
	// column turns out to be missing in this deployment's stock table.
	// Atomic: stock reads run concurrently in the batch worker pool.
	pendingUnavailable atomic.Bool
}

func NewFactSources(db *DB) *FactSources {
	return &FactSources{db: db.DB}
}

func (r *FactSources) GetProduct(ctx context.Context, baseCode string) (domain.Product, error) {
	query := `
		SELECT codigo AS base_code,
		       COALESCE(marca, '') AS brand,
		       COALESCE(descripcion, '') AS description,
		       COALESCE(proveedor, '') AS supplier,
		       COALESCE(categoria, '') AS category
		FROM articulos
		WHERE codigo = $1
	`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, baseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("error getting product %s: %w", baseCode, err)
	}

	return p, nil
}

func (r *FactSources) GetStock(ctx context.Context, baseCode string) ([]domain.StockRecord, error) {
	if r.pendingUnavailable.Load() {
		return r.getStockWithoutPending(ctx, baseCode)
	}

	query := `
		SELECT $1 AS base_code,
		       articulo AS full_code,
		       COALESCE(talla, '') AS size,
		       tienda AS store_id,
		       COALESCE(unidades, 0) AS on_hand,
		       pendiente AS pending
		FROM stock_tiendas
		WHERE articulo LIKE $1 || '%'
	`

	var records []domain.StockRecord
	if err := r.db.SelectContext(ctx, &records, query, baseCode); err != nil {
		// The pending column does not exist in every deployment of the
		// legacy schema. Degrade that field instead of failing the read.
		log.Warn().Err(err).Msg("stock source: pending column unavailable, degrading to null")
		r.pendingUnavailable.Store(true)
		return r.getStockWithoutPending(ctx, baseCode)
	}

	return records, nil
}

func (r *FactSources) getStockWithoutPending(ctx context.Context, baseCode string) ([]domain.StockRecord, error) {
	query := `
		SELECT $1 AS base_code,
		       articulo AS full_code,
		       COALESCE(talla, '') AS size,
		       tienda AS store_id,
		       COALESCE(unidades, 0) AS on_hand,
		       NULL::numeric AS pending
		FROM stock_tiendas
		WHERE articulo LIKE $1 || '%'
	`

	var records []domain.StockRecord
	if err := r.db.SelectContext(ctx, &records, query, baseCode); err != nil {
		return nil, fmt.Errorf("error getting stock for %s: %w", baseCode, err)
	}

	return records, nil
}

func (r *FactSources) GetSales(ctx context.Context, baseCode string, window domain.DateRange) ([]domain.SalesRecord, error) {
	query := `
		SELECT $1 AS base_code,
		       articulo AS full_code,
		       COALESCE(talla, '') AS size,
		       tienda AS store_id,
		       fecha AS date,
		       COALESCE(unidades, 0) AS units,
		       COALESCE(importe, 0) AS revenue
		FROM tickets_lineas
		WHERE articulo LIKE $1 || '%'
	`

	args := []interface{}{baseCode}
	argCounter := 2

	if !window.From.IsZero() {
		query += fmt.Sprintf(" AND fecha >= $%d", argCounter)
		args = append(args, window.From)
		argCounter++
	}
	if !window.To.IsZero() {
		query += fmt.Sprintf(" AND fecha <= $%d", argCounter)
		args = append(args, window.To)
	}

	var records []domain.SalesRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error getting sales for %s: %w", baseCode, err)
	}

	return records, nil
}

func (r *FactSources) TopProducts(ctx context.Context, window domain.DateRange, n int) ([]domain.TopProduct, error) {
	if n <= 0 {
		n = 50
	}

	// Sales article codes may carry size suffixes; group on the canonical
	// base code from the article dimension via prefix match.
	query := `
		SELECT a.codigo AS base_code,
		       COALESCE(a.descripcion, '') AS description,
		       SUM(COALESCE(t.unidades, 0)) AS units
		FROM tickets_lineas t
		JOIN articulos a ON t.articulo LIKE a.codigo || '%'
		WHERE 1=1
	`

	var args []interface{}
	argCounter := 1

	if !window.From.IsZero() {
		query += fmt.Sprintf(" AND t.fecha >= $%d", argCounter)
		args = append(args, window.From)
		argCounter++
	}
	if !window.To.IsZero() {
		query += fmt.Sprintf(" AND t.fecha <= $%d", argCounter)
		args = append(args, window.To)
		argCounter++
	}

	query += fmt.Sprintf(`
		GROUP BY a.codigo, a.descripcion
		HAVING SUM(COALESCE(t.unidades, 0)) > 0
		ORDER BY units DESC
		LIMIT $%d
	`, argCounter)
	args = append(args, n)

	var products []domain.TopProduct
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("error getting top products: %w", err)
	}

	return products, nil
}

func (r *FactSources) GetLastPurchases(ctx context.Context, baseCode string) ([]domain.PurchaseRecord, error) {
	query := `
		SELECT $1 AS base_code,
		       articulo AS full_code,
		       fecha_ultima_compra AS last_purchase_date,
		       COALESCE(unidades_compra, 0) AS last_purchase_qty,
		       COALESCE(precio_coste, 0) AS last_purchase_unit_cost
		FROM compras_ultimas
		WHERE articulo LIKE $1 || '%'
		  AND fecha_ultima_compra IS NOT NULL
	`

	var records []domain.PurchaseRecord
	if err := r.db.SelectContext(ctx, &records, query, baseCode); err != nil {
		return nil, fmt.Errorf("error getting purchases for %s: %w", baseCode, err)
	}

	return records, nil
}

func (r *FactSources) GetStores(ctx context.Context) ([]domain.Store, error) {
	query := `
		SELECT codigo AS id, COALESCE(nombre, '') AS name
		FROM tiendas
		ORDER BY codigo
	`

	var stores []domain.Store
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, fmt.Errorf("error getting stores: %w", err)
	}

	for i := range stores {
		stores[i].Class = domain.ClassifyStore(stores[i].ID, stores[i].Name)
	}

	return stores, nil
}

var (
	_ repository.ProductSource  = (*FactSources)(nil)
	_ repository.StockSource    = (*FactSources)(nil)
	_ repository.SalesSource    = (*FactSources)(nil)
	_ repository.PurchaseSource = (*FactSources)(nil)
	_ repository.StoreSource    = (*FactSources)(nil)
)
