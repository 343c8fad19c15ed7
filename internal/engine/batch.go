package engine

import (
	"context"
	"sync"

	"github.com/modacentro/retail-dashboard/backend-go/internal/aggregate"
	"github.com/modacentro/retail-dashboard/backend-go/internal/alerts"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchAlerts runs the redistribution detector over the top-selling products
// of a period. One product failing never aborts the batch: failures travel in
// the result next to the alerts.
func (e *Engine) BatchAlerts(ctx context.Context, window domain.DateRange, topN, page, pageSize int) (*domain.AlertBatchResult, error) {
	full, err := e.FullBatch(ctx, window, topN)
	if err != nil {
		return nil, err
	}
	return paginate(full, page, pageSize), nil
}

// FullBatch returns the complete, unpaginated batch result, reading through
// the batch cache.
func (e *Engine) FullBatch(ctx context.Context, window domain.DateRange, topN int) (*domain.AlertBatchResult, error) {
	if topN <= 0 {
		topN = e.cfg.TopProductsLimit
	}
	if topN <= 0 {
		topN = 50
	}

	full, hit, err := e.alertCache.Get(ctx, window, topN)
	if err != nil {
		log.Warn().Err(err).Msg("alert batch cache read failed")
	}
	if !hit {
		full, err = e.computeBatch(ctx, window, topN)
		if err != nil {
			return nil, err
		}
		if err := e.alertCache.Set(ctx, window, topN, full); err != nil {
			log.Warn().Err(err).Msg("alert batch cache write failed")
		}
	}

	return full, nil
}

func (e *Engine) computeBatch(ctx context.Context, window domain.DateRange, topN int) (*domain.AlertBatchResult, error) {
	stores, err := e.storeIndex(ctx)
	if err != nil {
		return nil, err
	}

	top, err := e.src.Sales.TopProducts(ctx, window, topN)
	if err != nil {
		return nil, &domain.DataFetchError{Source: "sales", Err: err}
	}

	detector := alerts.NewDetector(e.alertCfg, stores)

	var (
		mu       sync.Mutex
		found    []domain.RedistributionAlert
		failures []domain.BatchFailure
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, product := range top {
		product := product

		if err := e.workers.Acquire(gctx, 1); err != nil {
			return nil, err
		}

		g.Go(func() error {
			defer e.workers.Release(1)

			snap, err := e.productSnapshot(gctx, product.BaseCode, window)
			if err != nil {
				// Collected, never dropped; the batch continues.
				mu.Lock()
				failures = append(failures, domain.BatchFailure{
					BaseCode: product.BaseCode,
					Error:    err.Error(),
				})
				mu.Unlock()
				return nil
			}

			productAlerts := detector.Detect(snap, product.Description)
			if len(productAlerts) > 0 {
				mu.Lock()
				found = append(found, productAlerts...)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alerts.Rank(found)

	return &domain.AlertBatchResult{
		Period:   window,
		Alerts:   found,
		Failures: failures,
		Total:    len(found),
	}, nil
}

// productSnapshot builds the merged stock/sales view a detector reads. Stock
// is required here: without a stock position the distribution heuristics have
// nothing to say.
func (e *Engine) productSnapshot(ctx context.Context, baseCode string, window domain.DateRange) (*aggregate.Snapshot, error) {
	facts, failures, err := e.fetchFacts(ctx, baseCode)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		if f.Source == "stock" {
			return nil, f
		}
	}

	snap := aggregate.NewSnapshot(baseCode)
	for _, rec := range facts.stock {
		snap.AddStock(rec)
	}
	for _, rec := range facts.sales {
		snap.AddSales(rec, window)
	}
	for _, rec := range facts.purchases {
		snap.AddPurchase(rec)
	}

	return snap, nil
}

func paginate(full *domain.AlertBatchResult, page, pageSize int) *domain.AlertBatchResult {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total := len(full.Alerts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &domain.AlertBatchResult{
		Period:     full.Period,
		Alerts:     full.Alerts[start:end],
		Failures:   full.Failures,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
