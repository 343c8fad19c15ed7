// Package engine orchestrates the replenishment assessment: it fans out the
// fact-source reads, folds them into an immutable snapshot and runs the
// calculators, the semaphore and the rule engine over it. Per-product
// evaluations share no mutable state; the only cross-request state is the
// store-mapping validation cache.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/aggregate"
	"github.com/modacentro/retail-dashboard/backend-go/internal/cache"
	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/insights"
	"github.com/modacentro/retail-dashboard/backend-go/internal/metrics"
	"github.com/modacentro/retail-dashboard/backend-go/internal/repository"
	"github.com/modacentro/retail-dashboard/backend-go/internal/semaphore"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	xsemaphore "golang.org/x/sync/semaphore"
)

// Sources bundles the typed upstream adapters the engine reads from.
type Sources struct {
	Products  repository.ProductSource
	Stock     repository.StockSource
	Sales     repository.SalesSource
	Purchases repository.PurchaseSource
	Stores    repository.StoreSource
}

// Options tunes a single product assessment.
type Options struct {
	// Window restricts sales aggregation for the KPI block. Stock and
	// purchase reads always represent current state.
	Window domain.DateRange

	// PaceSincePurchase switches the semaphore pace to units sold since the
	// last purchase instead of the standard lookback window. Classification
	// logic is unchanged.
	PaceSincePurchase bool
}

// Engine is safe for concurrent use.
type Engine struct {
	src        Sources
	mapping    cache.StoreMappingCache
	alertCache cache.AlertBatchCache
	cfg        config.EngineConfig
	alertCfg   config.AlertConfig
	overrides  semaphore.Overrides
	workers    *xsemaphore.Weighted
	now        func() time.Time
}

func New(src Sources, mapping cache.StoreMappingCache, alertCache cache.AlertBatchCache,
	cfg config.EngineConfig, alertCfg config.AlertConfig, overrides semaphore.Overrides) *Engine {

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 10
	}
	if alertCache == nil {
		alertCache = cache.NewNoopAlertBatchCache()
	}

	return &Engine{
		src:        src,
		mapping:    mapping,
		alertCache: alertCache,
		cfg:        cfg,
		alertCfg:   alertCfg,
		overrides:  overrides,
		workers:    xsemaphore.NewWeighted(int64(workerCount)),
		now:        time.Now,
	}
}

// AssessProduct evaluates one product against the current snapshot. Partial
// upstream data degrades to "no data" fields and a WHITE semaphore; only all
// fact sources failing at once is a hard error.
func (e *Engine) AssessProduct(ctx context.Context, baseCode string, opts Options) (*domain.ProductAssessment, error) {
	product, err := e.src.Products.GetProduct(ctx, baseCode)
	if err != nil {
		return nil, err
	}

	facts, failures, err := e.fetchFacts(ctx, baseCode)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, f := range failures {
		warnings = append(warnings, f.Error())
	}

	snap := aggregate.NewSnapshot(baseCode)
	for _, rec := range facts.stock {
		snap.AddStock(rec)
	}
	for _, rec := range facts.sales {
		snap.AddSales(rec, opts.Window)
	}
	for _, rec := range facts.purchases {
		snap.AddPurchase(rec)
	}

	assessment := e.buildAssessment(product, snap, facts.sales, opts)
	assessment.Warnings = warnings
	return assessment, nil
}

type productFacts struct {
	stock     []domain.StockRecord
	sales     []domain.SalesRecord
	purchases []domain.PurchaseRecord
}

// fetchFacts fans out the three fact reads concurrently, each under its own
// timeout. A failed source degrades to empty data and is reported back to the
// caller; all three failing is the only hard error. Caller cancellation
// aborts the in-flight fetches and nothing partial is kept.
func (e *Engine) fetchFacts(ctx context.Context, baseCode string) (*productFacts, []*domain.DataFetchError, error) {
	timeout := e.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var (
		facts    productFacts
		mu       sync.Mutex
		failures []*domain.DataFetchError
	)

	record := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, &domain.DataFetchError{Source: source, Err: err})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		recs, err := e.src.Stock.GetStock(fctx, baseCode)
		if err != nil {
			record("stock", err)
			return nil
		}
		facts.stock = recs
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		// The engine applies the KPI window in-memory so the same rows can
		// also feed the pace computation over its own lookback.
		recs, err := e.src.Sales.GetSales(fctx, baseCode, domain.DateRange{})
		if err != nil {
			record("sales", err)
			return nil
		}
		facts.sales = recs
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		recs, err := e.src.Purchases.GetLastPurchases(fctx, baseCode)
		if err != nil {
			record("purchases", err)
			return nil
		}
		facts.purchases = recs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		// Caller cancelled: discard partial results.
		return nil, nil, err
	}

	if len(failures) == 3 {
		return nil, nil, domain.ErrAllSourcesUnavailable
	}

	for _, f := range failures {
		log.Warn().Err(f).Str("base_code", baseCode).Msg("fact source degraded")
	}

	return &facts, failures, nil
}

func (e *Engine) buildAssessment(product domain.Product, snap *aggregate.Snapshot,
	allSales []domain.SalesRecord, opts Options) *domain.ProductAssessment {

	lastPurchase := snap.LastPurchase()

	semCfg, cfgWarnings := e.overrides.Resolve(semaphore.Config{
		WindowDays:           e.cfg.WindowDays,
		ReorderThresholdDays: e.cfg.ReorderThresholdDays,
	}, product.Supplier, product.Category)

	var semInput semaphore.Input
	semInput.StockOnHand = snap.TotalOnHand

	if lastPurchase != nil {
		days := e.now().Sub(lastPurchase.Date).Hours() / 24
		semInput.DaysSinceLastPurchase = math.Max(days, 0)
		semInput.LastPurchaseDate = &lastPurchase.Date

		if opts.PaceSincePurchase {
			semInput.OverridePace = paceOver(allSales, lastPurchase.Date, e.now(), semInput.DaysSinceLastPurchase)
		} else {
			from := lastPurchase.Date.AddDate(0, 0, -semCfg.WindowDays)
			semInput.Pace = paceOver(allSales, from, lastPurchase.Date, float64(semCfg.WindowDays))
		}
	}

	sem := semaphore.Classify(semInput, semCfg)

	kpis := e.buildKPIs(snap, sem.Pace, lastPurchase)
	facts := buildFacts(snap, kpis)

	assessment := &domain.ProductAssessment{
		Product:        product,
		Sizes:          snap.Sizes(),
		Matrix:         snap.Matrix(),
		KPIs:           kpis,
		LastPurchase:   lastPurchase,
		Semaphore:      sem,
		Insights:       insights.Evaluate(facts),
		UnresolvedRows: snap.UnresolvedRows,
	}

	for _, w := range cfgWarnings {
		log.Warn().Err(w).Str("base_code", product.BaseCode).Msg("semaphore override rejected")
		assessment.Warnings = append(assessment.Warnings, w.Error())
	}

	return assessment
}

func (e *Engine) buildKPIs(snap *aggregate.Snapshot, pace *float64, lastPurchase *domain.PurchaseEvent) domain.ProductKPIs {
	unitsSold := metrics.Some(snap.TotalUnits)
	revenue := metrics.Some(snap.TotalRevenue)
	asp := metrics.ASP(revenue, unitsSold)

	var costWithTax *float64
	if lastPurchase != nil {
		costWithTax = metrics.CostWithTax(metrics.Some(lastPurchase.UnitCost), e.cfg.TaxMultiplier)
	}

	stock := metrics.Some(snap.TotalOnHand)

	return domain.ProductKPIs{
		UnitsSold:      snap.TotalUnits,
		Revenue:        snap.TotalRevenue,
		StockOnHand:    snap.TotalOnHand,
		StockPending:   snap.TotalPending,
		ASP:            asp,
		MarginPct:      metrics.MarginPct(asp, costWithTax),
		MarkupPct:      metrics.MarkupPct(asp, costWithTax),
		SellThroughPct: metrics.SellThroughPct(unitsSold, stock),
		DaysOfStock:    metrics.DaysOfStock(stock, pace),
		Pace:           pace,
	}
}

// paceOver computes average units/day over [from, to]. Nil when no sales fall
// inside the window or the window has no length.
func paceOver(sales []domain.SalesRecord, from, to time.Time, days float64) *float64 {
	if days <= 0 {
		return nil
	}

	window := domain.DateRange{From: from, To: to}
	total := 0.0
	seen := false
	for _, rec := range sales {
		if window.Contains(rec.Date) {
			total += rec.Units
			seen = true
		}
	}
	if !seen {
		return nil
	}

	return metrics.SafeDivide(metrics.Some(total), metrics.Some(days))
}

func buildFacts(snap *aggregate.Snapshot, kpis domain.ProductKPIs) insights.Facts {
	sizes := make(map[string]insights.SizeFact, len(snap.SizeTotals))
	for size, tot := range snap.SizeTotals {
		sizes[size] = insights.SizeFact{OnHand: tot.OnHand, Units: tot.Units}
	}

	var rotation *float64
	if snap.PurchasedUnits > 0 {
		rotation = metrics.SafeDivide(metrics.Some(snap.TotalUnits), metrics.Some(snap.PurchasedUnits))
	}

	return insights.Facts{
		UnitsSold:      snap.TotalUnits,
		PurchasedUnits: snap.PurchasedUnits,
		StockOnHand:    snap.TotalOnHand,
		Rotation:       rotation,
		SellThroughPct: kpis.SellThroughPct,
		MarginPct:      kpis.MarginPct,
		DaysOfStock:    kpis.DaysOfStock,
		Sizes:          sizes,
	}
}

// storeIndex returns the validated store dimension, read through the mapping
// cache. The first successful validation wins; later callers reuse it until
// the TTL expires or an operator invalidates it.
func (e *Engine) storeIndex(ctx context.Context) (map[string]domain.Store, error) {
	if mapping, ok, err := e.mapping.Get(ctx); err == nil && ok {
		stores := make(map[string]domain.Store, len(mapping))
		for id, name := range mapping {
			stores[id] = domain.Store{ID: id, Name: name, Class: domain.ClassifyStore(id, name)}
		}
		return stores, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("store mapping cache read failed")
	}

	list, err := e.src.Stores.GetStores(ctx)
	if err != nil {
		return nil, &domain.DataFetchError{Source: "stores", Err: err}
	}

	stores := make(map[string]domain.Store, len(list))
	mapping := make(map[string]string, len(list))
	for _, s := range list {
		if strings.TrimSpace(s.ID) == "" {
			continue
		}
		stores[s.ID] = s
		mapping[s.ID] = s.Name
	}

	if won, err := e.mapping.PutIfAbsent(ctx, mapping); err != nil {
		log.Warn().Err(err).Msg("store mapping cache write failed")
	} else if !won {
		log.Debug().Msg("store mapping already validated by another caller")
	}

	return stores, nil
}

// InvalidateStoreMapping drops the validated mapping so the next caller
// re-validates against the dimension source.
func (e *Engine) InvalidateStoreMapping(ctx context.Context) error {
	if err := e.mapping.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate store mapping: %w", err)
	}
	return e.alertCache.InvalidateAll(ctx)
}
