// backend-go/internal/domain/models.go
package domain

import "time"

// Product is one article identified by its canonical base code. Size and color
// variants reference the base code; sources disagree on code length, so the
// base code is the only shared identity.
type Product struct {
	BaseCode    string `json:"base_code" db:"base_code"`
	Brand       string `json:"brand" db:"brand"`
	Description string `json:"description" db:"description"`
	Supplier    string `json:"supplier" db:"supplier"`
	Category    string `json:"category" db:"category"`
}

// Store represents a sales location or warehouse.
type Store struct {
	ID    string     `json:"id" db:"id"`
	Name  string     `json:"name" db:"name"`
	Class StoreClass `json:"class" db:"-"`
}

// StockRecord is the on-hand position for one (product, size, store) key.
// Pending is nil when the pending-stock source is unavailable.
type StockRecord struct {
	BaseCode string   `json:"base_code" db:"base_code"`
	FullCode string   `json:"full_code" db:"full_code"`
	Size     string   `json:"size" db:"size"`
	StoreID  string   `json:"store_id" db:"store_id"`
	OnHand   float64  `json:"on_hand" db:"on_hand"`
	Pending  *float64 `json:"pending" db:"pending"`
}

// SalesRecord is one sales fact line. Units may be negative only for returns.
type SalesRecord struct {
	BaseCode string    `json:"base_code" db:"base_code"`
	FullCode string    `json:"full_code" db:"full_code"`
	Size     string    `json:"size" db:"size"`
	StoreID  string    `json:"store_id" db:"store_id"`
	Date     time.Time `json:"date" db:"date"`
	Units    float64   `json:"units" db:"units"`
	Revenue  float64   `json:"revenue" db:"revenue"`
}

// PurchaseRecord is the most recent purchase line for one product-size code.
// Purchase-source codes carry trailing size/color segments with no delimiter,
// so FullCode must be resolved against the base code.
type PurchaseRecord struct {
	BaseCode string    `json:"base_code" db:"base_code"`
	FullCode string    `json:"full_code" db:"full_code"`
	Date     time.Time `json:"last_purchase_date" db:"last_purchase_date"`
	Qty      float64   `json:"last_purchase_qty" db:"last_purchase_qty"`
	UnitCost float64   `json:"last_purchase_unit_cost" db:"last_purchase_unit_cost"`
}

// SemaphoreColor is the replenishment health code for a product.
type SemaphoreColor string

const (
	SemaphoreRed   SemaphoreColor = "red"   // oversupply
	SemaphoreGreen SemaphoreColor = "green" // reorder now
	SemaphoreBlack SemaphoreColor = "black" // normal
	SemaphoreWhite SemaphoreColor = "white" // insufficient data
)

// ReplenishmentAssessment is derived per request, never persisted.
type ReplenishmentAssessment struct {
	Color        SemaphoreColor `json:"color"`
	DaysReal     *float64       `json:"days_real"`
	DaysExpected *float64       `json:"days_expected"`
	Pace         *float64       `json:"pace"`
	Explanation  string         `json:"explanation"`
}

// ProductKPIs are the aggregate metrics for one product. Nil means "no data",
// never zero.
type ProductKPIs struct {
	UnitsSold      float64  `json:"units_sold"`
	Revenue        float64  `json:"revenue"`
	StockOnHand    float64  `json:"stock_on_hand"`
	StockPending   *float64 `json:"stock_pending"`
	ASP            *float64 `json:"asp"`
	MarginPct      *float64 `json:"margin_pct"`
	MarkupPct      *float64 `json:"markup_pct"`
	SellThroughPct *float64 `json:"sell_through_pct"`
	DaysOfStock    *float64 `json:"days_of_stock"`
	Pace           *float64 `json:"pace"`
}

// MatrixCell is one (store, size) cell of the stock/sales matrix.
type MatrixCell struct {
	StoreID string  `json:"store_id"`
	Size    string  `json:"size"`
	OnHand  float64 `json:"on_hand"`
	Units   float64 `json:"units_sold"`
	Revenue float64 `json:"revenue"`
}

// ProductAssessment is the full per-product evaluation result.
type ProductAssessment struct {
	Product        Product                 `json:"product"`
	Sizes          []string                `json:"sizes"`
	Matrix         []MatrixCell            `json:"matrix"`
	KPIs           ProductKPIs             `json:"kpis"`
	LastPurchase   *PurchaseEvent          `json:"last_purchase"`
	Semaphore      ReplenishmentAssessment `json:"semaphore"`
	Insights       []Insight               `json:"insights"`
	UnresolvedRows int                     `json:"unresolved_rows"`
	Warnings       []string                `json:"warnings,omitempty"`
}

// PurchaseEvent is the resolved most-recent purchase for a product: all size
// lines bought on the same date are one event.
type PurchaseEvent struct {
	Date     time.Time `json:"date"`
	Qty      float64   `json:"qty"`
	UnitCost float64   `json:"unit_cost"`
}

// AlertType identifies a redistribution problem class.
type AlertType string

const (
	AlertCentralStockNotDistributed AlertType = "central_stock_not_distributed"
	AlertImbalancedAcrossStores     AlertType = "imbalanced_across_stores"
)

// AlertSeverity ranks redistribution alerts.
type AlertSeverity string

const (
	SeverityAlta  AlertSeverity = "alta"
	SeverityMedia AlertSeverity = "media"
	SeverityBaja  AlertSeverity = "baja"
)

// Stock status labels used in affected-store reporting.
const (
	StockStatusSinStock  = "SIN STOCK"
	StockStatusBajoStock = "BAJO STOCK"
)

// AffectedStore is one store listed inside a redistribution alert.
type AffectedStore struct {
	StoreID       string  `json:"store_id"`
	StoreName     string  `json:"store_name"`
	SalesSharePct float64 `json:"sales_share_pct"`
	Stock         float64 `json:"stock"`
	Status        string  `json:"status,omitempty"`
}

// RedistributionAlert is derived per batch run, never persisted.
type RedistributionAlert struct {
	BaseCode         string          `json:"base_code"`
	Description      string          `json:"description"`
	Type             AlertType       `json:"type"`
	Severity         AlertSeverity   `json:"severity"`
	AffectedStores   []AffectedStore `json:"affected_stores"`
	TotalNeededStock float64         `json:"total_needed_stock"`
	TotalExcessStock float64         `json:"total_excess_stock"`
	TotalUnitsSold   float64         `json:"total_units_sold"`
}

// InsightType classifies a recommendation.
type InsightType string

const (
	InsightSuccess InsightType = "success"
	InsightWarning InsightType = "warning"
	InsightError   InsightType = "error"
	InsightInfo    InsightType = "info"
)

// Insight is one human-readable recommendation emitted by the rule engine.
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Stars   int         `json:"stars"`
}

// BatchFailure records a single product that could not be assessed during a
// batch run. Failures travel alongside successes, never silently dropped.
type BatchFailure struct {
	BaseCode string `json:"base_code"`
	Error    string `json:"error"`
}

// AlertBatchResult is the output of a batch redistribution run.
type AlertBatchResult struct {
	Period     DateRange             `json:"period"`
	Alerts     []RedistributionAlert `json:"alerts"`
	Failures   []BatchFailure        `json:"failures"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// DateRange is an optional [From, To] sales window. Zero values mean open-ended.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t falls inside the range. Open bounds always match.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// TopProduct is one entry of the top-sellers cutoff used by batch mode.
type TopProduct struct {
	BaseCode    string  `json:"base_code" db:"base_code"`
	Description string  `json:"description" db:"description"`
	Units       float64 `json:"units" db:"units"`
}
