// Package aggregate merges independently-fetched stock, sales and purchase
// facts into one immutable per-product snapshot keyed by (size, store).
// The three sources share no foreign key, so every row is resolved against the
// product's canonical base code before it joins the fold.
//
// The fold is commutative: quantities add and the last-purchase event is
// resolved from accumulated state, so merging the same fact sets in any order
// yields identical totals. This is a required property, not an implementation
// detail.
package aggregate

import (
	"sort"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/resolver"
)

// Key addresses one cell of the stock/sales matrix.
type Key struct {
	Size    string
	StoreID string
}

// Cell accumulates stock and sales facts for one (size, store) key.
type Cell struct {
	OnHand  float64
	Pending *float64
	Units   float64
	Revenue float64
}

// StoreTotal accumulates per-store totals across sizes, including rows whose
// size could not be resolved.
type StoreTotal struct {
	OnHand  float64
	Units   float64
	Revenue float64
}

// SizeTotal accumulates per-size totals across stores.
type SizeTotal struct {
	OnHand float64
	Units  float64
}

type purchaseAccum struct {
	qty      float64
	unitCost float64
	costCode string
}

// Snapshot is the merged, order-independent view of one product. Build it by
// folding fact rows in with the Add methods; readers must treat it as
// immutable once handed out.
type Snapshot struct {
	BaseCode string

	Cells       map[Key]*Cell
	StoreTotals map[string]*StoreTotal
	SizeTotals  map[string]*SizeTotal

	TotalOnHand  float64
	TotalPending *float64
	TotalUnits   float64
	TotalRevenue float64

	// PurchasedUnits sums last-purchase quantities across all size lines,
	// regardless of purchase date. Used for rotation metrics.
	PurchasedUnits float64

	// UnresolvedRows counts stock/sales rows whose size token could not be
	// resolved. Their quantities stay in product and store totals; only the
	// per-size breakdown excludes them.
	UnresolvedRows int

	purchases map[int64]*purchaseAccum // keyed by unix day of purchase date
}

// NewSnapshot creates an empty snapshot for a product.
func NewSnapshot(baseCode string) *Snapshot {
	return &Snapshot{
		BaseCode:    baseCode,
		Cells:       make(map[Key]*Cell),
		StoreTotals: make(map[string]*StoreTotal),
		SizeTotals:  make(map[string]*SizeTotal),
		purchases:   make(map[int64]*purchaseAccum),
	}
}

// AddStock folds one stock row into the snapshot. Stock rows anchor the
// (size, store) key set.
func (s *Snapshot) AddStock(rec domain.StockRecord) {
	size, ok := s.resolveSize(rec.Size, rec.FullCode)

	s.TotalOnHand += rec.OnHand
	if rec.Pending != nil {
		v := *rec.Pending
		if s.TotalPending == nil {
			s.TotalPending = &v
		} else {
			*s.TotalPending += v
		}
	}

	st := s.storeTotal(rec.StoreID)
	st.OnHand += rec.OnHand

	if !ok {
		s.UnresolvedRows++
		return
	}

	cell := s.cell(Key{Size: size, StoreID: rec.StoreID})
	cell.OnHand += rec.OnHand
	if rec.Pending != nil {
		v := *rec.Pending
		if cell.Pending == nil {
			cell.Pending = &v
		} else {
			*cell.Pending += v
		}
	}

	s.sizeTotal(size).OnHand += rec.OnHand
}

// AddSales folds one sales row into the snapshot, applying the optional date
// window before merging. Sales rows contribute keys of their own when the
// product sold at a store with no recorded stock.
func (s *Snapshot) AddSales(rec domain.SalesRecord, window domain.DateRange) {
	if !window.IsZero() && !window.Contains(rec.Date) {
		return
	}

	size, ok := s.resolveSize(rec.Size, rec.FullCode)

	s.TotalUnits += rec.Units
	s.TotalRevenue += rec.Revenue

	st := s.storeTotal(rec.StoreID)
	st.Units += rec.Units
	st.Revenue += rec.Revenue

	if !ok {
		s.UnresolvedRows++
		return
	}

	cell := s.cell(Key{Size: size, StoreID: rec.StoreID})
	cell.Units += rec.Units
	cell.Revenue += rec.Revenue

	s.sizeTotal(size).Units += rec.Units
}

// AddPurchase folds one purchase row into the snapshot. Rows are bucketed by
// purchase date so the most recent purchase event can be resolved afterwards;
// same-date lines belong to one event.
func (s *Snapshot) AddPurchase(rec domain.PurchaseRecord) {
	s.PurchasedUnits += rec.Qty

	day := rec.Date.Truncate(24 * time.Hour).Unix()
	acc, ok := s.purchases[day]
	if !ok {
		acc = &purchaseAccum{unitCost: rec.UnitCost, costCode: rec.FullCode}
		s.purchases[day] = acc
	}
	acc.qty += rec.Qty

	// Representative cost: take it from the row with the lowest full code so
	// the pick does not depend on fold order.
	if ok && rec.FullCode < acc.costCode {
		acc.unitCost = rec.UnitCost
		acc.costCode = rec.FullCode
	}
}

// LastPurchase resolves the most recent purchase event: the newest purchase
// date across all size rows, quantity summed only over rows sharing that exact
// date, cost representative of that date. Nil when no purchase was recorded.
func (s *Snapshot) LastPurchase() *domain.PurchaseEvent {
	var bestDay int64
	var found bool
	for day := range s.purchases {
		if !found || day > bestDay {
			bestDay = day
			found = true
		}
	}
	if !found {
		return nil
	}

	acc := s.purchases[bestDay]
	return &domain.PurchaseEvent{
		Date:     time.Unix(bestDay, 0).UTC(),
		Qty:      acc.qty,
		UnitCost: acc.unitCost,
	}
}

// Sizes returns the resolved size tokens in mixed numeric/lexical order.
func (s *Snapshot) Sizes() []string {
	sizes := make([]string, 0, len(s.SizeTotals))
	for size := range s.SizeTotals {
		sizes = append(sizes, size)
	}
	resolver.SortSizeTokens(sizes)
	return sizes
}

// StoreIDs returns the store ids present in the snapshot, sorted.
func (s *Snapshot) StoreIDs() []string {
	ids := make([]string, 0, len(s.StoreTotals))
	for id := range s.StoreTotals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Matrix renders the snapshot cells as a sorted store×size listing.
func (s *Snapshot) Matrix() []domain.MatrixCell {
	cells := make([]domain.MatrixCell, 0, len(s.Cells))
	for key, cell := range s.Cells {
		cells = append(cells, domain.MatrixCell{
			StoreID: key.StoreID,
			Size:    key.Size,
			OnHand:  cell.OnHand,
			Units:   cell.Units,
			Revenue: cell.Revenue,
		})
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].StoreID != cells[j].StoreID {
			return cells[i].StoreID < cells[j].StoreID
		}
		return resolver.CompareSizeTokens(cells[i].Size, cells[j].Size)
	})

	return cells
}

// resolveSize prefers an already-resolved size token and falls back to
// prefix resolution against the base code.
func (s *Snapshot) resolveSize(size, fullCode string) (string, bool) {
	if size != "" {
		return size, true
	}
	return resolver.ResolveSize(fullCode, s.BaseCode)
}

func (s *Snapshot) cell(key Key) *Cell {
	c, ok := s.Cells[key]
	if !ok {
		c = &Cell{}
		s.Cells[key] = c
	}
	return c
}

func (s *Snapshot) storeTotal(storeID string) *StoreTotal {
	t, ok := s.StoreTotals[storeID]
	if !ok {
		t = &StoreTotal{}
		s.StoreTotals[storeID] = t
	}
	return t
}

func (s *Snapshot) sizeTotal(size string) *SizeTotal {
	t, ok := s.SizeTotals[size]
	if !ok {
		t = &SizeTotal{}
		s.SizeTotals[size] = t
	}
	return t
}
