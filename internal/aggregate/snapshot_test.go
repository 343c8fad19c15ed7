package aggregate_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/aggregate"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/metrics"
)

const baseCode = "1840123090012"

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSnapshotFold(t *testing.T) {
	snap := aggregate.NewSnapshot(baseCode)

	snap.AddStock(domain.StockRecord{FullCode: baseCode + "38", StoreID: "01", OnHand: 10, Pending: metrics.Some(2)})
	snap.AddStock(domain.StockRecord{FullCode: baseCode + "40", StoreID: "01", OnHand: 5})
	snap.AddStock(domain.StockRecord{Size: "38", StoreID: "02", OnHand: 3, Pending: metrics.Some(1)})

	snap.AddSales(domain.SalesRecord{FullCode: baseCode + "38", StoreID: "01", Date: day(10), Units: 4, Revenue: 120}, domain.DateRange{})
	snap.AddSales(domain.SalesRecord{Size: "40", StoreID: "02", Date: day(11), Units: 2, Revenue: 50}, domain.DateRange{})

	if snap.TotalOnHand != 18 {
		t.Errorf("TotalOnHand = %v, want 18", snap.TotalOnHand)
	}
	if snap.TotalPending == nil || *snap.TotalPending != 3 {
		t.Errorf("TotalPending = %v, want 3", snap.TotalPending)
	}
	if snap.TotalUnits != 6 || snap.TotalRevenue != 170 {
		t.Errorf("totals = (%v, %v), want (6, 170)", snap.TotalUnits, snap.TotalRevenue)
	}

	if got := snap.Sizes(); !reflect.DeepEqual(got, []string{"38", "40"}) {
		t.Errorf("Sizes() = %v, want [38 40]", got)
	}
	if got := snap.StoreIDs(); !reflect.DeepEqual(got, []string{"01", "02"}) {
		t.Errorf("StoreIDs() = %v, want [01 02]", got)
	}

	cell, ok := snap.Cells[aggregate.Key{Size: "38", StoreID: "01"}]
	if !ok || cell.OnHand != 10 || cell.Units != 4 || cell.Revenue != 120 {
		t.Errorf("cell(38, 01) = %+v, want OnHand=10 Units=4 Revenue=120", cell)
	}

	st := snap.StoreTotals["02"]
	if st == nil || st.OnHand != 3 || st.Units != 2 {
		t.Errorf("store total 02 = %+v, want OnHand=3 Units=2", st)
	}
}

func TestSnapshotPendingUnavailable(t *testing.T) {
	snap := aggregate.NewSnapshot(baseCode)
	snap.AddStock(domain.StockRecord{Size: "38", StoreID: "01", OnHand: 10})
	snap.AddStock(domain.StockRecord{Size: "40", StoreID: "01", OnHand: 5})

	if snap.TotalPending != nil {
		t.Errorf("TotalPending = %v, want nil when no row carries pending", *snap.TotalPending)
	}
}

func TestSnapshotUnresolvedRows(t *testing.T) {
	snap := aggregate.NewSnapshot(baseCode)

	// Resolvable row plus one with a foreign prefix.
	snap.AddStock(domain.StockRecord{FullCode: baseCode + "38", StoreID: "01", OnHand: 10})
	snap.AddStock(domain.StockRecord{FullCode: "9990123090012XX", StoreID: "01", OnHand: 7})
	snap.AddSales(domain.SalesRecord{FullCode: "999", StoreID: "02", Date: day(5), Units: 3, Revenue: 60}, domain.DateRange{})

	if snap.UnresolvedRows != 2 {
		t.Errorf("UnresolvedRows = %d, want 2", snap.UnresolvedRows)
	}

	// Unresolved quantities stay in product and store totals.
	if snap.TotalOnHand != 17 {
		t.Errorf("TotalOnHand = %v, want 17", snap.TotalOnHand)
	}
	if snap.TotalUnits != 3 {
		t.Errorf("TotalUnits = %v, want 3", snap.TotalUnits)
	}
	if st := snap.StoreTotals["01"]; st == nil || st.OnHand != 17 {
		t.Errorf("store total 01 OnHand = %+v, want 17", st)
	}

	// Only the per-size breakdown excludes them.
	if tot := snap.SizeTotals["38"]; tot == nil || tot.OnHand != 10 {
		t.Errorf("size total 38 = %+v, want OnHand=10", tot)
	}
	if len(snap.SizeTotals) != 1 {
		t.Errorf("SizeTotals has %d entries, want 1", len(snap.SizeTotals))
	}
}

func TestSnapshotSalesWindow(t *testing.T) {
	window := domain.DateRange{From: day(10), To: day(20)}

	snap := aggregate.NewSnapshot(baseCode)
	snap.AddSales(domain.SalesRecord{Size: "38", StoreID: "01", Date: day(9), Units: 5, Revenue: 100}, window)
	snap.AddSales(domain.SalesRecord{Size: "38", StoreID: "01", Date: day(10), Units: 2, Revenue: 40}, window)
	snap.AddSales(domain.SalesRecord{Size: "38", StoreID: "01", Date: day(20), Units: 1, Revenue: 20}, window)
	snap.AddSales(domain.SalesRecord{Size: "38", StoreID: "01", Date: day(21), Units: 9, Revenue: 180}, window)

	if snap.TotalUnits != 3 || snap.TotalRevenue != 60 {
		t.Errorf("windowed totals = (%v, %v), want (3, 60)", snap.TotalUnits, snap.TotalRevenue)
	}
}

func TestLastPurchase(t *testing.T) {
	tests := []struct {
		name      string
		records   []domain.PurchaseRecord
		wantNil   bool
		wantDate  time.Time
		wantQty   float64
		wantCost  float64
		wantTotal float64
	}{
		{
			name:    "no purchases",
			wantNil: true,
		},
		{
			name: "same-date lines form one event",
			records: []domain.PurchaseRecord{
				{FullCode: baseCode + "38", Date: day(10), Qty: 20, UnitCost: 12.5},
				{FullCode: baseCode + "40", Date: day(10), Qty: 15, UnitCost: 13.0},
			},
			wantDate:  day(10),
			wantQty:   35,
			wantCost:  12.5,
			wantTotal: 35,
		},
		{
			name: "newest date wins, older quantities excluded from the event",
			records: []domain.PurchaseRecord{
				{FullCode: baseCode + "38", Date: day(2), Qty: 50, UnitCost: 10},
				{FullCode: baseCode + "40", Date: day(15), Qty: 8, UnitCost: 14},
			},
			wantDate:  day(15),
			wantQty:   8,
			wantCost:  14,
			wantTotal: 58,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := aggregate.NewSnapshot(baseCode)
			for _, rec := range tt.records {
				snap.AddPurchase(rec)
			}

			got := snap.LastPurchase()
			if tt.wantNil {
				if got != nil {
					t.Fatalf("LastPurchase() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("LastPurchase() = nil, want event")
			}
			if !got.Date.Equal(tt.wantDate) || got.Qty != tt.wantQty || got.UnitCost != tt.wantCost {
				t.Errorf("LastPurchase() = %+v, want date=%s qty=%v cost=%v",
					got, tt.wantDate.Format("2006-01-02"), tt.wantQty, tt.wantCost)
			}
			if snap.PurchasedUnits != tt.wantTotal {
				t.Errorf("PurchasedUnits = %v, want %v", snap.PurchasedUnits, tt.wantTotal)
			}
		})
	}
}

// Folding the same facts in any order must produce identical snapshots.
func TestSnapshotOrderIndependence(t *testing.T) {
	stock := []domain.StockRecord{
		{FullCode: baseCode + "38", StoreID: "01", OnHand: 10, Pending: metrics.Some(2)},
		{FullCode: baseCode + "40", StoreID: "02", OnHand: 5},
		{FullCode: "unresolvable", StoreID: "01", OnHand: 1},
	}
	sales := []domain.SalesRecord{
		{Size: "38", StoreID: "01", Date: day(5), Units: 4, Revenue: 120},
		{Size: "40", StoreID: "02", Date: day(6), Units: -1, Revenue: -30},
		{Size: "38", StoreID: "02", Date: day(7), Units: 2, Revenue: 70},
	}
	purchases := []domain.PurchaseRecord{
		{FullCode: baseCode + "40", Date: day(10), Qty: 15, UnitCost: 13.0},
		{FullCode: baseCode + "38", Date: day(10), Qty: 20, UnitCost: 12.5},
		{FullCode: baseCode + "36", Date: day(1), Qty: 30, UnitCost: 11.0},
	}

	build := func(stockOrder, salesOrder, purchaseOrder []int) *aggregate.Snapshot {
		snap := aggregate.NewSnapshot(baseCode)
		for _, i := range stockOrder {
			snap.AddStock(stock[i])
		}
		for _, i := range salesOrder {
			snap.AddSales(sales[i], domain.DateRange{})
		}
		for _, i := range purchaseOrder {
			snap.AddPurchase(purchases[i])
		}
		return snap
	}

	reference := build([]int{0, 1, 2}, []int{0, 1, 2}, []int{0, 1, 2})

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, p := range permutations {
		got := build(p, p, p)

		if got.TotalOnHand != reference.TotalOnHand ||
			got.TotalUnits != reference.TotalUnits ||
			got.TotalRevenue != reference.TotalRevenue ||
			got.PurchasedUnits != reference.PurchasedUnits ||
			got.UnresolvedRows != reference.UnresolvedRows {
			t.Fatalf("permutation %v produced different totals", p)
		}
		if (got.TotalPending == nil) != (reference.TotalPending == nil) {
			t.Fatalf("permutation %v produced different pending presence", p)
		}
		if got.TotalPending != nil && math.Abs(*got.TotalPending-*reference.TotalPending) > 1e-9 {
			t.Fatalf("permutation %v produced different pending totals", p)
		}
		if !reflect.DeepEqual(got.Matrix(), reference.Matrix()) {
			t.Fatalf("permutation %v produced a different matrix", p)
		}

		gotLast, refLast := got.LastPurchase(), reference.LastPurchase()
		if !reflect.DeepEqual(gotLast, refLast) {
			t.Fatalf("permutation %v resolved a different last purchase: %+v vs %+v", p, gotLast, refLast)
		}
	}
}

func TestMatrixOrdering(t *testing.T) {
	snap := aggregate.NewSnapshot(baseCode)
	snap.AddStock(domain.StockRecord{Size: "M", StoreID: "02", OnHand: 1})
	snap.AddStock(domain.StockRecord{Size: "38", StoreID: "02", OnHand: 1})
	snap.AddStock(domain.StockRecord{Size: "40", StoreID: "01", OnHand: 1})

	got := snap.Matrix()
	want := []struct {
		store string
		size  string
	}{
		{"01", "40"},
		{"02", "38"},
		{"02", "M"},
	}

	if len(got) != len(want) {
		t.Fatalf("Matrix() returned %d cells, want %d", len(got), len(want))
	}
	for i, cell := range got {
		if cell.StoreID != want[i].store || cell.Size != want[i].size {
			t.Errorf("Matrix()[%d] = (%s, %s), want (%s, %s)",
				i, cell.StoreID, cell.Size, want[i].store, want[i].size)
		}
	}
}
