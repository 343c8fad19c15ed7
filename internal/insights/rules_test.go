package insights_test

import (
	"reflect"
	"testing"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/insights"
	"github.com/modacentro/retail-dashboard/backend-go/internal/metrics"
)

func titles(list []domain.Insight) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, ins := range list {
		out[i] = ins.Title
	}
	return out
}

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name       string
		facts      insights.Facts
		wantTitles []string
	}{
		{
			name: "dead stock",
			facts: insights.Facts{
				StockOnHand: 120,
				UnitsSold:   0,
			},
			wantTitles: []string{"Producto sin ventas"},
		},
		{
			name: "negative margin only fires with sales",
			facts: insights.Facts{
				UnitsSold:   10,
				StockOnHand: 20,
				MarginPct:   metrics.Some(-5),
			},
			wantTitles: []string{"Margen negativo"},
		},
		{
			name: "overstock by coverage",
			facts: insights.Facts{
				UnitsSold:   10,
				StockOnHand: 400,
				DaysOfStock: metrics.Some(400),
			},
			wantTitles: []string{"Exceso de stock"},
		},
		{
			name: "low rotation",
			facts: insights.Facts{
				UnitsSold:      10,
				PurchasedUnits: 100,
				StockOnHand:    90,
				Rotation:       metrics.Some(0.1),
			},
			wantTitles: []string{"Rotación baja"},
		},
		{
			name: "sold out with demand",
			facts: insights.Facts{
				UnitsSold:   40,
				StockOnHand: 0,
			},
			wantTitles: []string{"Stock agotado con demanda"},
		},
		{
			name: "winner product",
			facts: insights.Facts{
				UnitsSold:      80,
				PurchasedUnits: 100,
				StockOnHand:    20,
				Rotation:       metrics.Some(0.8),
				SellThroughPct: metrics.Some(80),
			},
			wantTitles: []string{"Rotación excelente", "Sell-through excelente"},
		},
		{
			name: "high margin info",
			facts: insights.Facts{
				UnitsSold:      10,
				StockOnHand:    30,
				MarginPct:      metrics.Some(65),
				SellThroughPct: metrics.Some(25),
			},
			wantTitles: []string{"Margen alto"},
		},
		{
			name:       "no data fires nothing",
			facts:      insights.Facts{},
			wantTitles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(insights.Evaluate(tt.facts))
			if !reflect.DeepEqual(got, tt.wantTitles) {
				t.Errorf("Evaluate() titles = %v, want %v", got, tt.wantTitles)
			}
		})
	}
}

func TestEvaluateOrdersBySeverity(t *testing.T) {
	facts := insights.Facts{
		UnitsSold:      5,
		PurchasedUnits: 100,
		StockOnHand:    95,
		Rotation:       metrics.Some(0.05),
		SellThroughPct: metrics.Some(5),
		MarginPct:      metrics.Some(-10),
		DaysOfStock:    metrics.Some(700),
	}

	got := insights.Evaluate(facts)
	if len(got) == 0 {
		t.Fatal("expected insights")
	}
	if len(got) > 5 {
		t.Fatalf("Evaluate() returned %d insights, cap is 5", len(got))
	}

	priority := map[domain.InsightType]int{
		domain.InsightError:   4,
		domain.InsightWarning: 3,
		domain.InsightSuccess: 2,
		domain.InsightInfo:    1,
	}
	for i := 1; i < len(got); i++ {
		if priority[got[i].Type] > priority[got[i-1].Type] {
			t.Errorf("insight %d (%s, %s) ranked above %d (%s, %s)",
				i, got[i].Title, got[i].Type, i-1, got[i-1].Title, got[i-1].Type)
		}
	}

	// Same facts, same list: the rules are pure.
	again := insights.Evaluate(facts)
	if !reflect.DeepEqual(titles(got), titles(again)) {
		t.Errorf("Evaluate() is not deterministic: %v vs %v", titles(got), titles(again))
	}
}

func TestSizeImbalance(t *testing.T) {
	tests := []struct {
		name  string
		sizes map[string]insights.SizeFact
		want  bool
	}{
		{
			name: "one size hoards stock without selling",
			sizes: map[string]insights.SizeFact{
				"36": {OnHand: 70, Units: 1},
				"38": {OnHand: 10, Units: 25},
				"40": {OnHand: 10, Units: 24},
			},
			want: true,
		},
		{
			name: "dominant size also sells",
			sizes: map[string]insights.SizeFact{
				"36": {OnHand: 70, Units: 30},
				"38": {OnHand: 10, Units: 20},
			},
			want: false,
		},
		{
			name: "stock spread evenly",
			sizes: map[string]insights.SizeFact{
				"36": {OnHand: 30, Units: 1},
				"38": {OnHand: 30, Units: 25},
				"40": {OnHand: 30, Units: 24},
			},
			want: false,
		},
		{
			name: "single size never fires",
			sizes: map[string]insights.SizeFact{
				"U": {OnHand: 100, Units: 0},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := insights.Facts{UnitsSold: 50, StockOnHand: 90, Sizes: tt.sizes}
			fired := false
			for _, ins := range insights.Evaluate(facts) {
				if ins.Title == "Desequilibrio de tallas" {
					fired = true
				}
			}
			if fired != tt.want {
				t.Errorf("size imbalance fired = %v, want %v", fired, tt.want)
			}
		})
	}
}
