package semaphore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/metrics"
	"github.com/modacentro/retail-dashboard/backend-go/internal/semaphore"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	purchased := datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg := semaphore.Config{WindowDays: 180, ReorderThresholdDays: 45}

	tests := []struct {
		name string
		in   semaphore.Input
		want domain.SemaphoreColor
	}{
		{
			name: "no last purchase is white",
			in:   semaphore.Input{StockOnHand: 100, Pace: metrics.Some(2)},
			want: domain.SemaphoreWhite,
		},
		{
			name: "out of stock is green regardless of pace",
			in:   semaphore.Input{StockOnHand: 0, LastPurchaseDate: purchased},
			want: domain.SemaphoreGreen,
		},
		{
			name: "negative stock is green",
			in:   semaphore.Input{StockOnHand: -3, Pace: metrics.Some(1), LastPurchaseDate: purchased},
			want: domain.SemaphoreGreen,
		},
		{
			name: "stock but no pace is white",
			in:   semaphore.Input{StockOnHand: 50, LastPurchaseDate: purchased, DaysSinceLastPurchase: 30},
			want: domain.SemaphoreWhite,
		},
		{
			name: "zero pace is white",
			in:   semaphore.Input{StockOnHand: 50, Pace: metrics.Some(0), LastPurchaseDate: purchased, DaysSinceLastPurchase: 30},
			want: domain.SemaphoreWhite,
		},
		{
			name: "coverage exceeds remaining window is red",
			// daysReal = 200/1 = 200, daysExpected = 180-30 = 150
			in:   semaphore.Input{StockOnHand: 200, Pace: metrics.Some(1), LastPurchaseDate: purchased, DaysSinceLastPurchase: 30},
			want: domain.SemaphoreRed,
		},
		{
			name: "coverage below reorder threshold is green",
			// daysReal = 20/1 = 20 < 45
			in:   semaphore.Input{StockOnHand: 20, Pace: metrics.Some(1), LastPurchaseDate: purchased, DaysSinceLastPurchase: 30},
			want: domain.SemaphoreGreen,
		},
		{
			name: "coverage in normal range is black",
			// daysReal = 100/1 = 100, threshold 45, expected 150
			in:   semaphore.Input{StockOnHand: 100, Pace: metrics.Some(1), LastPurchaseDate: purchased, DaysSinceLastPurchase: 30},
			want: domain.SemaphoreBlack,
		},
		{
			name: "negative expected coverage never yields red",
			// daysReal = 50/0.1 = 500, daysExpected = 180-200 = -20: rule 4
			// requires a positive expected coverage, so this lands on black.
			in:   semaphore.Input{StockOnHand: 50, Pace: metrics.Some(0.1), LastPurchaseDate: purchased, DaysSinceLastPurchase: 200},
			want: domain.SemaphoreBlack,
		},
		{
			name: "override pace wins over window pace",
			// window pace alone would be white; override 1 u/día gives 20 días < 45
			in: semaphore.Input{
				StockOnHand: 20, OverridePace: metrics.Some(1),
				LastPurchaseDate: purchased, DaysSinceLastPurchase: 30,
			},
			want: domain.SemaphoreGreen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := semaphore.Classify(tt.in, cfg)
			if got.Color != tt.want {
				t.Fatalf("Classify() color = %s, want %s (%s)", got.Color, tt.want, got.Explanation)
			}
			if got.Explanation == "" {
				t.Error("Classify() returned an empty explanation")
			}
		})
	}
}

func TestClassifyOutOfStockCoverage(t *testing.T) {
	purchased := datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	got := semaphore.Classify(semaphore.Input{StockOnHand: 0, LastPurchaseDate: purchased}, semaphore.DefaultConfig())
	if got.Color != domain.SemaphoreGreen {
		t.Fatalf("color = %s, want green", got.Color)
	}
	if got.DaysReal == nil || *got.DaysReal != 0 {
		t.Errorf("DaysReal = %v, want 0", got.DaysReal)
	}
}

// Every input maps to exactly one of the four colors, including degenerate
// combinations.
func TestClassifyTotal(t *testing.T) {
	purchased := datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	stocks := []float64{-5, 0, 10, 500}
	paces := []*float64{nil, metrics.Some(0), metrics.Some(-1), metrics.Some(0.5), metrics.Some(10)}
	dates := []*time.Time{nil, purchased}
	days := []float64{0, 30, 200}

	valid := map[domain.SemaphoreColor]bool{
		domain.SemaphoreRed:   true,
		domain.SemaphoreGreen: true,
		domain.SemaphoreBlack: true,
		domain.SemaphoreWhite: true,
	}

	for _, stock := range stocks {
		for _, pace := range paces {
			for _, date := range dates {
				for _, d := range days {
					got := semaphore.Classify(semaphore.Input{
						StockOnHand:           stock,
						Pace:                  pace,
						LastPurchaseDate:      date,
						DaysSinceLastPurchase: d,
					}, semaphore.DefaultConfig())
					if !valid[got.Color] {
						t.Fatalf("Classify produced unknown color %q", got.Color)
					}
				}
			}
		}
	}
}

func TestResolveOverrides(t *testing.T) {
	def := semaphore.Config{WindowDays: 180, ReorderThresholdDays: 45}

	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }

	tests := []struct {
		name         string
		overrides    semaphore.Overrides
		supplier     string
		category     string
		want         semaphore.Config
		wantWarnings int
	}{
		{
			name:      "no overrides keeps defaults",
			overrides: semaphore.Overrides{},
			supplier:  "ACME",
			want:      def,
		},
		{
			name: "category override applies",
			overrides: semaphore.Overrides{
				Category: map[string]semaphore.Override{
					"abrigos": {WindowDays: intPtr(90)},
				},
			},
			category: "abrigos",
			want:     semaphore.Config{WindowDays: 90, ReorderThresholdDays: 45},
		},
		{
			name: "supplier override beats category",
			overrides: semaphore.Overrides{
				Supplier: map[string]semaphore.Override{
					"ACME": {WindowDays: intPtr(120), ReorderThresholdDays: floatPtr(30)},
				},
				Category: map[string]semaphore.Override{
					"abrigos": {WindowDays: intPtr(90)},
				},
			},
			supplier: "ACME",
			category: "abrigos",
			want:     semaphore.Config{WindowDays: 120, ReorderThresholdDays: 30},
		},
		{
			name: "invalid window falls back with a warning",
			overrides: semaphore.Overrides{
				Supplier: map[string]semaphore.Override{
					"ACME": {WindowDays: intPtr(-10)},
				},
			},
			supplier:     "ACME",
			want:         def,
			wantWarnings: 1,
		},
		{
			name: "invalid threshold keeps valid window from same override",
			overrides: semaphore.Overrides{
				Supplier: map[string]semaphore.Override{
					"ACME": {WindowDays: intPtr(90), ReorderThresholdDays: floatPtr(-5)},
				},
			},
			supplier:     "ACME",
			want:         semaphore.Config{WindowDays: 90, ReorderThresholdDays: 45},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := tt.overrides.Resolve(def, tt.supplier, tt.category)
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("Resolve() warnings = %d, want %d", len(warnings), tt.wantWarnings)
			}
			for _, w := range warnings {
				var cfgErr *domain.ConfigError
				if !errors.As(w, &cfgErr) {
					t.Errorf("warning %v is not a ConfigError", w)
				}
			}
		})
	}
}
