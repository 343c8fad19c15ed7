// Package semaphore classifies a product's replenishment health into one of
// four codes: red (oversupply), green (reorder now), black (normal) and white
// (insufficient data). The classifier is stateless and recomputed from the
// snapshot on every call; it never persists anything.
package semaphore

import (
	"fmt"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/metrics"
)

// Config holds the classification thresholds.
type Config struct {
	WindowDays           int
	ReorderThresholdDays float64
}

// DefaultConfig returns the stock thresholds used when no override applies.
func DefaultConfig() Config {
	return Config{
		WindowDays:           180,
		ReorderThresholdDays: 45,
	}
}

// Input is the per-product snapshot the classifier reads.
type Input struct {
	StockOnHand           float64
	Pace                  *float64 // units/day over the lookback window; nil when no sales recorded
	OverridePace          *float64 // optional pace computed from sales since last purchase
	LastPurchaseDate      *time.Time
	DaysSinceLastPurchase float64
}

// Classify maps an input snapshot to exactly one color. The rule order is
// fixed; the first matching rule wins.
func Classify(in Input, cfg Config) domain.ReplenishmentAssessment {
	if cfg.WindowDays <= 0 {
		cfg = DefaultConfig()
	}

	// 1. Never purchased: nothing to reason about.
	if in.LastPurchaseDate == nil {
		return domain.ReplenishmentAssessment{
			Color:       domain.SemaphoreWhite,
			Explanation: "sin fecha de última compra: no hay datos suficientes para clasificar",
		}
	}

	// 2. Out of stock is always an immediate reorder, pace is irrelevant.
	if in.StockOnHand <= 0 {
		return domain.ReplenishmentAssessment{
			Color:       domain.SemaphoreGreen,
			DaysReal:    metrics.Some(0),
			Pace:        effectivePace(in),
			Explanation: fmt.Sprintf("stock=%.0f (agotado): reponer ahora", in.StockOnHand),
		}
	}

	pace := effectivePace(in)

	// 3. No sales in the lookback window and no override pace.
	if pace == nil {
		return domain.ReplenishmentAssessment{
			Color: domain.SemaphoreWhite,
			Explanation: fmt.Sprintf(
				"sin ventas en los últimos %d días y sin ritmo alternativo: datos insuficientes",
				cfg.WindowDays),
		}
	}

	daysReal := metrics.SafeDivide(metrics.Some(in.StockOnHand), pace)
	if daysReal == nil {
		// Pace of exactly zero carries no information either.
		return domain.ReplenishmentAssessment{
			Color:       domain.SemaphoreWhite,
			Pace:        pace,
			Explanation: fmt.Sprintf("ritmo de venta %.4f uds/día no permite estimar cobertura", *pace),
		}
	}

	daysExpected := float64(cfg.WindowDays) - in.DaysSinceLastPurchase

	base := fmt.Sprintf("stock=%.0f, ritmo=%.4f uds/día, cobertura real=%.1f días, cobertura esperada=%.1f días",
		in.StockOnHand, *pace, *daysReal, daysExpected)

	switch {
	case *daysReal > daysExpected && daysExpected > 0:
		return domain.ReplenishmentAssessment{
			Color:        domain.SemaphoreRed,
			DaysReal:     daysReal,
			DaysExpected: metrics.Some(daysExpected),
			Pace:         pace,
			Explanation:  base + ": sobrestock, la cobertura supera la ventana restante",
		}
	case *daysReal < cfg.ReorderThresholdDays:
		return domain.ReplenishmentAssessment{
			Color:        domain.SemaphoreGreen,
			DaysReal:     daysReal,
			DaysExpected: metrics.Some(daysExpected),
			Pace:         pace,
			Explanation:  fmt.Sprintf("%s: por debajo del umbral de reposición (%.0f días)", base, cfg.ReorderThresholdDays),
		}
	default:
		return domain.ReplenishmentAssessment{
			Color:        domain.SemaphoreBlack,
			DaysReal:     daysReal,
			DaysExpected: metrics.Some(daysExpected),
			Pace:         pace,
			Explanation:  base + ": cobertura dentro del rango normal",
		}
	}
}

// effectivePace prefers the injected override pace; classification logic does
// not change based on which pace was supplied.
func effectivePace(in Input) *float64 {
	if in.OverridePace != nil {
		return in.OverridePace
	}
	return in.Pace
}
