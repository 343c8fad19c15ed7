// Package insights evaluates a fixed, ordered list of independent predicate
// rules against one product's aggregated metrics and emits prioritized,
// human-readable recommendations. Rules are pure: the same snapshot always
// produces the same list, which the snapshot tests rely on.
package insights

import (
	"fmt"
	"sort"

	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
)

// SizeFact is the per-size slice of the aggregates a rule may inspect.
type SizeFact struct {
	OnHand float64
	Units  float64
}

// Facts is the immutable input to the rule engine. Nil metric values mean
// "no data" and predicates must treat them as such, never as zero.
type Facts struct {
	UnitsSold      float64
	PurchasedUnits float64
	StockOnHand    float64
	Rotation       *float64 // unitsSold / unitsPurchased
	SellThroughPct *float64
	MarginPct      *float64
	DaysOfStock    *float64
	Sizes          map[string]SizeFact
}

type rule struct {
	when  func(Facts) bool
	build func(Facts) domain.Insight
}

var insightPriority = map[domain.InsightType]int{
	domain.InsightError:   4,
	domain.InsightWarning: 3,
	domain.InsightSuccess: 2,
	domain.InsightInfo:    1,
}

// The rule list is ordered; new rules are appended and unit-tested
// independently instead of growing a conditional chain.
var rules = []rule{
	{
		when: func(f Facts) bool { return f.StockOnHand > 0 && f.UnitsSold <= 0 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightError,
				Title:   "Producto sin ventas",
				Message: fmt.Sprintf("Hay %.0f unidades en stock sin ninguna venta en el período.", f.StockOnHand),
				Stars:   5,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.MarginPct != nil && *f.MarginPct <= 0 && f.UnitsSold > 0 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightError,
				Title:   "Margen negativo",
				Message: fmt.Sprintf("El margen actual es %.1f%%: se está vendiendo por debajo del coste.", *f.MarginPct),
				Stars:   5,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.DaysOfStock != nil && *f.DaysOfStock > 180 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightError,
				Title:   "Exceso de stock",
				Message: fmt.Sprintf("Al ritmo actual quedan %.0f días de cobertura, muy por encima de la ventana de venta.", *f.DaysOfStock),
				Stars:   4,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.Rotation != nil && *f.Rotation < 0.3 && f.PurchasedUnits > 0 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightWarning,
				Title:   "Rotación baja",
				Message: fmt.Sprintf("Sólo se ha vendido el %.0f%% de lo comprado.", *f.Rotation*100),
				Stars:   4,
			}
		},
	},
	{
		when: func(f Facts) bool {
			return f.SellThroughPct != nil && *f.SellThroughPct < 20 && f.StockOnHand > 0 && f.UnitsSold > 0
		},
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightWarning,
				Title:   "Sell-through bajo",
				Message: fmt.Sprintf("Sell-through del %.1f%%: la mayor parte del stock sigue sin venderse.", *f.SellThroughPct),
				Stars:   3,
			}
		},
	},
	{
		when: sizeImbalance,
		build: func(f Facts) domain.Insight {
			size, stockShare := dominantStockSize(f)
			return domain.Insight{
				Type:    domain.InsightWarning,
				Title:   "Desequilibrio de tallas",
				Message: fmt.Sprintf("La talla %s concentra el %.0f%% del stock pero apenas registra ventas.", size, stockShare*100),
				Stars:   3,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.StockOnHand <= 0 && f.UnitsSold > 0 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightWarning,
				Title:   "Stock agotado con demanda",
				Message: fmt.Sprintf("Se vendieron %.0f unidades y no queda stock: venta perdida probable.", f.UnitsSold),
				Stars:   4,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.Rotation != nil && *f.Rotation >= 0.8 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightSuccess,
				Title:   "Rotación excelente",
				Message: fmt.Sprintf("Se ha vendido el %.0f%% de lo comprado: candidato a recompra.", *f.Rotation*100),
				Stars:   5,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.SellThroughPct != nil && *f.SellThroughPct >= 80 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightSuccess,
				Title:   "Sell-through excelente",
				Message: fmt.Sprintf("Sell-through del %.1f%%.", *f.SellThroughPct),
				Stars:   4,
			}
		},
	},
	{
		when: func(f Facts) bool { return f.MarginPct != nil && *f.MarginPct >= 60 },
		build: func(f Facts) domain.Insight {
			return domain.Insight{
				Type:    domain.InsightInfo,
				Title:   "Margen alto",
				Message: fmt.Sprintf("Margen del %.1f%%, por encima del objetivo habitual.", *f.MarginPct),
				Stars:   2,
			}
		},
	},
}

// Evaluate fires every matching rule, deduplicates by title and returns the
// top 5 sorted by (severity desc, stars desc).
func Evaluate(f Facts) []domain.Insight {
	var fired []domain.Insight
	seen := make(map[string]bool)

	for _, r := range rules {
		if !r.when(f) {
			continue
		}
		ins := r.build(f)
		if seen[ins.Title] {
			continue
		}
		seen[ins.Title] = true
		fired = append(fired, ins)
	}

	sort.SliceStable(fired, func(i, j int) bool {
		pi, pj := insightPriority[fired[i].Type], insightPriority[fired[j].Type]
		if pi != pj {
			return pi > pj
		}
		return fired[i].Stars > fired[j].Stars
	})

	if len(fired) > 5 {
		fired = fired[:5]
	}
	return fired
}

// sizeImbalance fires when a single size holds most of the stock while
// contributing almost none of the sales.
func sizeImbalance(f Facts) bool {
	if len(f.Sizes) < 2 {
		return false
	}
	size, stockShare := dominantStockSize(f)
	if size == "" || stockShare < 0.6 {
		return false
	}

	totalUnits := 0.0
	for _, sf := range f.Sizes {
		if sf.Units > 0 {
			totalUnits += sf.Units
		}
	}
	if totalUnits <= 0 {
		return false
	}

	return f.Sizes[size].Units/totalUnits <= 0.1
}

// dominantStockSize returns the size holding the largest stock share.
// Iteration order does not matter: ties break on the lower size token.
func dominantStockSize(f Facts) (string, float64) {
	totalStock := 0.0
	for _, sf := range f.Sizes {
		if sf.OnHand > 0 {
			totalStock += sf.OnHand
		}
	}
	if totalStock <= 0 {
		return "", 0
	}

	var best string
	var bestStock float64
	for size, sf := range f.Sizes {
		if sf.OnHand > bestStock || (sf.OnHand == bestStock && (best == "" || size < best)) {
			best = size
			bestStock = sf.OnHand
		}
	}
	return best, bestStock / totalStock
}
