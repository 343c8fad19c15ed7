// Package metrics holds the pure KPI calculators. Every function accepts and
// may return nil: nil means "no data" and must never be rendered as zero.
// All null-propagating arithmetic funnels through SafeDivide so that no ad hoc
// fallback can silently turn "unknown" into "zero".
package metrics

import "math"

// DefaultTaxMultiplier converts a raw purchase cost into cost with tax.
const DefaultTaxMultiplier = 1.22

// Some wraps a float64 into an optional value.
func Some(v float64) *float64 {
	return &v
}

// SafeDivide returns n/d, or nil when either operand is nil, d is zero, or the
// result would not be finite. It never returns NaN or Inf.
func SafeDivide(n, d *float64) *float64 {
	if n == nil || d == nil || *d == 0 {
		return nil
	}

	v := *n / *d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return Some(v)
}

// ASP is average selling price: revenue / units sold.
func ASP(revenue, unitsSold *float64) *float64 {
	return SafeDivide(revenue, unitsSold)
}

// CostWithTax applies the configured tax multiplier to a raw unit cost.
func CostWithTax(rawCost *float64, taxMultiplier float64) *float64 {
	if rawCost == nil {
		return nil
	}
	if taxMultiplier <= 0 {
		taxMultiplier = DefaultTaxMultiplier
	}
	return Some(*rawCost * taxMultiplier)
}

// MarginPct is (ASP - costWithTax) / ASP * 100.
func MarginPct(asp, costWithTax *float64) *float64 {
	if asp == nil || costWithTax == nil {
		return nil
	}

	diff := *asp - *costWithTax
	pct := SafeDivide(&diff, asp)
	if pct == nil {
		return nil
	}
	return Some(*pct * 100)
}

// MarkupPct is (ASP - costWithTax) / costWithTax * 100.
func MarkupPct(asp, costWithTax *float64) *float64 {
	if asp == nil || costWithTax == nil {
		return nil
	}

	diff := *asp - *costWithTax
	pct := SafeDivide(&diff, costWithTax)
	if pct == nil {
		return nil
	}
	return Some(*pct * 100)
}

// SellThroughPct is unitsSold / (unitsSold + stockOnHand) * 100.
func SellThroughPct(unitsSold, stockOnHand *float64) *float64 {
	if unitsSold == nil || stockOnHand == nil {
		return nil
	}

	total := *unitsSold + *stockOnHand
	pct := SafeDivide(unitsSold, &total)
	if pct == nil {
		return nil
	}
	return Some(*pct * 100)
}

// DaysOfStock is stockOnHand / pace (units per day).
func DaysOfStock(stockOnHand, pace *float64) *float64 {
	return SafeDivide(stockOnHand, pace)
}

// Pace is unitsSold / windowDays, the average daily sales over a window.
func Pace(unitsSold *float64, windowDays float64) *float64 {
	if windowDays <= 0 {
		return nil
	}
	return SafeDivide(unitsSold, Some(windowDays))
}
