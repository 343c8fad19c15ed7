package semaphore

import (
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
)

// Override is a partial configuration scoped to one supplier or category.
// Nil fields inherit from the next level down.
type Override struct {
	WindowDays           *int
	ReorderThresholdDays *float64
}

// Overrides holds the per-supplier and per-category threshold overrides.
// Resolution order is supplier > category > default.
type Overrides struct {
	Supplier map[string]Override
	Category map[string]Override
}

// Resolve returns the effective config for a product. Invalid override values
// fall back to the level below and are reported as warnings; thresholds are
// never silently wrong.
func (o Overrides) Resolve(def Config, supplier, category string) (Config, []error) {
	cfg := def
	var warnings []error

	apply := func(scope, key string, ov Override) {
		if ov.WindowDays != nil {
			if *ov.WindowDays <= 0 {
				warnings = append(warnings, &domain.ConfigError{
					Scope: scope, Key: key, Reason: "window_days must be positive",
				})
			} else {
				cfg.WindowDays = *ov.WindowDays
			}
		}
		if ov.ReorderThresholdDays != nil {
			if *ov.ReorderThresholdDays < 0 {
				warnings = append(warnings, &domain.ConfigError{
					Scope: scope, Key: key, Reason: "reorder_threshold_days must not be negative",
				})
			} else {
				cfg.ReorderThresholdDays = *ov.ReorderThresholdDays
			}
		}
	}

	if category != "" {
		if ov, ok := o.Category[category]; ok {
			apply("category", category, ov)
		}
	}
	if supplier != "" {
		if ov, ok := o.Supplier[supplier]; ok {
			apply("supplier", supplier, ov)
		}
	}

	return cfg, warnings
}
