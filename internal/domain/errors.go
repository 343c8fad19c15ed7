package domain

import (
	"errors"
	"fmt"
)

// ErrAllSourcesUnavailable is the only hard failure surfaced to the caller:
// every fact source was unreachable, so nothing can be assessed.
var ErrAllSourcesUnavailable = errors.New("all fact sources unavailable")

// ErrProductNotFound reports an unknown canonical base code.
var ErrProductNotFound = errors.New("product not found")

// DataFetchError marks one fact source as unavailable. Optional sources
// degrade the affected fields to nil/zero; a required source missing for
// semaphore classification resolves the product to WHITE instead of erroring.
type DataFetchError struct {
	Source string
	Err    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s facts: %v", e.Source, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// ConfigError marks an invalid per-category or per-supplier override. The
// caller falls back to the default configuration and surfaces a warning.
type ConfigError struct {
	Scope  string // "supplier" or "category"
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s override %q: %s", e.Scope, e.Key, e.Reason)
}
