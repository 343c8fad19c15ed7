package domain

import "strings"

// StoreClass partitions stores for the redistribution heuristics. Classes are
// mutually exclusive and derived from name/id patterns; the dimension source
// carries no explicit classification column.
type StoreClass string

const (
	StoreCentral StoreClass = "central"
	StoreRegular StoreClass = "regular"
	StoreWeb     StoreClass = "web"
	StoreOutlet  StoreClass = "outlet-saldos"
)

var centralStoreIDs = map[string]bool{
	"00": true,
	"0":  true,
}

// ClassifyStore derives the store class from its id and name. First match
// wins: central, then web, then outlet, everything else is a regular store.
func ClassifyStore(id, name string) StoreClass {
	lower := strings.ToLower(name)

	switch {
	case centralStoreIDs[id], strings.Contains(lower, "central"), strings.Contains(lower, "almacen"), strings.Contains(lower, "almacén"):
		return StoreCentral
	case strings.Contains(lower, "web"), strings.Contains(lower, "online"), strings.Contains(lower, "ecommerce"):
		return StoreWeb
	case strings.Contains(lower, "outlet"), strings.Contains(lower, "saldos"):
		return StoreOutlet
	default:
		return StoreRegular
	}
}

// IsCentral reports whether the store holds central warehouse stock.
func (s Store) IsCentral() bool {
	return s.Class == StoreCentral
}

// EligibleForRedistribution reports whether the store participates in the
// needs/excess partitioning. Central and outlet locations are excluded: central
// stock is the transfer origin and outlet stock is end-of-life.
func (s Store) EligibleForRedistribution() bool {
	return s.Class == StoreRegular || s.Class == StoreWeb
}
