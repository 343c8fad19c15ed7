// Package resolver canonicalizes product/size identifiers across fact sources
// that share no foreign key. Base codes come in different lengths per source
// (13 chars in some, 15 in others) and purchase codes append size/color
// segments with no delimiter, so matching is strictly prefix-based against the
// known base code.
package resolver

import (
	"sort"
	"strconv"
	"strings"
)

// ResolveSize extracts the size token from fullCode given the product's base
// code. The base code length is stripped from the front; a non-empty remainder
// is the size token. Resolution fails when fullCode does not start with
// baseCode or carries no remainder.
func ResolveSize(fullCode, baseCode string) (string, bool) {
	if baseCode == "" || len(fullCode) <= len(baseCode) {
		return "", false
	}
	if !strings.HasPrefix(fullCode, baseCode) {
		return "", false
	}

	token := strings.TrimSpace(fullCode[len(baseCode):])
	if token == "" {
		return "", false
	}

	return token, true
}

// CompareSizeTokens orders size tokens with the mixed comparator: numeric
// tokens sort numerically ascending and come before all non-numeric tokens,
// which sort lexically among themselves.
func CompareSizeTokens(a, b string) bool {
	na, aNum := parseNumeric(a)
	nb, bNum := parseNumeric(b)

	switch {
	case aNum && bNum:
		if na != nb {
			return na < nb
		}
		// Stable ordering for numerically equal tokens ("06" vs "6")
		return a < b
	case aNum:
		return true
	case bNum:
		return false
	default:
		return a < b
	}
}

// SortSizeTokens sorts tokens in place using CompareSizeTokens. Sorting an
// already-sorted list returns it unchanged.
func SortSizeTokens(tokens []string) {
	sort.SliceStable(tokens, func(i, j int) bool {
		return CompareSizeTokens(tokens[i], tokens[j])
	})
}

func parseNumeric(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
