package cli

import (
	"maps"
	"slices"
	"strings"

	"github.com/getmockd/routeset/pkg/endpoint"
)

// formatValues renders values as "k=v" pairs sorted by key, or "-".
func formatValues(v endpoint.Values) string {
	if len(v) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(v))
	for _, k := range slices.Sorted(maps.Keys(v)) {
		pairs = append(pairs, k+"="+v.String(k))
	}
	return strings.Join(pairs, " ")
}
