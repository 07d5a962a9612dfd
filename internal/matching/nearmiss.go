package matching

import (
	"cmp"
	"slices"

	"github.com/agnivade/levenshtein"
)

// NearMiss is a route template close to a path that matched nothing.
type NearMiss struct {
	// Index is the template's position in the slice given to NearMisses.
	Index    int
	Template string
	Distance int
}

// NearMisses ranks templates by edit distance to path and returns at most n
// of them. Templates more than half their length away are dropped, so a
// path that resembles nothing gets no suggestions. Empty templates are
// skipped.
func NearMisses(path string, templates []string, n int) []NearMiss {
	if n <= 0 || path == "" {
		return nil
	}

	var out []NearMiss
	for i, tpl := range templates {
		if tpl == "" {
			continue
		}
		d := levenshtein.ComputeDistance(path, tpl)
		if d > max(len(path), len(tpl))/2 {
			continue
		}
		out = append(out, NearMiss{Index: i, Template: tpl, Distance: d})
	}

	slices.SortStableFunc(out, func(a, b NearMiss) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
