// Package stages implements the 15 information-gathering stages named in
// spec.md §4.4, each a side-effect-free function over a Runner that never
// throws out of Execute — unexpected errors become StageResult.Errors
// instead, per the uniform failure policy in spec.md §4.4.
package stages

import (
	"context"

	"github.com/reconctl/reconctl/internal/model"
)

// Stage is the generic per-stage contract, per spec.md §4.4.
type Stage interface {
	Name() string
	Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult
}

// sortedUnique returns the sorted, deduplicated union of ss, satisfying the
// fingerprint invariant in spec.md §8 ("sorted(F) == F", "|F| == |set(F)|").
func sortedUnique(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	insertionSort(out)
	return out
}

func insertionSort(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
