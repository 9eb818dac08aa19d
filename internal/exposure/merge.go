package exposure

import (
	"strconv"

	"go.uber.org/zap"
)

// Column is a freshly joined attribute aligned to the set by object id. A
// missing key is a null cell: the join found no match for that asset.
type Column map[int64]string

// FoldString overwrites a target string field with joined values wherever the
// join produced one, leaving other rows untouched. It returns the number of
// rows updated. This makes successive refinement of a column idempotent: a
// second fold of the same source changes nothing.
func (s *Set) FoldString(col Column, apply func(a *Asset, v string)) int {
	var n int
	for _, a := range s.assets {
		v, ok := col[a.ObjectID]
		if !ok || v == "" {
			continue
		}
		apply(a, v)
		n++
	}
	return n
}

// FoldFloat is FoldString for numeric columns. Joined values that do not
// parse are logged and treated as null.
func (s *Set) FoldFloat(col Column, apply func(a *Asset, v float64)) int {
	var n int
	var bad int
	for _, a := range s.assets {
		raw, ok := col[a.ObjectID]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			bad++
			continue
		}
		apply(a, v)
		n++
	}
	if bad > 0 {
		zap.L().Warn("joined values did not parse as numbers, treated as null",
			zap.Int("count", bad))
	}
	return n
}
