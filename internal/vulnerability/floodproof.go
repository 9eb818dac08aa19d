package vulnerability

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
)

// Floodproof registers truncated variants of the curves a selection of
// assets currently uses, and repoints only those assets to them. Each
// distinct curve in use is truncated once; assets outside the selection keep
// the original curves.
func Floodproof(s *exposure.Set, reg *Registry, sel exposure.Selection, damageTypes []string, depth float64) error {
	for _, dt := range damageTypes {
		if err := s.RequireColumns(exposure.DamageFuncColumn(dt)); err != nil {
			return err
		}
	}

	assets, err := s.Select(sel)
	if err != nil {
		return err
	}

	var repointed int
	truncated := map[string]struct{}{}
	for _, a := range assets {
		for _, dt := range damageTypes {
			id, ok := a.DamageFunc[dt]
			if !ok || id == "" {
				continue
			}
			newID := TruncatedID(id, depth)
			if _, done := truncated[id]; !done {
				orig, ok := reg.Get(id)
				if !ok {
					return eris.Errorf("vulnerability: curve %q in use but not registered", id)
				}
				if !reg.Has(newID) {
					reg.Add(orig.Truncate(depth))
				}
				truncated[id] = struct{}{}
			}
			a.SetDamageFunc(dt, newID)
			repointed++
		}
	}

	zap.L().Info("floodproofing applied",
		zap.Float64("depth", depth),
		zap.Int("curves", len(truncated)),
		zap.Int("assignments", repointed))
	return nil
}
