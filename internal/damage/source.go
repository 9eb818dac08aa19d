package damage

import (
	"sort"

	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

// Constant assigns one value to every asset.
type Constant struct {
	Value float64
}

func (c Constant) assign(s *exposure.Set, damageType string) error {
	for _, a := range s.Assets() {
		a.SetMaxDamage(damageType, c.Value)
	}
	return nil
}

// FileJoin assigns values from a reference layer via a spatial join. Assets
// the join does not reach keep a null cell.
type FileJoin struct {
	Layer       *source.FeatureSet
	Attr        string
	Method      join.Method
	MaxDistance float64
}

func (f FileJoin) assign(s *exposure.Set, damageType string) error {
	primaries := make([]join.Primary, 0, s.Len())
	for _, a := range s.Assets() {
		primaries = append(primaries, join.Primary{ID: a.ObjectID, Geom: a.Geom})
	}
	col, err := join.Attribute(primaries, s.CRS, f.Layer, join.Options{
		Method:      f.Method,
		Attr:        f.Attr,
		MaxDistance: f.MaxDistance,
	})
	if err != nil {
		return err
	}
	n := s.FoldFloat(exposure.Column(col), func(a *exposure.Asset, v float64) {
		a.SetMaxDamage(damageType, v)
	})
	zap.L().Info("damage values joined from layer",
		zap.String("layer", f.Layer.Name),
		zap.String("type", damageType),
		zap.Int("assigned", n))
	return nil
}

// assignPerUnit multiplies a per-unit cost by each asset's footprint area,
// computed in a local projected CRS (points get zero area). Object types the
// lookup cannot resolve are logged and left null.
func assignPerUnit(s *exposure.Set, damageType string, lookup func(a *exposure.Asset) (float64, bool)) error {
	if err := s.RequireColumns(exposure.ColPrimaryType); err != nil {
		return err
	}

	missing := map[string]struct{}{}
	var skipped int
	for _, a := range s.Assets() {
		perUnit, ok := lookup(a)
		if !ok {
			missing[a.PrimaryType] = struct{}{}
			skipped++
			continue
		}
		area, err := geo.ProjectedArea(a.Geom, s.CRS)
		if err != nil {
			return err
		}
		a.SetMaxDamage(damageType, perUnit*area)
	}
	if skipped > 0 {
		zap.L().Warn("object types without a damage value, left null",
			zap.String("type", damageType),
			zap.Int("assets", skipped),
			zap.Strings("object_types", keys(missing)))
	}
	return nil
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
