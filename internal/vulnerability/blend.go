package vulnerability

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/exposure"
)

// Blend builds a composite curve for one damage type as the
// occurrence-count-weighted average of every curve currently in use by the
// set: blended(depth) = sum(curve_i(depth) * count_i) / sum(count_i),
// sampled on the union of the constituent curves' depths.
func Blend(id string, s *exposure.Set, reg *Registry, damageType string) (*Curve, error) {
	counts := map[string]int{}
	for _, a := range s.Assets() {
		if curveID, ok := a.DamageFunc[damageType]; ok && curveID != "" {
			counts[curveID]++
		}
	}
	if len(counts) == 0 {
		return nil, eris.Errorf("vulnerability: no curves in use for damage type %s", damageType)
	}

	depthSet := map[float64]struct{}{}
	var total int
	for curveID, n := range counts {
		c, ok := reg.Get(curveID)
		if !ok {
			return nil, eris.Errorf("vulnerability: curve %q in use but not registered", curveID)
		}
		for _, p := range c.Points {
			depthSet[p.Depth] = struct{}{}
		}
		total += n
	}
	depths := make([]float64, 0, len(depthSet))
	for d := range depthSet {
		depths = append(depths, d)
	}
	sort.Float64s(depths)

	blended := &Curve{ID: id, Points: make([]Point, 0, len(depths))}
	for _, d := range depths {
		var sum float64
		for curveID, n := range counts {
			c, _ := reg.Get(curveID)
			sum += c.Value(d) * float64(n)
		}
		blended.Points = append(blended.Points, Point{Depth: d, Factor: sum / float64(total)})
	}
	return blended, nil
}
