package elevation

import (
	"math"

	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/raster"
)

// ApplyDEM sets ground_elevtn from a digital elevation model. Footprints get
// the mean of the cells they cover; assets that miss every cell fall back to
// a sample at their centroid, then to the value of the nearest asset that
// resolved. Assets left after all fallbacks default to zero with a warning.
func ApplyDEM(s *exposure.Set, dem *raster.Grid) error {
	type resolved struct {
		x, y float64
		v    float64
	}
	var done []resolved
	var pending []*exposure.Asset

	for _, a := range s.Assets() {
		g := a.Geom
		if dem.CRS != s.CRS {
			rg, err := geo.Reproject(g, s.CRS, dem.CRS)
			if err != nil {
				return err
			}
			g = rg
		}
		c := geo.Centroid(g)

		if geo.KindOf(g) == geo.KindPolygon {
			if v, ok := dem.ZonalMean(g); ok {
				a.GroundElevation = v
				done = append(done, resolved{c[0], c[1], v})
				continue
			}
		}
		if v, ok := dem.Sample(c[0], c[1]); ok {
			a.GroundElevation = v
			done = append(done, resolved{c[0], c[1], v})
			continue
		}
		pending = append(pending, a)
	}

	// Unresolved assets copy from the nearest resolved one.
	var defaulted int
	for _, a := range pending {
		if len(done) == 0 {
			a.GroundElevation = 0
			defaulted++
			continue
		}
		g := a.Geom
		if dem.CRS != s.CRS {
			rg, err := geo.Reproject(g, s.CRS, dem.CRS)
			if err != nil {
				return err
			}
			g = rg
		}
		c := geo.Centroid(g)
		best := done[0]
		bestDist := math.Hypot(best.x-c[0], best.y-c[1])
		for _, r := range done[1:] {
			if d := math.Hypot(r.x-c[0], r.y-c[1]); d < bestDist {
				best, bestDist = r, d
			}
		}
		a.GroundElevation = best.v
	}

	if len(pending) > 0 {
		zap.L().Warn("assets outside the elevation model",
			zap.Int("copied_from_nearest", len(pending)-defaulted),
			zap.Int("defaulted_to_zero", defaulted))
	}
	s.MarkColumn(exposure.ColGroundElevation)
	zap.L().Info("ground elevation sampled from dem",
		zap.Int("assets", s.Len()))
	return nil
}
