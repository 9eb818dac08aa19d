package exposure

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// ConvertToCentroids replaces every polygon asset's geometry with its centroid
// point and switches its extraction method to centroid. The replaced
// footprints are returned keyed by object id so callers can keep them as a
// companion layer. Point and line assets are untouched.
func (s *Set) ConvertToCentroids() map[int64]geom.T {
	footprints := make(map[int64]geom.T)
	for _, a := range s.assets {
		if geo.KindOf(a.Geom) != geo.KindPolygon {
			continue
		}
		footprints[a.ObjectID] = a.Geom
		c := geo.Centroid(a.Geom)
		a.Geom = geom.NewPointFlat(geom.XY, []float64{c.X(), c.Y()})
		a.Extract = ExtractCentroid
	}
	if len(footprints) > 0 {
		zap.L().Info("footprints converted to centroids", zap.Int("count", len(footprints)))
	}
	return footprints
}
