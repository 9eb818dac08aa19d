// Package join transfers one attribute from a reference layer onto a primary
// set of geometries. Output cardinality always equals the primary input's:
// every primary id appears at most once, and ids with no match are simply
// absent from the result.
package join

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/source"
)

// Method selects the spatial predicate.
type Method string

const (
	// Nearest matches each primary's representative point to the closest
	// reference feature within a maximum distance.
	Nearest Method = "nearest"
	// Intersection matches polygons by largest shared area and points by
	// first containing polygon.
	Intersection Method = "intersection"
)

// ErrMethodUnsupported reports a join method that does not apply to the
// geometry types at hand.
var ErrMethodUnsupported = eris.New("join: method unsupported")

// DefaultMaxDistance bounds nearest joins, in units of the primary CRS.
const DefaultMaxDistance = 10.0

// Primary is one row of the primary side of a join.
type Primary struct {
	ID   int64
	Geom geom.T
}

// Options configure a single attribute transfer.
type Options struct {
	Method Method
	// Attr names the reference attribute to transfer.
	Attr string
	// MaxDistance bounds nearest matches; zero means DefaultMaxDistance.
	MaxDistance float64
}

// Attribute joins one reference attribute onto the primaries. The reference
// layer is reprojected to the primary CRS when they differ; both layers must
// declare a CRS. Multi-part reference polygons are reduced to their largest
// part first.
func Attribute(primaries []Primary, crs geo.CRS, ref *source.FeatureSet, opts Options) (map[int64]string, error) {
	if crs.Code == 0 {
		return nil, eris.Wrap(geo.ErrCRSMissing, "join: primary layer")
	}
	if ref.CRS.Code == 0 {
		return nil, eris.Wrapf(geo.ErrCRSMissing, "join: layer %s", ref.Name)
	}

	refGeoms := make([]geom.T, len(ref.Features))
	for i, f := range ref.Features {
		g := geo.LargestPolygon(f.Geom)
		if ref.CRS != crs {
			rg, err := geo.Reproject(g, ref.CRS, crs)
			if err != nil {
				return nil, eris.Wrapf(err, "join: reproject layer %s", ref.Name)
			}
			g = rg
		}
		refGeoms[i] = g
	}
	if ref.CRS != crs {
		zap.L().Warn("reference layer reprojected to match exposure",
			zap.String("layer", ref.Name),
			zap.Int("from", ref.CRS.Code),
			zap.Int("to", crs.Code))
	}

	switch opts.Method {
	case Nearest:
		maxDist := opts.MaxDistance
		if maxDist <= 0 {
			maxDist = DefaultMaxDistance
		}
		return nearest(primaries, ref, refGeoms, opts.Attr, maxDist), nil
	case Intersection:
		return intersection(primaries, ref, refGeoms, opts.Attr)
	default:
		return nil, eris.Wrapf(ErrMethodUnsupported, "%q", opts.Method)
	}
}

// nearest matches representative points within maxDist using a uniform grid
// of cell size maxDist, so only the 3x3 neighborhood needs scanning.
func nearest(primaries []Primary, ref *source.FeatureSet, refGeoms []geom.T, attr string, maxDist float64) map[int64]string {
	type cell struct{ x, y int }
	grid := map[cell][]int{}
	refPts := make([]geom.Coord, len(refGeoms))
	for i, g := range refGeoms {
		c := geo.Centroid(g)
		refPts[i] = c
		k := cell{int(math.Floor(c[0] / maxDist)), int(math.Floor(c[1] / maxDist))}
		grid[k] = append(grid[k], i)
	}

	out := make(map[int64]string, len(primaries))
	for _, p := range primaries {
		c := geo.Centroid(p.Geom)
		cx, cy := int(math.Floor(c[0]/maxDist)), int(math.Floor(c[1]/maxDist))

		best := -1
		bestDist := maxDist
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, i := range grid[cell{cx + dx, cy + dy}] {
					d := math.Hypot(refPts[i][0]-c[0], refPts[i][1]-c[1])
					if d < bestDist || (d == bestDist && best == -1) {
						best, bestDist = i, d
					}
				}
			}
		}
		if best < 0 {
			continue
		}
		if v, ok := ref.Features[best].String(attr); ok {
			out[p.ID] = v
		}
	}
	return out
}

// intersection matches polygon primaries to the reference polygon sharing the
// largest area, and point primaries to the first containing polygon. On equal
// areas the earlier reference feature wins.
func intersection(primaries []Primary, ref *source.FeatureSet, refGeoms []geom.T, attr string) (map[int64]string, error) {
	out := make(map[int64]string, len(primaries))
	for _, p := range primaries {
		kind := geo.KindOf(p.Geom)
		pb := p.Geom.Bounds()

		best := -1
		switch kind {
		case geo.KindPolygon:
			var bestArea float64
			for i, g := range refGeoms {
				if geo.KindOf(g) != geo.KindPolygon || !geo.BoundsOverlap(pb, g.Bounds()) {
					continue
				}
				area, err := geo.IntersectionArea(p.Geom, g)
				if err != nil {
					return nil, err
				}
				if area > bestArea {
					best, bestArea = i, area
				}
			}

		case geo.KindPoint:
			c := geo.Centroid(p.Geom)
			for i, g := range refGeoms {
				if geo.KindOf(g) != geo.KindPolygon || !geo.BoundsOverlap(pb, g.Bounds()) {
					continue
				}
				inside, err := geo.ContainsCoord(g, c)
				if err != nil {
					return nil, err
				}
				if inside {
					best = i
					break
				}
			}

		default:
			return nil, eris.Wrapf(ErrMethodUnsupported, "intersection join for %s primaries", kind)
		}

		if best < 0 {
			continue
		}
		if v, ok := ref.Features[best].String(attr); ok {
			out[p.ID] = v
		}
	}
	return out, nil
}
