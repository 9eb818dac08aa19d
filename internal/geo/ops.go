package geo

import (
	"math"

	sf "github.com/peterstace/simplefeatures/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Kind is the broad geometry class used to select join strategies.
type Kind int

const (
	KindUnknown Kind = iota
	KindPoint
	KindLine
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// KindOf classifies a geometry.
func KindOf(g geom.T) Kind {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return KindPoint
	case *geom.LineString, *geom.MultiLineString:
		return KindLine
	case *geom.Polygon, *geom.MultiPolygon:
		return KindPolygon
	default:
		return KindUnknown
	}
}

// LargestPolygon reduces a multi-part polygon to its single largest sub-polygon
// so that every table row keeps exactly one geometry. Other geometry types are
// returned unchanged.
func LargestPolygon(g geom.T) geom.T {
	mp, ok := g.(*geom.MultiPolygon)
	if !ok || mp.NumPolygons() == 0 {
		return g
	}
	best := mp.Polygon(0)
	bestArea := math.Abs(best.Area())
	for i := 1; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if a := math.Abs(p.Area()); a > bestArea {
			best, bestArea = p, a
		}
	}
	return best
}

// Centroid returns the planar centroid of a geometry. Polygons use the
// area-weighted centroid of the outer ring, lines the length-weighted midpoint
// of their segments, points themselves.
func Centroid(g geom.T) geom.Coord {
	switch t := g.(type) {
	case *geom.Point:
		return geom.Coord{t.X(), t.Y()}
	case *geom.MultiPoint:
		return flatMean(t.FlatCoords(), t.Stride())
	case *geom.LineString:
		return lineCentroid(t.FlatCoords(), t.Stride())
	case *geom.MultiLineString:
		return lineCentroid(t.FlatCoords(), t.Stride())
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return geom.Coord{0, 0}
		}
		return ringCentroid(t.LinearRing(0))
	case *geom.MultiPolygon:
		p, ok := LargestPolygon(t).(*geom.Polygon)
		if !ok || p.NumLinearRings() == 0 {
			return geom.Coord{0, 0}
		}
		return ringCentroid(p.LinearRing(0))
	default:
		return flatMean(g.FlatCoords(), g.Stride())
	}
}

func flatMean(flat []float64, stride int) geom.Coord {
	if len(flat) < stride {
		return geom.Coord{0, 0}
	}
	var sx, sy float64
	n := 0
	for i := 0; i+1 < len(flat); i += stride {
		sx += flat[i]
		sy += flat[i+1]
		n++
	}
	return geom.Coord{sx / float64(n), sy / float64(n)}
}

func lineCentroid(flat []float64, stride int) geom.Coord {
	var sx, sy, total float64
	for i := stride; i+1 < len(flat); i += stride {
		x0, y0 := flat[i-stride], flat[i-stride+1]
		x1, y1 := flat[i], flat[i+1]
		seg := math.Hypot(x1-x0, y1-y0)
		sx += (x0 + x1) / 2 * seg
		sy += (y0 + y1) / 2 * seg
		total += seg
	}
	if total == 0 {
		return flatMean(flat, stride)
	}
	return geom.Coord{sx / total, sy / total}
}

func ringCentroid(ring *geom.LinearRing) geom.Coord {
	flat := ring.FlatCoords()
	stride := ring.Stride()
	var a, cx, cy float64
	for i := stride; i+1 < len(flat); i += stride {
		x0, y0 := flat[i-stride], flat[i-stride+1]
		x1, y1 := flat[i], flat[i+1]
		cross := x0*y1 - x1*y0
		a += cross
		cx += (x0 + x1) * cross
		cy += (y0 + y1) * cross
	}
	if a == 0 {
		return flatMean(flat, stride)
	}
	return geom.Coord{cx / (3 * a), cy / (3 * a)}
}

// ProjectedArea returns the area of a geometry in square meters (or square
// model units for an already-projected CRS). Geographic data is reprojected to
// the nearest UTM zone first. Points and lines have zero area.
func ProjectedArea(g geom.T, crs CRS) (float64, error) {
	if KindOf(g) != KindPolygon {
		return 0, nil
	}
	if crs.IsZero() {
		return 0, ErrCRSMissing
	}
	if crs.IsGeographic() {
		utm := UTMForBounds(g.Bounds())
		pg, err := Reproject(g, crs, utm)
		if err != nil {
			return 0, err
		}
		g = pg
	}
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(t.Area()), nil
	case *geom.MultiPolygon:
		return math.Abs(t.Area()), nil
	}
	return 0, nil
}

// ProjectedLength returns the length of a linear geometry, reprojecting
// geographic data to the nearest UTM zone first.
func ProjectedLength(g geom.T, crs CRS) (float64, error) {
	if crs.IsZero() {
		return 0, ErrCRSMissing
	}
	if crs.IsGeographic() {
		utm := UTMForBounds(g.Bounds())
		pg, err := Reproject(g, crs, utm)
		if err != nil {
			return 0, err
		}
		g = pg
	}
	switch t := g.(type) {
	case *geom.LineString:
		return t.Length(), nil
	case *geom.MultiLineString:
		return t.Length(), nil
	default:
		return 0, nil
	}
}

// IntersectionArea returns the area of the overlap between two polygonal
// geometries, zero when they do not overlap.
func IntersectionArea(a, b geom.T) (float64, error) {
	sa, err := toSimple(a)
	if err != nil {
		return 0, err
	}
	sb, err := toSimple(b)
	if err != nil {
		return 0, err
	}
	inter, err := sf.Intersection(sa, sb)
	if err != nil {
		return 0, eris.Wrap(err, "geo: intersection")
	}
	return inter.Area(), nil
}

// Intersects reports whether two geometries share any point.
func Intersects(a, b geom.T) (bool, error) {
	sa, err := toSimple(a)
	if err != nil {
		return false, err
	}
	sb, err := toSimple(b)
	if err != nil {
		return false, err
	}
	return sf.Intersects(sa, sb), nil
}

// ContainsCoord reports whether a polygonal geometry contains a coordinate,
// boundary inclusive.
func ContainsCoord(g geom.T, c geom.Coord) (bool, error) {
	return Intersects(g, geom.NewPointFlat(geom.XY, []float64{c[0], c[1]}))
}

// toSimple bridges a go-geom geometry into simplefeatures via WKB, which is
// the only encoding both libraries share.
func toSimple(g geom.T) (sf.Geometry, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return sf.Geometry{}, eris.Wrap(err, "geo: encode wkb")
	}
	sg, err := sf.UnmarshalWKB(data)
	if err != nil {
		return sf.Geometry{}, eris.Wrap(err, "geo: decode wkb")
	}
	return sg, nil
}

// BoundsOverlap reports whether two bounding boxes overlap. Used to prune
// candidate pairs before exact intersection tests.
func BoundsOverlap(a, b *geom.Bounds) bool {
	return a.Min(0) <= b.Max(0) && b.Min(0) <= a.Max(0) &&
		a.Min(1) <= b.Max(1) && b.Min(1) <= a.Max(1)
}
