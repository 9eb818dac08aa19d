// Package geo provides coordinate reference system handling and planar
// geometry operations for the exposure pipeline.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrCRSMissing signals that a geometry set has no coordinate reference
// system. Joins and area computations refuse to proceed without one.
var ErrCRSMissing = eris.New("geo: coordinate reference system missing")

// ErrCRSUnsupported signals a reprojection between CRS pairs this package
// cannot transform.
var ErrCRSUnsupported = eris.New("geo: unsupported reprojection")

// CRS identifies a coordinate reference system by EPSG code.
// The zero value means "missing".
type CRS struct {
	Code int
}

// EPSG returns the CRS for an EPSG code.
func EPSG(code int) CRS { return CRS{Code: code} }

// WGS84 is the geographic WGS 84 CRS (EPSG:4326).
var WGS84 = EPSG(4326)

// IsZero reports whether the CRS is missing.
func (c CRS) IsZero() bool { return c.Code == 0 }

// IsGeographic reports whether coordinates are degrees rather than planar units.
func (c CRS) IsGeographic() bool {
	return c.Code == 4326 || c.Code == 4269 || c.Code == 4258
}

func (c CRS) String() string {
	if c.IsZero() {
		return "missing"
	}
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// ParseCRS parses "EPSG:4326" or a bare numeric code.
func ParseCRS(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CRS{}, ErrCRSMissing
	}
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		s = s[idx+1:]
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return CRS{}, eris.Wrapf(err, "geo: parse crs %q", s)
	}
	return CRS{Code: code}, nil
}

// utmZone decomposes a WGS 84 UTM EPSG code (326xx north, 327xx south).
func (c CRS) utmZone() (zone int, north bool, ok bool) {
	switch {
	case c.Code > 32600 && c.Code <= 32660:
		return c.Code - 32600, true, true
	case c.Code > 32700 && c.Code <= 32760:
		return c.Code - 32700, false, true
	default:
		return 0, false, false
	}
}

// UTMFor returns the WGS 84 UTM CRS covering the given geographic coordinate.
func UTMFor(lon, lat float64) CRS {
	zone := int(math.Floor((lon+180)/6))%60 + 1
	if lat >= 0 {
		return EPSG(32600 + zone)
	}
	return EPSG(32700 + zone)
}

// UTMForBounds returns the UTM CRS covering the center of a geographic bounds.
func UTMForBounds(b *geom.Bounds) CRS {
	lon := (b.Min(0) + b.Max(0)) / 2
	lat := (b.Min(1) + b.Max(1)) / 2
	return UTMFor(lon, lat)
}

// Reproject transforms a geometry between coordinate reference systems.
// Supported transforms are identity, WGS 84 <-> UTM, and UTM <-> UTM (routed
// through WGS 84). The input geometry is never mutated.
func Reproject(g geom.T, from, to CRS) (geom.T, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrCRSMissing
	}
	if from == to {
		return cloneT(g), nil
	}

	if from == WGS84 {
		if zone, north, ok := to.utmZone(); ok {
			return transform(g, func(x, y float64) (float64, float64) {
				return utmForward(x, y, zone, north)
			}), nil
		}
	}
	if to == WGS84 {
		if zone, north, ok := from.utmZone(); ok {
			return transform(g, func(x, y float64) (float64, float64) {
				return utmInverse(x, y, zone, north)
			}), nil
		}
	}
	if _, _, fromUTM := from.utmZone(); fromUTM {
		if _, _, toUTM := to.utmZone(); toUTM {
			mid, err := Reproject(g, from, WGS84)
			if err != nil {
				return nil, err
			}
			return Reproject(mid, WGS84, to)
		}
	}
	return nil, eris.Wrapf(ErrCRSUnsupported, "from %s to %s", from, to)
}

// WGS 84 ellipsoid.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1 / 298.257223563
	utmK0   = 0.9996
	utmE0   = 500000.0
	utmN0S  = 10000000.0
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// utmForward converts geographic degrees to UTM easting/northing using the
// standard transverse Mercator series expansion.
func utmForward(lon, lat float64, zone int, north bool) (float64, float64) {
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180
	lam0 := float64(zone*6-183) * math.Pi / 180

	e2 := wgs84E2
	ep2 := e2 / (1 - e2)
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := math.Tan(phi) * math.Tan(phi)
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lam - lam0)

	m := meridianArc(phi)

	a2, a3 := a*a, a*a*a
	a4, a5, a6 := a2*a2, a2*a3, a3*a3

	x := utmK0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + utmE0
	y := utmK0 * (m + n*math.Tan(phi)*(a2/2+(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if !north {
		y += utmN0S
	}
	return x, y
}

// utmInverse converts UTM easting/northing back to geographic degrees.
func utmInverse(x, y float64, zone int, north bool) (float64, float64) {
	e2 := wgs84E2
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	lam0 := float64(zone*6-183) * math.Pi / 180

	if !north {
		y -= utmN0S
	}
	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
	c1 := ep2 * cos1 * cos1
	t1 := math.Tan(phi1) * math.Tan(phi1)
	n1 := wgs84A / math.Sqrt(1-e2*sin1*sin1)
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sin1*sin1, 1.5)
	d := (x - utmE0) / (n1 * utmK0)

	d2, d3 := d*d, d*d*d
	d4, d5, d6 := d2*d2, d2*d3, d3*d3

	phi := phi1 - (n1*math.Tan(phi1)/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lam := lam0 + (d-(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cos1

	return lam * 180 / math.Pi, phi * 180 / math.Pi
}

// meridianArc is the ellipsoidal arc length from the equator to latitude phi.
func meridianArc(phi float64) float64 {
	e2 := wgs84E2
	e4 := e2 * e2
	e6 := e4 * e2
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// transform applies a coordinate mapping to a copy of g.
func transform(g geom.T, f func(x, y float64) (float64, float64)) geom.T {
	out := cloneT(g)
	flat := out.FlatCoords()
	stride := out.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		flat[i], flat[i+1] = f(flat[i], flat[i+1])
	}
	return out
}

func cloneT(g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.Point:
		return t.Clone()
	case *geom.MultiPoint:
		return t.Clone()
	case *geom.LineString:
		return t.Clone()
	case *geom.MultiLineString:
		return t.Clone()
	case *geom.Polygon:
		return t.Clone()
	case *geom.MultiPolygon:
		return t.Clone()
	default:
		return g
	}
}
