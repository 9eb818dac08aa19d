package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y,
		x + size, y,
		x + size, y + size,
		x, y + size,
		x, y,
	}, []int{10})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPoint, KindOf(geom.NewPointFlat(geom.XY, []float64{0, 0})))
	assert.Equal(t, KindPolygon, KindOf(square(0, 0, 1)))
	assert.Equal(t, KindLine, KindOf(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1})))
}

func TestLargestPolygon(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(0, 0, 1)))
	require.NoError(t, mp.Push(square(10, 10, 5)))
	require.NoError(t, mp.Push(square(100, 100, 2)))

	largest, ok := LargestPolygon(mp).(*geom.Polygon)
	require.True(t, ok)
	assert.InDelta(t, 25.0, largest.Area(), 1e-9)
}

func TestLargestPolygon_PassThrough(t *testing.T) {
	p := square(0, 0, 2)
	assert.Equal(t, geom.T(p), LargestPolygon(p))
}

func TestCentroid(t *testing.T) {
	c := Centroid(square(0, 0, 2))
	assert.InDelta(t, 1.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-9)

	line := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 4, 0})
	c = Centroid(line)
	assert.InDelta(t, 2.0, c[0], 1e-9)
	assert.InDelta(t, 0.0, c[1], 1e-9)
}

func TestIntersectionArea(t *testing.T) {
	a := square(0, 0, 2)
	b := square(1, 1, 2) // overlaps 1x1

	area, err := IntersectionArea(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 1e-9)

	far := square(100, 100, 2)
	area, err = IntersectionArea(a, far)
	require.NoError(t, err)
	assert.Zero(t, area)
}

func TestContainsCoord(t *testing.T) {
	p := square(0, 0, 2)

	in, err := ContainsCoord(p, geom.Coord{1, 1})
	require.NoError(t, err)
	assert.True(t, in)

	out, err := ContainsCoord(p, geom.Coord{5, 5})
	require.NoError(t, err)
	assert.False(t, out)
}

func TestProjectedArea_Geographic(t *testing.T) {
	// Roughly 0.01 x 0.01 degrees near Charleston, about 1km x 1.1km.
	p := geom.NewPolygonFlat(geom.XY, []float64{
		-79.94, 32.78,
		-79.93, 32.78,
		-79.93, 32.79,
		-79.94, 32.79,
		-79.94, 32.78,
	}, []int{10})

	area, err := ProjectedArea(p, WGS84)
	require.NoError(t, err)
	assert.Greater(t, area, 8e5)
	assert.Less(t, area, 1.3e6)
}

func TestProjectedArea_PointIsZero(t *testing.T) {
	area, err := ProjectedArea(geom.NewPointFlat(geom.XY, []float64{0, 0}), WGS84)
	require.NoError(t, err)
	assert.Zero(t, area)
}

func TestProjectedLength_Projected(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 3, 4})
	length, err := ProjectedLength(line, EPSG(32617))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, length, 1e-9)
}

func TestBoundsOverlap(t *testing.T) {
	a := square(0, 0, 2).Bounds()
	b := square(1, 1, 2).Bounds()
	c := square(10, 10, 1).Bounds()

	assert.True(t, BoundsOverlap(a, b))
	assert.False(t, BoundsOverlap(a, c))
}
