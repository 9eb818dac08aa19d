package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/source"
)

func TestApplyAggregationArea(t *testing.T) {
	s := newTestSet(t, 4) // points at x = 100, 200, 300, 400
	zones := &source.FeatureSet{
		Name: "census",
		CRS:  utmCRS(),
		Features: []source.Feature{
			{Geom: zonePolygon(0, -50, 250), Attrs: map[string]string{"tract": "A"}},
			{Geom: zonePolygon(250, -50, 100), Attrs: map[string]string{"tract": "B"}},
		},
	}

	require.NoError(t, s.ApplyAggregationArea("census_tract", zones, "tract"))

	a1, _ := s.Get(1)
	assert.Equal(t, "A", a1.Aggregation["census_tract"])
	a3, _ := s.Get(3)
	assert.Equal(t, "B", a3.Aggregation["census_tract"])

	// The point at x=400 falls outside both zones: null label.
	a4, _ := s.Get(4)
	_, ok := a4.Aggregation["census_tract"]
	assert.False(t, ok)

	assert.True(t, s.HasColumn(AggregationColumn("census_tract")))
}

func TestConvertToCentroids(t *testing.T) {
	s := NewSet(utmCRS())
	require.NoError(t, s.Add(&Asset{
		ObjectID: 1,
		Geom:     zonePolygon(0, 0, 10),
		Extract:  ExtractArea,
	}))
	require.NoError(t, s.Add(&Asset{
		ObjectID: 2,
		Geom:     point(50, 50),
		Extract:  ExtractCentroid,
	}))

	footprints := s.ConvertToCentroids()

	require.Len(t, footprints, 1)
	assert.Contains(t, footprints, int64(1))

	a1, _ := s.Get(1)
	pt, ok := a1.Geom.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, 5.0, pt.X(), 1e-9)
	assert.InDelta(t, 5.0, pt.Y(), 1e-9)
	assert.Equal(t, ExtractCentroid, a1.Extract)

	// Point assets pass through untouched.
	a2, _ := s.Get(2)
	assert.Equal(t, point(50, 50), a2.Geom)
}
