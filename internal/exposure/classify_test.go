package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/source"
)

func zonePolygon(x, y, side float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y, x + side, y, x + side, y + side, x, y + side, x, y,
	}, []int{10})
}

func occupancyLayer() *source.FeatureSet {
	return &source.FeatureSet{
		Name: "landuse",
		CRS:  utmCRS(),
		Features: []source.Feature{
			{Geom: zonePolygon(0, -50, 200), Attrs: map[string]string{
				"primary": "residential", "secondary": "single family",
			}},
			{Geom: zonePolygon(200, -50, 200), Attrs: map[string]string{
				"primary": "commercial", "secondary": "retail",
			}},
		},
	}
}

func TestClassify(t *testing.T) {
	s := newTestSet(t, 4) // points at x = 100, 200, 300, 400
	for _, a := range s.Assets() {
		a.PrimaryType = ""
	}

	err := s.Classify(occupancyLayer(), ClassifyOptions{
		PrimaryAttr:      "primary",
		SecondaryAttr:    "secondary",
		KeepUnclassified: true,
	})
	require.NoError(t, err)

	a1, _ := s.Get(1)
	assert.Equal(t, "residential", a1.PrimaryType)
	assert.Equal(t, "single family", a1.SecondaryType)

	a3, _ := s.Get(3)
	assert.Equal(t, "commercial", a3.PrimaryType)
	assert.Equal(t, "retail", a3.SecondaryType)

	// The point at x=400 falls outside both zones and is reclassified.
	a4, _ := s.Get(4)
	assert.Equal(t, ReclassifiedType, a4.PrimaryType)
	assert.Equal(t, ReclassifiedType, a4.SecondaryType)

	assert.True(t, s.HasColumn(ColPrimaryType))
	assert.True(t, s.HasColumn(ColSecondaryType))
}

func TestClassifyDropsUnmatched(t *testing.T) {
	s := newTestSet(t, 4)
	for _, a := range s.Assets() {
		a.PrimaryType = ""
	}

	err := s.Classify(occupancyLayer(), ClassifyOptions{PrimaryAttr: "primary"})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	_, ok := s.Get(4)
	assert.False(t, ok)
}

func TestClassifySecondaryDefaultsToPrimary(t *testing.T) {
	s := newTestSet(t, 1)
	a, _ := s.Get(1)
	a.PrimaryType = ""

	err := s.Classify(occupancyLayer(), ClassifyOptions{PrimaryAttr: "primary", KeepUnclassified: true})
	require.NoError(t, err)

	assert.Equal(t, "residential", a.PrimaryType)
	assert.Equal(t, "residential", a.SecondaryType)
}
