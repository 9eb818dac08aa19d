package growth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/source"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

func square(x, y, side float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y, x + side, y, x + side, y + side, x, y + side, x, y,
	}, []int{10})
}

// threeBuildings holds structure damages 100, 200, 300.
func threeBuildings(t *testing.T) (*exposure.Set, *vulnerability.Registry) {
	t.Helper()
	s := exposure.NewSet(geo.CRS{Code: 32617})
	for i, dmg := range []float64{100, 200, 300} {
		a := &exposure.Asset{
			ObjectID:    int64(i + 1),
			Geom:        square(float64(i)*50, 0, 10),
			PrimaryType: "residential",
		}
		a.SetMaxDamage("structure", dmg)
		a.SetDamageFunc("structure", "res_1")
		require.NoError(t, s.Add(a))
	}
	s.MarkColumn(
		exposure.ColObjectID, exposure.ColPrimaryType,
		exposure.MaxDamageColumn("structure"), exposure.DamageFuncColumn("structure"),
	)

	reg := vulnerability.NewRegistry()
	reg.Add(&vulnerability.Curve{ID: "res_1", Points: []vulnerability.Point{
		{Depth: 0, Factor: 0}, {Depth: 4, Factor: 1},
	}})
	return s, reg
}

func growthAreas(heights ...string) *source.FeatureSet {
	fs := &source.FeatureSet{Name: "growth", CRS: geo.CRS{Code: 32617}}
	for i, h := range heights {
		attrs := map[string]string{}
		if h != "" {
			attrs[heightAttr] = h
		}
		fs.Features = append(fs.Features, source.Feature{
			Geom:  square(1000+float64(i)*200, 0, 100),
			Attrs: attrs,
		})
	}
	return fs
}

func TestApplySplitsDamageByArea(t *testing.T) {
	s, reg := threeBuildings(t)

	err := Apply(s, reg, Options{
		PercentGrowth: 10,
		Areas:         growthAreas("", ""), // two equal polygons
		DamageTypes:   []string{"structure"},
	})
	require.NoError(t, err)
	require.Equal(t, 5, s.Len())

	// 10% of 600 split over two equal areas: 30 each.
	a4, ok := s.Get(4)
	require.True(t, ok, "ids minted above the current maximum")
	a5, _ := s.Get(5)
	assert.InDelta(t, 30, a4.MaxDamage["structure"], 1e-9)
	assert.InDelta(t, 30, a5.MaxDamage["structure"], 1e-9)

	assert.Equal(t, DevelopmentType, a4.PrimaryType)
	assert.Equal(t, exposure.ExtractArea, a4.Extract)
	assert.Equal(t, "composite_structure", a4.DamageFunc["structure"])

	blended, ok := reg.Get("composite_structure")
	require.True(t, ok)
	// All three buildings use res_1, so the blend reproduces it.
	assert.InDelta(t, 0.5, blended.Value(2), 1e-9)
}

func TestApplyUnequalAreas(t *testing.T) {
	s, reg := threeBuildings(t)

	// 100x100 and 100x300: shares 0.25 and 0.75.
	fs := &source.FeatureSet{Name: "growth", CRS: s.CRS, Features: []source.Feature{
		{Geom: square(1000, 0, 100), Attrs: map[string]string{}},
		{Geom: geom.NewPolygonFlat(geom.XY, []float64{
			2000, 0, 2100, 0, 2100, 300, 2000, 300, 2000, 0,
		}, []int{10}), Attrs: map[string]string{}},
	}}

	require.NoError(t, Apply(s, reg, Options{
		PercentGrowth: 20,
		Areas:         fs,
		DamageTypes:   []string{"structure"},
	}))

	a4, _ := s.Get(4)
	a5, _ := s.Get(5)
	total := 0.20 * 600
	assert.InDelta(t, total*0.25, a4.MaxDamage["structure"], 1e-9)
	assert.InDelta(t, total*0.75, a5.MaxDamage["structure"], 1e-9)
	assert.InDelta(t, total, a4.MaxDamage["structure"]+a5.MaxDamage["structure"], 1e-9)
}

func TestApplyDatumHeightNeverLowered(t *testing.T) {
	s, reg := threeBuildings(t)

	require.NoError(t, Apply(s, reg, Options{
		PercentGrowth: 10,
		Areas:         growthAreas("2.5", ""),
		DamageTypes:   []string{"structure"},
		Height:        1.0,
	}))

	a4, _ := s.Get(4)
	assert.InDelta(t, 2.5, a4.GroundFloorHeight, 1e-9, "per-polygon height attribute wins")
	a5, _ := s.Get(5)
	assert.InDelta(t, 1.0, a5.GroundFloorHeight, 1e-9, "uniform fallback height")
}

func TestApplyInheritsAggregationLabels(t *testing.T) {
	s, reg := threeBuildings(t)
	zones := &source.FeatureSet{Name: "blocks", CRS: s.CRS, Features: []source.Feature{
		{Geom: square(900, -100, 500), Attrs: map[string]string{"block": "B7"}},
	}}

	require.NoError(t, Apply(s, reg, Options{
		PercentGrowth: 10,
		Areas:         growthAreas(""),
		DamageTypes:   []string{"structure"},
		Aggregations:  []AggregationLayer{{Name: "census_block", Layer: zones, Attr: "block"}},
	}))

	a4, _ := s.Get(4)
	assert.Equal(t, "B7", a4.Aggregation["census_block"])
	assert.True(t, s.HasColumn(exposure.AggregationColumn("census_block")))
}

func TestApplyRequiresDamageColumns(t *testing.T) {
	s := exposure.NewSet(geo.CRS{Code: 32617})
	err := Apply(s, vulnerability.NewRegistry(), Options{
		PercentGrowth: 10,
		Areas:         growthAreas(""),
		DamageTypes:   []string{"structure"},
	})
	assert.ErrorIs(t, err, exposure.ErrMissingColumn)
}
