package damage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

func square(x, y, side float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y, x + side, y, x + side, y + side, x, y + side, x, y,
	}, []int{10})
}

// newBuildingSet returns two 10x10 m footprints, residential and commercial,
// in a projected CRS so areas are exact.
func newBuildingSet(t *testing.T) *exposure.Set {
	t.Helper()
	s := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID: 1, Geom: square(0, 0, 10), PrimaryType: "Residential",
	}))
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID: 2, Geom: square(100, 0, 10), PrimaryType: "commercial",
	}))
	s.MarkColumn(exposure.ColObjectID, exposure.ColPrimaryType)
	return s
}

func worldJRC(t *testing.T, toUSD bool) *JRC {
	t.Helper()
	j, err := newJRC([]jrcRow{
		{Country: "World", Residential: 1000, Commercial: 2000, Industrial: 1500},
	}, "World", toUSD)
	require.NoError(t, err)
	return j
}

func TestConstant(t *testing.T) {
	s := newBuildingSet(t)
	require.NoError(t, Assign(s, []Step{{DamageType: "structure", Source: Constant{Value: 5000}}}))

	for _, a := range s.Assets() {
		assert.Equal(t, 5000.0, a.MaxDamage["structure"])
	}
	assert.True(t, s.HasColumn(exposure.MaxDamageColumn("structure")))
}

func TestJRCStructureAndContent(t *testing.T) {
	s := newBuildingSet(t)
	j := worldJRC(t, false)

	require.NoError(t, Assign(s, []Step{
		{DamageType: "structure", Source: j},
		{DamageType: "content", Source: j},
	}))

	// Residential: 1000 * 0.6 * (1 - 0.4) = 360 per m2, footprint 100 m2.
	a1, _ := s.Get(1)
	assert.InDelta(t, 36000, a1.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 18000, a1.MaxDamage["content"], 1e-6, "content is half of structure for residential")

	// Commercial: 2000 * 0.36 = 720 per m2, content ratio 1.0.
	a2, _ := s.Get(2)
	assert.InDelta(t, 72000, a2.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 72000, a2.MaxDamage["content"], 1e-6)
}

func TestJRCCurrencyConversion(t *testing.T) {
	s := newBuildingSet(t)
	j := worldJRC(t, true)

	require.NoError(t, Assign(s, []Step{{DamageType: "structure", Source: j}}))

	a1, _ := s.Get(1)
	assert.InDelta(t, 36000*EURToUSD2010, a1.MaxDamage["structure"], 1e-6)
}

func TestJRCCountryFallsBackToWorld(t *testing.T) {
	j, err := newJRC([]jrcRow{
		{Country: "World", Residential: 1000},
		{Country: "Netherlands", Residential: 1600},
	}, "NETHERLANDS", false)
	require.NoError(t, err)
	v, ok := j.perUnit("residential", "structure")
	require.True(t, ok)
	assert.InDelta(t, 1600*0.36, v, 1e-9, "country lookup is case-insensitive")

	_, err = newJRC([]jrcRow{{Country: "Netherlands", Residential: 1600}}, "Nowhere", false)
	assert.ErrorContains(t, err, "World fallback")
}

func TestJRCIdempotent(t *testing.T) {
	s := newBuildingSet(t)
	j := worldJRC(t, false)
	steps := []Step{{DamageType: "structure", Source: j}}

	require.NoError(t, Assign(s, steps))
	a1, _ := s.Get(1)
	first := a1.MaxDamage["structure"]

	require.NoError(t, Assign(s, steps))
	assert.Equal(t, first, a1.MaxDamage["structure"])
}

func TestJRCUnknownTypeLeftNull(t *testing.T) {
	s := newBuildingSet(t)
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID: 3, Geom: square(200, 0, 10), PrimaryType: "agricultural",
	}))

	require.NoError(t, Assign(s, []Step{{DamageType: "structure", Source: worldJRC(t, false)}}))

	a3, _ := s.Get(3)
	_, ok := a3.MaxDamage["structure"]
	assert.False(t, ok, "unmapped type stays null")
}

func TestHAZUSContentPercent(t *testing.T) {
	s := newBuildingSet(t)
	a1, _ := s.Get(1)
	a1.SecondaryType = "RES1"
	a2, _ := s.Get(2)
	a2.SecondaryType = "COM1"

	h, err := newHAZUS([]hazusRow{
		{Occupancy: "res1", StructureCost: 100, ContentPercent: 50},
		{Occupancy: "com1", StructureCost: 90, ContentPercent: 100},
	})
	require.NoError(t, err)

	require.NoError(t, Assign(s, []Step{
		{DamageType: "structure", Source: h},
		{DamageType: "content", Source: h},
	}))

	assert.InDelta(t, 10000, a1.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 5000, a1.MaxDamage["content"], 1e-6)
	assert.InDelta(t, 9000, a2.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 9000, a2.MaxDamage["content"], 1e-6)
}

func TestTranslationBroadcast(t *testing.T) {
	s := newBuildingSet(t)
	tr := NewTranslation(map[string]float64{"residential": 12, "commercial": 20})

	require.NoError(t, Assign(s, []Step{
		{DamageType: "structure", Source: tr},
		{DamageType: "content", Source: tr},
	}))

	a1, _ := s.Get(1)
	assert.InDelta(t, 1200, a1.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 1200, a1.MaxDamage["content"], 1e-6, "translation broadcasts the same value per type")
}

func TestFileJoinLeavesUnmatchedNull(t *testing.T) {
	s := newBuildingSet(t)
	layer := &source.FeatureSet{
		Name: "values",
		CRS:  s.CRS,
		Features: []source.Feature{
			{Geom: geom.NewPointFlat(geom.XY, []float64{5, 5}), Attrs: map[string]string{"value": "4321"}},
		},
	}

	require.NoError(t, Assign(s, []Step{{
		DamageType: "structure",
		Source:     FileJoin{Layer: layer, Attr: "value", Method: join.Nearest},
	}}))

	a1, _ := s.Get(1)
	assert.Equal(t, 4321.0, a1.MaxDamage["structure"])
	a2, _ := s.Get(2)
	_, ok := a2.MaxDamage["structure"]
	assert.False(t, ok)
}

func TestNilSourcesRequireTable(t *testing.T) {
	s := newBuildingSet(t)

	err := Assign(s, []Step{{DamageType: "structure"}})
	assert.ErrorIs(t, err, ErrTableRequired)

	var j *JRC
	assert.ErrorIs(t, Assign(s, []Step{{DamageType: "structure", Source: j}}), ErrTableRequired)

	var h *HAZUS
	assert.ErrorIs(t, Assign(s, []Step{{DamageType: "structure", Source: h}}), ErrTableRequired)

	var tr *Translation
	assert.ErrorIs(t, Assign(s, []Step{{DamageType: "structure", Source: tr}}), ErrTableRequired)
}

func TestPointAssetsGetZeroArea(t *testing.T) {
	s := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID: 1, Geom: geom.NewPointFlat(geom.XY, []float64{0, 0}), PrimaryType: "residential",
	}))
	s.MarkColumn(exposure.ColPrimaryType)

	require.NoError(t, Assign(s, []Step{{DamageType: "structure", Source: worldJRC(t, false)}}))

	a, _ := s.Get(1)
	assert.Equal(t, 0.0, a.MaxDamage["structure"])
}

func TestPerUnitRequiresClassification(t *testing.T) {
	s := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, s.Add(&exposure.Asset{ObjectID: 1, Geom: square(0, 0, 10)}))

	err := Assign(s, []Step{{DamageType: "structure", Source: worldJRC(t, false)}})
	require.ErrorIs(t, err, exposure.ErrMissingColumn)
	assert.ErrorContains(t, err, exposure.ColPrimaryType)
}
