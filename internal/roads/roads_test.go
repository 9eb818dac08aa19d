package roads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/units"
)

// roadSet holds two straight segments of 100 m and 250 m in a projected CRS.
func roadSet(t *testing.T) *exposure.Set {
	t.Helper()
	s := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID:    1,
		Geom:        geom.NewLineStringFlat(geom.XY, []float64{0, 0, 100, 0}),
		PrimaryType: "road",
		Lanes:       2,
	}))
	require.NoError(t, s.Add(&exposure.Asset{
		ObjectID:    2,
		Geom:        geom.NewLineStringFlat(geom.XY, []float64{0, 100, 0, 350}),
		PrimaryType: "road",
	}))
	return s
}

func TestComputeLengthsMeters(t *testing.T) {
	s := roadSet(t)
	require.NoError(t, ComputeLengths(s, units.Meters))

	a1, _ := s.Get(1)
	assert.InDelta(t, 100, a1.SegmentLength, 1e-6)
	a2, _ := s.Get(2)
	assert.InDelta(t, 250, a2.SegmentLength, 1e-6)
	assert.True(t, s.HasColumn(exposure.ColSegmentLength))
}

func TestComputeLengthsFeet(t *testing.T) {
	s := roadSet(t)
	require.NoError(t, ComputeLengths(s, units.Feet))

	a1, _ := s.Get(1)
	assert.InDelta(t, 100*units.MetersToFeet, a1.SegmentLength, 1e-4)
}

func TestAssignDamageByLanes(t *testing.T) {
	s := roadSet(t)
	require.NoError(t, ComputeLengths(s, units.Meters))

	require.NoError(t, AssignDamage(s, Options{
		LaneCosts: map[int]float64{1: 10, 2: 18, 4: 30},
		ModelUnit: units.Meters,
	}))

	a1, _ := s.Get(1)
	assert.InDelta(t, 18*100, a1.MaxDamage["structure"], 1e-6)
	// Missing lane count defaults to one lane.
	a2, _ := s.Get(2)
	assert.InDelta(t, 10*250, a2.MaxDamage["structure"], 1e-6)
}

func TestAssignDamageClampsLanes(t *testing.T) {
	s := roadSet(t)
	a1, _ := s.Get(1)
	a1.Lanes = 3 // between table entries: clamps down to 2
	a2, _ := s.Get(2)
	a2.Lanes = 9 // above the table: clamps to 4
	require.NoError(t, ComputeLengths(s, units.Meters))

	require.NoError(t, AssignDamage(s, Options{
		LaneCosts: map[int]float64{1: 10, 2: 18, 4: 30},
		ModelUnit: units.Meters,
	}))

	assert.InDelta(t, 18*100, a1.MaxDamage["structure"], 1e-6)
	assert.InDelta(t, 30*250, a2.MaxDamage["structure"], 1e-6)
}

func TestAssignDamageLegacyUnitFactor(t *testing.T) {
	s := roadSet(t)
	require.NoError(t, ComputeLengths(s, units.Feet))

	require.NoError(t, AssignDamage(s, Options{
		LaneCosts:    map[int]float64{1: 10, 2: 18},
		ModelUnit:    units.Feet,
		MetricSource: true,
	}))

	a1, _ := s.Get(1)
	want := 18 * 100 * units.MetersToFeet * units.FeetPerMeterLegacy
	assert.InDelta(t, want, a1.MaxDamage["structure"], 1e-3)
}

func TestAssignDamageConstant(t *testing.T) {
	s := roadSet(t)
	c := 4200.0
	require.NoError(t, AssignDamage(s, Options{Constant: &c}))

	for _, a := range s.Assets() {
		assert.Equal(t, 4200.0, a.MaxDamage["structure"])
	}
}

func TestAssignDamageNoSourceLeavesNull(t *testing.T) {
	s := roadSet(t)
	require.NoError(t, AssignDamage(s, Options{}))

	a1, _ := s.Get(1)
	_, ok := a1.MaxDamage["structure"]
	assert.False(t, ok)
}

func TestAssignDamageRequiresLengths(t *testing.T) {
	s := roadSet(t)
	err := AssignDamage(s, Options{LaneCosts: map[int]float64{1: 10}})
	assert.ErrorIs(t, err, exposure.ErrMissingColumn)
}
