package vulnerability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
)

func typedSet(t *testing.T, types [][2]string) *exposure.Set {
	t.Helper()
	s := exposure.NewSet(geo.CRS{Code: 32617})
	for i, tt := range types {
		require.NoError(t, s.Add(&exposure.Asset{
			ObjectID:      int64(i + 1),
			Geom:          geom.NewPointFlat(geom.XY, []float64{float64(i), 0}),
			PrimaryType:   tt[0],
			SecondaryType: tt[1],
		}))
	}
	s.MarkColumn(exposure.ColPrimaryType, exposure.ColSecondaryType)
	return s
}

func TestLinkMatchesPrimaryColumn(t *testing.T) {
	s := typedSet(t, [][2]string{
		{"residential", "RES1"},
		{"commercial", "COM1"},
	})
	rows := []LinkRow{
		{ObjectType: "Residential", DamageType: "structure", CurveID: "res_s"},
		{ObjectType: "Residential", DamageType: "content", CurveID: "res_c"},
		{ObjectType: "Commercial", DamageType: "structure", CurveID: "com_s"},
	}

	require.NoError(t, Link(s, rows))

	a1, _ := s.Get(1)
	assert.Equal(t, "res_s", a1.DamageFunc["structure"])
	assert.Equal(t, "res_c", a1.DamageFunc["content"])
	a2, _ := s.Get(2)
	assert.Equal(t, "com_s", a2.DamageFunc["structure"])
	_, ok := a2.DamageFunc["content"]
	assert.False(t, ok)

	assert.True(t, s.HasColumn(exposure.DamageFuncColumn("structure")))
	assert.True(t, s.HasColumn(exposure.DamageFuncColumn("content")))
}

func TestLinkPrefersFullyCoveredSecondary(t *testing.T) {
	// The table speaks HAZUS occupancy classes: only the secondary column
	// is fully covered.
	s := typedSet(t, [][2]string{
		{"residential", "RES1"},
		{"commercial", "COM1"},
		{"warehouse", "COM2"},
	})
	rows := []LinkRow{
		{ObjectType: "RES1", DamageType: "structure", CurveID: "r1"},
		{ObjectType: "COM1", DamageType: "structure", CurveID: "c1"},
		{ObjectType: "COM2", DamageType: "structure", CurveID: "c2"},
		{ObjectType: "residential", DamageType: "structure", CurveID: "wrong"},
	}

	require.NoError(t, Link(s, rows))

	a3, _ := s.Get(3)
	assert.Equal(t, "c2", a3.DamageFunc["structure"])
	a1, _ := s.Get(1)
	assert.Equal(t, "r1", a1.DamageFunc["structure"])
}

func TestLinkUnmatchedLeftNull(t *testing.T) {
	s := typedSet(t, [][2]string{
		{"residential", ""},
		{"agricultural", ""},
	})
	rows := []LinkRow{{ObjectType: "residential", DamageType: "structure", CurveID: "r"}}

	require.NoError(t, Link(s, rows))

	a2, _ := s.Get(2)
	_, ok := a2.DamageFunc["structure"]
	assert.False(t, ok)
}

func TestLinkRequiresClassification(t *testing.T) {
	s := exposure.NewSet(geo.CRS{Code: 32617})
	err := Link(s, []LinkRow{{ObjectType: "residential", DamageType: "structure", CurveID: "r"}})
	assert.ErrorIs(t, err, exposure.ErrMissingColumn)
}
