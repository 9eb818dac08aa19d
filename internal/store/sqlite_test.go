package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "exposure.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestExposureRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set := exposure.NewSet(geo.CRS{Code: 32617})
	a1 := &exposure.Asset{
		ObjectID:          1,
		Name:              "house",
		Geom:              geom.NewPointFlat(geom.XY, []float64{10, 20}),
		PrimaryType:       "residential",
		SecondaryType:     "RES1",
		Extract:           exposure.ExtractCentroid,
		GroundFloorHeight: 1.5,
		GroundElevation:   4.2,
	}
	a1.SetMaxDamage("structure", 1000)
	a1.SetDamageFunc("structure", "res_1")
	a1.SetAggregation("census_block", "B1")
	require.NoError(t, set.Add(a1))

	a2 := &exposure.Asset{ObjectID: 2, PrimaryType: "commercial", Extract: exposure.ExtractArea}
	a2.SetDamageFunc("content", "com_1_content")
	require.NoError(t, set.Add(a2))

	require.NoError(t, st.SaveExposure(ctx, set))

	got, err := st.LoadExposure(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 32617, got.CRS.Code)

	g1, ok := got.Get(1)
	require.True(t, ok)
	assert.Equal(t, "house", g1.Name)
	assert.Equal(t, "RES1", g1.SecondaryType)
	assert.Equal(t, 1.5, g1.GroundFloorHeight)
	assert.Equal(t, 4.2, g1.GroundElevation)
	assert.Equal(t, 1000.0, g1.MaxDamage["structure"])
	assert.Equal(t, "res_1", g1.DamageFunc["structure"])
	assert.Equal(t, "B1", g1.Aggregation["census_block"])
	require.NotNil(t, g1.Geom)
	c := geo.Centroid(g1.Geom)
	assert.Equal(t, 10.0, c[0])
	assert.Equal(t, 20.0, c[1])

	g2, _ := got.Get(2)
	_, hasDamage := g2.MaxDamage["content"]
	assert.False(t, hasDamage, "null max damage survives the round trip")
	assert.Equal(t, "com_1_content", g2.DamageFunc["content"])
	assert.Nil(t, g2.Geom)
}

func TestSaveExposureReplaces(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, set.Add(&exposure.Asset{ObjectID: 1}))
	require.NoError(t, st.SaveExposure(ctx, set))

	set2 := exposure.NewSet(geo.CRS{Code: 32617})
	require.NoError(t, set2.Add(&exposure.Asset{ObjectID: 7}))
	require.NoError(t, st.SaveExposure(ctx, set2))

	got, err := st.LoadExposure(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	_, ok := got.Get(7)
	assert.True(t, ok)
}

func TestSaveCurves(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	reg := vulnerability.NewRegistry()
	reg.Add(&vulnerability.Curve{ID: "res_1", Points: []vulnerability.Point{
		{Depth: 0, Factor: 0}, {Depth: 4, Factor: 1},
	}})
	require.NoError(t, st.SaveCurves(ctx, reg))

	got, err := st.LoadCurves(ctx)
	require.NoError(t, err)
	c, ok := got.Get("res_1")
	require.True(t, ok)
	require.Len(t, c.Points, 2)
	assert.InDelta(t, 0.5, c.Value(2), 1e-9)
}
