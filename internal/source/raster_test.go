package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodscope/exposure-cli/internal/geo"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dem.asc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadASCIIGrid(t *testing.T) {
	path := writeGrid(t, `ncols 3
nrows 2
xllcorner 100
yllcorner 200
cellsize 10
NODATA_value -1
1 2 3
4 -1 6
`)

	g, err := ReadASCIIGrid(path, geo.CRS{Code: 32617})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 100.0, g.XMin)
	assert.Equal(t, 200.0, g.YMin)
	assert.Equal(t, 10.0, g.CellSize)
	assert.Equal(t, -1.0, g.NoData)
	assert.Equal(t, []float64{1, 2, 3, 4, -1, 6}, g.Values)

	// First data row is the top of the grid.
	v, ok := g.Sample(105, 215)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = g.Sample(115, 205)
	assert.False(t, ok, "nodata cell")
}

func TestReadASCIIGridCenterOrigin(t *testing.T) {
	path := writeGrid(t, `ncols 1
nrows 1
xllcenter 5
yllcenter 5
cellsize 10
42
`)

	g, err := ReadASCIIGrid(path, geo.WGS84)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.XMin)
	assert.Equal(t, 0.0, g.YMin)
}

func TestReadASCIIGridValueCountMismatch(t *testing.T) {
	path := writeGrid(t, `ncols 2
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
1 2 3
`)

	_, err := ReadASCIIGrid(path, geo.WGS84)
	assert.ErrorContains(t, err, "3 values, want 4")
}
