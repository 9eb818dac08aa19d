package source

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/raster"
)

// ReadASCIIGrid reads an Esri ASCII grid (.asc) into a raster.Grid. The
// format carries no CRS of its own, so the caller supplies one.
func ReadASCIIGrid(path string, crs geo.CRS) (*raster.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open grid %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)

	g := &raster.Grid{CRS: crs, NoData: -9999}
	var xCenter, yCenter bool

	// Header lines are "key value" pairs; the first non-header line starts
	// the data block.
	var data []float64
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(data) == 0 && len(fields) == 2 {
			key := strings.ToLower(fields[0])
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, eris.Wrapf(err, "source: grid header %q in %s", key, path)
				}
				switch key {
				case "ncols":
					g.Cols = int(v)
				case "nrows":
					g.Rows = int(v)
				case "xllcorner":
					g.XMin = v
				case "yllcorner":
					g.YMin = v
				case "xllcenter":
					g.XMin, xCenter = v, true
				case "yllcenter":
					g.YMin, yCenter = v, true
				case "cellsize":
					g.CellSize = v
				case "nodata_value":
					g.NoData = v
				default:
					return nil, eris.Errorf("source: unknown grid header %q in %s", key, path)
				}
				continue
			}
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "source: grid value in %s", path)
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: read grid %s", path)
	}

	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, eris.Errorf("source: grid %s missing ncols/nrows/cellsize", path)
	}
	if len(data) != g.Cols*g.Rows {
		return nil, eris.Errorf("source: grid %s has %d values, want %d", path, len(data), g.Cols*g.Rows)
	}
	// Center-anchored origins shift to the lower-left corner convention.
	if xCenter {
		g.XMin -= g.CellSize / 2
	}
	if yCenter {
		g.YMin -= g.CellSize / 2
	}
	g.Values = data
	return g, nil
}
