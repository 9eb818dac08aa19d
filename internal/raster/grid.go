// Package raster provides an in-memory numeric grid with the sampling and
// zonal operations the elevation assigner needs.
package raster

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// Grid is a regular gridded numeric layer (a DEM) in a known CRS. Values are
// stored row-major starting at the top-left cell, the ASCII grid convention.
type Grid struct {
	CRS      geo.CRS
	Cols     int
	Rows     int
	XMin     float64 // left edge
	YMin     float64 // bottom edge
	CellSize float64
	NoData   float64
	Values   []float64
}

// cell returns the column/row containing an x/y coordinate.
func (g *Grid) cell(x, y float64) (int, int, bool) {
	col := int(math.Floor((x - g.XMin) / g.CellSize))
	row := int(math.Floor((g.yMax() - y) / g.CellSize))
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return 0, 0, false
	}
	return col, row, true
}

func (g *Grid) yMax() float64 { return g.YMin + float64(g.Rows)*g.CellSize }

// Sample returns the grid value at a coordinate. The second return is false
// outside the grid or on a nodata cell.
func (g *Grid) Sample(x, y float64) (float64, bool) {
	col, row, ok := g.cell(x, y)
	if !ok {
		return 0, false
	}
	v := g.Values[row*g.Cols+col]
	if v == g.NoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ZonalMean averages the values of all cells whose centers fall inside a
// polygonal geometry. The second return is false when no valid cell center is
// covered, in which case the caller falls back to a centroid sample.
func (g *Grid) ZonalMean(poly geom.T) (float64, bool) {
	b := poly.Bounds()

	colMin := int(math.Floor((b.Min(0) - g.XMin) / g.CellSize))
	colMax := int(math.Ceil((b.Max(0) - g.XMin) / g.CellSize))
	rowMin := int(math.Floor((g.yMax() - b.Max(1)) / g.CellSize))
	rowMax := int(math.Ceil((g.yMax() - b.Min(1)) / g.CellSize))

	colMin, colMax = clamp(colMin, 0, g.Cols), clamp(colMax, 0, g.Cols)
	rowMin, rowMax = clamp(rowMin, 0, g.Rows), clamp(rowMax, 0, g.Rows)

	var sum float64
	var n int
	for row := rowMin; row < rowMax; row++ {
		cy := g.yMax() - (float64(row)+0.5)*g.CellSize
		for col := colMin; col < colMax; col++ {
			cx := g.XMin + (float64(col)+0.5)*g.CellSize
			v := g.Values[row*g.Cols+col]
			if v == g.NoData || math.IsNaN(v) {
				continue
			}
			inside, err := geo.ContainsCoord(poly, geom.Coord{cx, cy})
			if err != nil || !inside {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
