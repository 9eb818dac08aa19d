// Package vulnerability manages depth-damage curves: loading them, linking
// them to assets by object type, and deriving variants (floodproofed
// truncations, occurrence-weighted blends).
package vulnerability

import (
	"sort"
	"strconv"
	"strings"
)

// Point is one sample of a depth-damage curve: the damage fraction incurred
// at a given water depth.
type Point struct {
	Depth  float64
	Factor float64
}

// Curve is a piecewise-linear depth-damage function. Points are ordered by
// depth; evaluation clamps outside the sampled range.
type Curve struct {
	ID     string
	Points []Point
}

// stepRise is the depth interval over which a step curve ramps from 0 to 1.
const stepRise = 0.01

// NewStep builds a step function: no damage below the threshold depth, full
// damage at and above it, rising over a negligible interval so the curve
// stays single-valued.
func NewStep(id string, threshold float64) *Curve {
	return &Curve{ID: id, Points: []Point{
		{Depth: threshold, Factor: 0},
		{Depth: threshold + stepRise, Factor: 1},
	}}
}

// Value evaluates the curve at a depth with linear interpolation.
func (c *Curve) Value(depth float64) float64 {
	pts := c.Points
	if len(pts) == 0 {
		return 0
	}
	if depth <= pts[0].Depth {
		return pts[0].Factor
	}
	if depth >= pts[len(pts)-1].Depth {
		return pts[len(pts)-1].Factor
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Depth >= depth })
	lo, hi := pts[i-1], pts[i]
	if hi.Depth == lo.Depth {
		return hi.Factor
	}
	frac := (depth - lo.Depth) / (hi.Depth - lo.Depth)
	return lo.Factor + frac*(hi.Factor-lo.Factor)
}

// Clone returns an independent copy under a new id.
func (c *Curve) Clone(id string) *Curve {
	pts := make([]Point, len(c.Points))
	copy(pts, c.Points)
	return &Curve{ID: id, Points: pts}
}

// Truncate returns a floodproofed variant: zero damage up to the given
// depth, the original shape above it. The curve resumes over the same short
// rise a step function uses, so the cut stays sharp without double-valued
// depths.
func (c *Curve) Truncate(depth float64) *Curve {
	out := &Curve{ID: TruncatedID(c.ID, depth)}
	for _, p := range c.Points {
		if p.Depth < depth {
			out.Points = append(out.Points, Point{Depth: p.Depth, Factor: 0})
		}
	}
	resume := depth + stepRise
	out.Points = append(out.Points,
		Point{Depth: depth, Factor: 0},
		Point{Depth: resume, Factor: c.Value(resume)},
	)
	for _, p := range c.Points {
		if p.Depth > resume {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// TruncatedID names a floodproofed curve variant: `<id>_fp_<depth>` with the
// decimal dot replaced by an underscore.
func TruncatedID(id string, depth float64) string {
	v := strings.ReplaceAll(strconv.FormatFloat(depth, 'f', -1, 64), ".", "_")
	return id + "_fp_" + v
}
