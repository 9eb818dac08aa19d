package vulnerability

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/source"
)

// Registry holds every curve the exposure set can reference by id.
type Registry struct {
	curves map[string]*Curve
}

// NewRegistry returns an empty curve registry.
func NewRegistry() *Registry {
	return &Registry{curves: map[string]*Curve{}}
}

// Add registers a curve, replacing any existing curve with the same id.
func (r *Registry) Add(c *Curve) {
	r.curves[c.ID] = c
}

// Get looks a curve up by id.
func (r *Registry) Get(id string) (*Curve, bool) {
	c, ok := r.curves[id]
	return c, ok
}

// Has reports whether an id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.curves[id]
	return ok
}

// IDs returns the registered curve ids, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.curves))
	for id := range r.curves {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadCurves reads a wide-format curve table: the first column is water
// depth, every other column a curve whose id is the column header.
func LoadCurves(path string) (*Registry, error) {
	t, err := source.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.Header) < 2 {
		return nil, eris.Errorf("vulnerability: curve table %s needs a depth column and at least one curve", path)
	}

	reg := NewRegistry()
	for col := 1; col < len(t.Header); col++ {
		c := &Curve{ID: t.Header[col]}
		for i, row := range t.Rows {
			if col >= len(row) || row[col] == "" {
				continue
			}
			depth, err := strconv.ParseFloat(row[0], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "vulnerability: curve table %s row %d depth", path, i+2)
			}
			factor, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "vulnerability: curve table %s row %d column %s", path, i+2, c.ID)
			}
			c.Points = append(c.Points, Point{Depth: depth, Factor: factor})
		}
		sort.Slice(c.Points, func(i, j int) bool { return c.Points[i].Depth < c.Points[j].Depth })
		reg.Add(c)
	}
	return reg, nil
}

// Rows flattens the registry back to the wide format LoadCurves reads: a
// depth column followed by one column per curve, sampled on the union of all
// point depths.
func (r *Registry) Rows() (header []string, rows [][]string) {
	ids := r.IDs()
	depthSet := map[float64]struct{}{}
	for _, id := range ids {
		for _, p := range r.curves[id].Points {
			depthSet[p.Depth] = struct{}{}
		}
	}
	depths := make([]float64, 0, len(depthSet))
	for d := range depthSet {
		depths = append(depths, d)
	}
	sort.Float64s(depths)

	header = append([]string{"depth"}, ids...)
	for _, d := range depths {
		row := []string{strconv.FormatFloat(d, 'f', -1, 64)}
		for _, id := range ids {
			row = append(row, strconv.FormatFloat(r.curves[id].Value(d), 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	return header, rows
}
