package exposure

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// Selection names a subset of assets for a measure such as floodproofing or
// raising. At most one criterion may be set; an empty selection means all.
type Selection struct {
	ObjectIDs   []int64
	PrimaryType string
	// Aggregation selects assets carrying Value under the Name label.
	Aggregation struct {
		Name  string
		Value string
	}
	// Area selects assets whose geometry intersects a polygon, given in the
	// set's CRS.
	Area geom.T
}

// Select resolves a selection to concrete assets, in set order.
func (s *Set) Select(sel Selection) ([]*Asset, error) {
	switch {
	case len(sel.ObjectIDs) > 0:
		out := make([]*Asset, 0, len(sel.ObjectIDs))
		for _, id := range sel.ObjectIDs {
			a, ok := s.Get(id)
			if !ok {
				return nil, eris.Errorf("exposure: unknown object_id %d in selection", id)
			}
			out = append(out, a)
		}
		return out, nil

	case sel.PrimaryType != "":
		var out []*Asset
		for _, a := range s.assets {
			if a.PrimaryType == sel.PrimaryType {
				out = append(out, a)
			}
		}
		return out, nil

	case sel.Aggregation.Name != "":
		var out []*Asset
		for _, a := range s.assets {
			if a.Aggregation[sel.Aggregation.Name] == sel.Aggregation.Value {
				out = append(out, a)
			}
		}
		return out, nil

	case sel.Area != nil:
		var out []*Asset
		for _, a := range s.assets {
			if !geo.BoundsOverlap(a.Geom.Bounds(), sel.Area.Bounds()) {
				continue
			}
			hit, err := geo.Intersects(a.Geom, sel.Area)
			if err != nil {
				return nil, err
			}
			if hit {
				out = append(out, a)
			}
		}
		return out, nil

	default:
		return s.assets, nil
	}
}
