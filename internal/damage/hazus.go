package damage

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/source"
)

// hazusRow is one occupancy class of the HAZUS valuation table: a structure
// replacement cost per unit area and the content value as a percentage of it.
type hazusRow struct {
	Occupancy      string  `csv:"occupancy"`
	StructureCost  float64 `csv:"structure_cost"`
	ContentPercent float64 `csv:"content_percent"`
}

// HAZUS resolves per-unit damage values from a HAZUS valuation table, keyed
// by occupancy class.
type HAZUS struct {
	rows map[string]hazusRow
}

// LoadHAZUS reads a HAZUS valuation table from CSV.
func LoadHAZUS(path string) (*HAZUS, error) {
	var rows []hazusRow
	if err := source.DecodeCSV(path, &rows); err != nil {
		return nil, err
	}
	return newHAZUS(rows)
}

func newHAZUS(rows []hazusRow) (*HAZUS, error) {
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrTableRequired, "hazus")
	}
	fold := cases.Fold()
	byOcc := make(map[string]hazusRow, len(rows))
	for _, r := range rows {
		byOcc[fold.String(r.Occupancy)] = r
	}
	return &HAZUS{rows: byOcc}, nil
}

func (h *HAZUS) perUnit(occupancy, damageType string) (float64, bool) {
	row, ok := h.rows[occupancy]
	if !ok {
		return 0, false
	}
	structure := row.StructureCost
	content := structure * row.ContentPercent / 100
	switch damageType {
	case "structure":
		return structure, true
	case "content":
		return content, true
	case "total":
		return structure + content, true
	default:
		return 0, false
	}
}

func (h *HAZUS) assign(s *exposure.Set, damageType string) error {
	if h == nil {
		return eris.Wrap(ErrTableRequired, "hazus")
	}
	fold := cases.Fold()
	// Occupancy classes usually live in the secondary type (e.g. RES1);
	// fall back to the primary when the secondary has no entry.
	return assignPerUnit(s, damageType, func(a *exposure.Asset) (float64, bool) {
		if v, ok := h.perUnit(fold.String(a.SecondaryType), damageType); ok {
			return v, true
		}
		return h.perUnit(fold.String(a.PrimaryType), damageType)
	})
}
