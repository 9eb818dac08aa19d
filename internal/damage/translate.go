package damage

import (
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/source"
)

// Translation maps primary object types to per-unit damage values, broadcast
// identically across whatever damage types it is assigned to.
type Translation struct {
	values map[string]float64
}

// NewTranslation builds a translation source from an in-memory mapping.
func NewTranslation(values map[string]float64) *Translation {
	fold := cases.Fold()
	folded := make(map[string]float64, len(values))
	for k, v := range values {
		folded[fold.String(k)] = v
	}
	return &Translation{values: folded}
}

// LoadTranslation reads a CSV or XLSX table and maps the named object type
// column to the named value column.
func LoadTranslation(path, typeCol, valueCol string) (*Translation, error) {
	t, err := source.ReadTable(path)
	if err != nil {
		return nil, err
	}
	ti := t.Column(typeCol)
	if ti < 0 {
		return nil, eris.Errorf("damage: translation table %s has no column %q", path, typeCol)
	}
	vi := t.Column(valueCol)
	if vi < 0 {
		return nil, eris.Errorf("damage: translation table %s has no column %q", path, valueCol)
	}

	values := make(map[string]float64, len(t.Rows))
	for i, row := range t.Rows {
		if ti >= len(row) || vi >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[vi], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "damage: translation table %s row %d", path, i+2)
		}
		values[row[ti]] = v
	}
	if len(values) == 0 {
		return nil, eris.Wrapf(ErrTableRequired, "translation table %s", path)
	}
	return NewTranslation(values), nil
}

func (t *Translation) assign(s *exposure.Set, damageType string) error {
	if t == nil || len(t.values) == 0 {
		return eris.Wrap(ErrTableRequired, "translation")
	}
	fold := cases.Fold()
	return assignPerUnit(s, damageType, func(a *exposure.Asset) (float64, bool) {
		v, ok := t.values[fold.String(a.PrimaryType)]
		return v, ok
	})
}
