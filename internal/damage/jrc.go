package damage

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/source"
)

// JRC catalog adjustment constants. Construction cost is depreciated, reduced
// by the fraction of a building that water cannot damage, and scaled by the
// share of damageable material.
const (
	jrcCostVsDepreciated = 0.6
	jrcUndamageable      = 0.4
	jrcMaterialUsed      = 1.0

	// EURToUSD2010 converts the catalog's EUR2010 base to USD.
	EURToUSD2010 = 1.327
)

// jrcContentRatio is the content inventory value relative to structure.
var jrcContentRatio = map[string]float64{
	"residential": 0.5,
	"commercial":  1.0,
	"industrial":  1.5,
}

// jrcRow is one country of the JRC construction cost table, values per m2.
type jrcRow struct {
	Country     string  `csv:"country"`
	Residential float64 `csv:"residential"`
	Commercial  float64 `csv:"commercial"`
	Industrial  float64 `csv:"industrial"`
}

// JRC resolves per-unit damage values from the JRC global flood depth-damage
// catalog, keyed by country and occupancy.
type JRC struct {
	row      jrcRow
	currency float64
}

// LoadJRC reads the JRC cost table and selects a country, case-insensitively.
// Unknown countries fall back to the "World" row with a warning. When toUSD
// is set, all values convert from EUR2010 uniformly.
func LoadJRC(path, country string, toUSD bool) (*JRC, error) {
	var rows []jrcRow
	if err := source.DecodeCSV(path, &rows); err != nil {
		return nil, err
	}
	return newJRC(rows, country, toUSD)
}

func newJRC(rows []jrcRow, country string, toUSD bool) (*JRC, error) {
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrTableRequired, "jrc")
	}

	fold := cases.Fold()
	byCountry := make(map[string]jrcRow, len(rows))
	for _, r := range rows {
		byCountry[fold.String(r.Country)] = r
	}

	row, ok := byCountry[fold.String(country)]
	if !ok {
		row, ok = byCountry[fold.String("World")]
		if !ok {
			return nil, eris.Errorf("damage: jrc table has neither %q nor the World fallback", country)
		}
		zap.L().Warn("country not in jrc table, using World values",
			zap.String("country", country))
	}

	currency := 1.0
	if toUSD {
		currency = EURToUSD2010
	}
	return &JRC{row: row, currency: currency}, nil
}

// perUnit returns the JRC per-m2 value for an occupancy and damage type.
func (j *JRC) perUnit(occupancy, damageType string) (float64, bool) {
	var cost float64
	switch occupancy {
	case "residential":
		cost = j.row.Residential
	case "commercial":
		cost = j.row.Commercial
	case "industrial":
		cost = j.row.Industrial
	default:
		return 0, false
	}

	structure := cost * jrcCostVsDepreciated * (1 - jrcUndamageable) * jrcMaterialUsed
	content := structure * jrcContentRatio[occupancy]

	var v float64
	switch damageType {
	case "structure":
		v = structure
	case "content":
		v = content
	case "total":
		v = structure + content
	default:
		return 0, false
	}
	return v * j.currency, true
}

func (j *JRC) assign(s *exposure.Set, damageType string) error {
	if j == nil {
		return eris.Wrap(ErrTableRequired, "jrc")
	}
	fold := cases.Fold()
	return assignPerUnit(s, damageType, func(a *exposure.Asset) (float64, bool) {
		return j.perUnit(fold.String(a.PrimaryType), damageType)
	})
}
