package vulnerability

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/source"
)

// LinkRow maps an object type and damage type to a curve id.
type LinkRow struct {
	ObjectType string `csv:"object_type"`
	DamageType string `csv:"damage_type"`
	CurveID    string `csv:"curve_id"`
}

// LoadLinkTable reads a linking table from CSV.
func LoadLinkTable(path string) ([]LinkRow, error) {
	var rows []LinkRow
	if err := source.DecodeCSV(path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Link assigns fn_damage_<type> per asset from a linking table, each damage
// type independently. The matching column — primary or secondary object
// type — is the one whose distinct values overlap the table's object types
// best; a column fully covered by the table wins outright, and ties favor
// the primary. Assets whose type is not in the table keep a null curve id;
// their count and distinct values are logged.
func Link(s *exposure.Set, rows []LinkRow) error {
	if err := s.RequireColumns(exposure.ColPrimaryType); err != nil {
		return err
	}

	fold := cases.Fold()
	curves := map[string]map[string]string{} // object type -> damage type -> curve
	damageTypes := map[string]struct{}{}
	for _, r := range rows {
		key := fold.String(r.ObjectType)
		if curves[key] == nil {
			curves[key] = map[string]string{}
		}
		curves[key][r.DamageType] = r.CurveID
		damageTypes[r.DamageType] = struct{}{}
	}

	usePrimary := choosePrimary(s, curves, fold)
	column := exposure.ColPrimaryType
	if !usePrimary {
		column = exposure.ColSecondaryType
	}
	zap.L().Info("linking vulnerability curves",
		zap.String("match_column", column),
		zap.Int("object_types", len(curves)))

	missing := map[string]struct{}{}
	var unmatched int
	for _, a := range s.Assets() {
		objectType := a.PrimaryType
		if !usePrimary {
			objectType = a.SecondaryType
		}
		byType, ok := curves[fold.String(objectType)]
		if !ok {
			missing[objectType] = struct{}{}
			unmatched++
			continue
		}
		for dt, curve := range byType {
			a.SetDamageFunc(dt, curve)
		}
	}
	if unmatched > 0 {
		zap.L().Warn("object types without a vulnerability curve, left null",
			zap.Int("assets", unmatched),
			zap.Strings("object_types", sortedSet(missing)))
	}

	for dt := range damageTypes {
		s.MarkColumn(exposure.DamageFuncColumn(dt))
	}
	return nil
}

// choosePrimary picks the asset column to match against the table. A column
// whose whole value set appears in the table is preferred; otherwise the
// larger overlap wins, primary on ties.
func choosePrimary(s *exposure.Set, curves map[string]map[string]string, fold cases.Caser) bool {
	primary := map[string]struct{}{}
	secondary := map[string]struct{}{}
	for _, a := range s.Assets() {
		if a.PrimaryType != "" {
			primary[fold.String(a.PrimaryType)] = struct{}{}
		}
		if a.SecondaryType != "" {
			secondary[fold.String(a.SecondaryType)] = struct{}{}
		}
	}

	covered := func(set map[string]struct{}) (int, bool) {
		n := 0
		for v := range set {
			if _, ok := curves[v]; ok {
				n++
			}
		}
		return n, len(set) > 0 && n == len(set)
	}

	pn, pFull := covered(primary)
	sn, sFull := covered(secondary)
	if pFull {
		return true
	}
	if sFull {
		return false
	}
	return pn >= sn
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
