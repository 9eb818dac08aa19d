package damage

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/source"
)

// UpdateFromTable overwrites max damage values from a table keyed by object
// id. Every table column named max_damage_<type> is applied; other columns
// are ignored. Rows whose id matches no asset, and cells that do not parse,
// are skipped with a warning. Returns the number of cells written.
func UpdateFromTable(s *exposure.Set, tbl *source.Table, idCol string) (int, error) {
	if tbl == nil {
		return 0, eris.Wrap(ErrTableRequired, "damage: update table")
	}
	if idCol == "" {
		idCol = exposure.ColObjectID
	}
	idIdx := tbl.Column(idCol)
	if idIdx < 0 {
		return 0, eris.Errorf("damage: update table has no %q column", idCol)
	}

	prefix := exposure.MaxDamageColumn("")
	type target struct {
		idx        int
		damageType string
	}
	var targets []target
	for i, h := range tbl.Header {
		h = strings.TrimSpace(h)
		if strings.HasPrefix(h, prefix) {
			targets = append(targets, target{idx: i, damageType: strings.TrimPrefix(h, prefix)})
		}
	}
	if len(targets) == 0 {
		return 0, eris.Errorf("damage: update table has no %s* columns", prefix)
	}

	var updated, unknown, unparsed int
	for _, row := range tbl.Rows {
		if idIdx >= len(row) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[idIdx]), 10, 64)
		if err != nil {
			unparsed++
			continue
		}
		a, ok := s.Get(id)
		if !ok {
			unknown++
			continue
		}
		for _, t := range targets {
			if t.idx >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[t.idx])
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				unparsed++
				continue
			}
			a.SetMaxDamage(t.damageType, v)
			updated++
		}
	}

	for _, t := range targets {
		s.MarkColumn(exposure.MaxDamageColumn(t.damageType))
	}
	if unknown > 0 || unparsed > 0 {
		zap.L().Warn("damage update rows skipped",
			zap.Int("unknown_ids", unknown),
			zap.Int("unparsable", unparsed))
	}
	zap.L().Info("max damage values updated", zap.Int("cells", updated))
	return updated, nil
}
