// Package damage resolves max_damage_<type> columns from one of several
// source kinds: a constant, a reference file joined spatially, a standard
// catalog (JRC or HAZUS), or a generic translation table.
package damage

import (
	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/exposure"
)

// ErrTableRequired reports a per-unit source configured without a cost table.
var ErrTableRequired = eris.New("damage: cost table required")

// Source produces values for one max damage column. Implementations are the
// closed set of source kinds; exactly one is selected per damage type.
type Source interface {
	assign(s *exposure.Set, damageType string) error
}

// Step binds one damage type to its source. Steps run in caller order.
type Step struct {
	DamageType string
	Source     Source
}

// Assign fills max_damage_<type> for each step, marking the columns as they
// complete. Object types a source cannot resolve are left null.
func Assign(s *exposure.Set, steps []Step) error {
	for _, st := range steps {
		if st.Source == nil {
			return eris.Wrapf(ErrTableRequired, "damage type %s", st.DamageType)
		}
		if err := st.Source.assign(s, st.DamageType); err != nil {
			return eris.Wrapf(err, "damage type %s", st.DamageType)
		}
		s.MarkColumn(exposure.MaxDamageColumn(st.DamageType))
	}
	return nil
}
