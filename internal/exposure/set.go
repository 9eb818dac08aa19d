package exposure

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// Canonical column names of the exposure table.
const (
	ColObjectID        = "object_id"
	ColObjectName      = "object_name"
	ColPrimaryType     = "primary_object_type"
	ColSecondaryType   = "secondary_object_type"
	ColExtractMethod   = "extract_method"
	ColGroundFloor     = "ground_flht"
	ColGroundElevation = "ground_elevtn"
	ColSegmentLength   = "segment_length"
	ColLanes           = "lanes"

	maxDamagePrefix   = "max_damage_"
	damageFuncPrefix  = "fn_damage_"
	aggregationPrefix = "aggregation_label_"
)

// MaxDamageColumn returns the table column for a damage type.
func MaxDamageColumn(damageType string) string { return maxDamagePrefix + damageType }

// DamageFuncColumn returns the table column for a damage type's curve id.
func DamageFuncColumn(damageType string) string { return damageFuncPrefix + damageType }

// AggregationColumn returns the table column for an aggregation label.
func AggregationColumn(name string) string { return aggregationPrefix + name }

// ErrMissingColumn reports a pipeline step running before its inputs exist.
var ErrMissingColumn = eris.New("exposure: required column missing")

// Set is the exposure table: an ordered collection of assets with unique
// object ids, all geometries in one CRS. Steps mark the columns they fill so
// later steps can verify their preconditions up front.
type Set struct {
	CRS geo.CRS

	assets  []*Asset
	byID    map[int64]*Asset
	columns map[string]struct{}
}

// NewSet returns an empty exposure set in the given CRS.
func NewSet(crs geo.CRS) *Set {
	return &Set{
		CRS:     crs,
		byID:    map[int64]*Asset{},
		columns: map[string]struct{}{},
	}
}

// Add appends an asset. Object ids must be unique over the whole set.
func (s *Set) Add(a *Asset) error {
	if _, ok := s.byID[a.ObjectID]; ok {
		return eris.Errorf("exposure: duplicate object_id %d", a.ObjectID)
	}
	s.assets = append(s.assets, a)
	s.byID[a.ObjectID] = a
	return nil
}

// Get looks an asset up by object id.
func (s *Set) Get(id int64) (*Asset, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Assets returns the assets in insertion order. The slice is shared; callers
// must not reorder it.
func (s *Set) Assets() []*Asset { return s.assets }

// Len returns the number of assets.
func (s *Set) Len() int { return len(s.assets) }

// NextObjectID returns one above the highest id in the set, so synthesized
// assets never collide with existing ones.
func (s *Set) NextObjectID() int64 {
	var max int64
	for _, a := range s.assets {
		if a.ObjectID > max {
			max = a.ObjectID
		}
	}
	return max + 1
}

// MarkColumn records that a column has been populated.
func (s *Set) MarkColumn(names ...string) {
	for _, n := range names {
		s.columns[n] = struct{}{}
	}
}

// HasColumn reports whether a column has been populated.
func (s *Set) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// RequireColumns verifies a step's inputs exist, naming every missing column.
func (s *Set) RequireColumns(names ...string) error {
	var missing []string
	for _, n := range names {
		if !s.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumn, "need %s", strings.Join(missing, ", "))
	}
	return nil
}

// Columns returns the populated column names, sorted.
func (s *Set) Columns() []string {
	return sortedKeys(s.columns)
}

// DamageTypes returns the sorted union of damage types with a max damage or
// curve assigned anywhere in the set.
func (s *Set) DamageTypes() []string {
	seen := map[string]struct{}{}
	for _, a := range s.assets {
		for t := range a.MaxDamage {
			seen[t] = struct{}{}
		}
		for t := range a.DamageFunc {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// AggregationNames returns the sorted aggregation label names in use.
func (s *Set) AggregationNames() []string {
	seen := map[string]struct{}{}
	for _, a := range s.assets {
		for n := range a.Aggregation {
			seen[n] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// PrimaryTypes returns the sorted distinct primary object types.
func (s *Set) PrimaryTypes() []string {
	seen := map[string]struct{}{}
	for _, a := range s.assets {
		if a.PrimaryType != "" {
			seen[a.PrimaryType] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// SortByID orders assets by object id, the canonical export order.
func (s *Set) SortByID() {
	sort.Slice(s.assets, func(i, j int) bool { return s.assets[i].ObjectID < s.assets[j].ObjectID })
}
