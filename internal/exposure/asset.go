// Package exposure holds the asset table at the center of the pipeline: one
// row per exposable unit, keyed by a unique object id, 1:1 with its geometry.
package exposure

import (
	"sort"

	"github.com/twpayne/go-geom"
)

// ExtractMethod names how a hazard value is sampled from an asset footprint.
type ExtractMethod string

const (
	ExtractCentroid ExtractMethod = "centroid"
	ExtractArea     ExtractMethod = "area"
)

// Unclassified marks assets whose object type could not be determined.
const Unclassified = "unclassified"

// Asset is one exposable unit: a building, a road segment, or a synthesized
// growth parcel. Damage columns are keyed by damage type ("structure",
// "content", ...); a missing key is a null cell, not a zero.
type Asset struct {
	ObjectID      int64
	Name          string
	Geom          geom.T
	PrimaryType   string
	SecondaryType string
	Extract       ExtractMethod

	GroundFloorHeight float64
	GroundElevation   float64

	MaxDamage  map[string]float64 // max_damage_<type>
	DamageFunc map[string]string  // fn_damage_<type>

	Aggregation map[string]string // aggregation_label_<name>

	// Road attributes. SegmentLength is always recomputed geometrically.
	SegmentLength float64
	Lanes         int
}

// SetMaxDamage records the maximum potential damage for one damage type.
func (a *Asset) SetMaxDamage(damageType string, v float64) {
	if a.MaxDamage == nil {
		a.MaxDamage = map[string]float64{}
	}
	a.MaxDamage[damageType] = v
}

// SetDamageFunc records the vulnerability curve id for one damage type.
func (a *Asset) SetDamageFunc(damageType, curveID string) {
	if a.DamageFunc == nil {
		a.DamageFunc = map[string]string{}
	}
	a.DamageFunc[damageType] = curveID
}

// SetAggregation records one aggregation area label.
func (a *Asset) SetAggregation(name, value string) {
	if a.Aggregation == nil {
		a.Aggregation = map[string]string{}
	}
	a.Aggregation[name] = value
}

// FloorLevel is the asset's finished floor elevation relative to the datum.
func (a *Asset) FloorLevel() float64 {
	return a.GroundFloorHeight + a.GroundElevation
}

// Clone returns a deep copy sharing only the geometry, which the pipeline
// treats as immutable once attached.
func (a *Asset) Clone() *Asset {
	c := *a
	c.MaxDamage = copyMap(a.MaxDamage)
	c.DamageFunc = copyMap(a.DamageFunc)
	c.Aggregation = copyMap(a.Aggregation)
	return &c
}

func copyMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
