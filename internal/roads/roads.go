// Package roads derives damage columns for linear assets: geometric segment
// lengths and a lanes-based replacement cost.
package roads

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/units"
)

// ComputeLengths recomputes segment_length geometrically for every asset, in
// the model's unit system. Source length attributes are never trusted; the
// geometry is measured in a local projected CRS.
func ComputeLengths(s *exposure.Set, unit units.System) error {
	for _, a := range s.Assets() {
		m, err := geo.ProjectedLength(a.Geom, s.CRS)
		if err != nil {
			return err
		}
		a.SegmentLength = units.Convert(m, units.Meters, unit)
	}
	s.MarkColumn(exposure.ColSegmentLength, exposure.ColLanes)
	zap.L().Info("segment lengths recomputed",
		zap.String("unit", string(unit)),
		zap.Int("assets", s.Len()))
	return nil
}

// Options configure road damage assignment.
type Options struct {
	// Constant assigns one damage value to every segment. Nil with an
	// empty LaneCosts leaves the column null.
	Constant *float64
	// LaneCosts maps lane counts to a unit cost per length-unit.
	LaneCosts map[int]float64
	// ModelUnit and MetricSource select the legacy calibration factor:
	// lane-cost damages are scaled by 0.3048 when the model runs in feet
	// over metric source data.
	ModelUnit    units.System
	MetricSource bool
}

// AssignDamage fills max_damage_structure for road segments. Missing or zero
// lane counts default to one lane; lane counts outside the cost table clamp
// to its nearest entry.
func AssignDamage(s *exposure.Set, opts Options) error {
	if opts.Constant == nil && len(opts.LaneCosts) == 0 {
		zap.L().Info("no road damage source configured, column left null")
		return nil
	}

	if opts.Constant != nil {
		for _, a := range s.Assets() {
			a.SetMaxDamage("structure", *opts.Constant)
		}
		s.MarkColumn(exposure.MaxDamageColumn("structure"))
		return nil
	}

	if err := s.RequireColumns(exposure.ColSegmentLength); err != nil {
		return err
	}

	laneKeys := make([]int, 0, len(opts.LaneCosts))
	for k := range opts.LaneCosts {
		if k < 1 {
			return eris.Errorf("roads: lane cost table has invalid lane count %d", k)
		}
		laneKeys = append(laneKeys, k)
	}
	sort.Ints(laneKeys)

	factor := 1.0
	if opts.ModelUnit == units.Feet && opts.MetricSource {
		factor = units.FeetPerMeterLegacy
	}

	var defaulted int
	for _, a := range s.Assets() {
		lanes := a.Lanes
		if lanes <= 0 {
			lanes = 1
			defaulted++
		}
		cost := opts.LaneCosts[clampLanes(lanes, laneKeys)]
		a.SetMaxDamage("structure", cost*a.SegmentLength*factor)
	}
	if defaulted > 0 {
		zap.L().Warn("road segments without a lane count, defaulted to one",
			zap.Int("count", defaulted))
	}

	s.MarkColumn(exposure.MaxDamageColumn("structure"))
	zap.L().Info("road damages assigned",
		zap.Int("assets", s.Len()),
		zap.Float64("unit_factor", factor))
	return nil
}

// clampLanes snaps a lane count into the cost table's range, preferring the
// largest entry not above it.
func clampLanes(lanes int, keys []int) int {
	best := keys[0]
	for _, k := range keys {
		if k <= lanes {
			best = k
		}
	}
	return best
}
