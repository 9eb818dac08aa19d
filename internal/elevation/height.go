// Package elevation fills the ground floor height and ground elevation
// columns and implements the raise-to-level measure.
package elevation

import (
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

// Field selects which elevation column an assigner writes.
type Field int

const (
	GroundFloorHeight Field = iota
	GroundElevation
)

func (f Field) column() string {
	if f == GroundElevation {
		return exposure.ColGroundElevation
	}
	return exposure.ColGroundFloor
}

func (f Field) set(a *exposure.Asset, v float64) {
	if f == GroundElevation {
		a.GroundElevation = v
	} else {
		a.GroundFloorHeight = v
	}
}

// ApplyConstant assigns one value to every asset.
func ApplyConstant(s *exposure.Set, field Field, v float64) {
	for _, a := range s.Assets() {
		field.set(a, v)
	}
	s.MarkColumn(field.column())
}

// ApplyDefault assigns zero everywhere. Used when no source is configured,
// which is worth a warning since downstream damage estimates assume it.
func ApplyDefault(s *exposure.Set, field Field) {
	ApplyConstant(s, field, 0)
	zap.L().Warn("no source configured, column defaulted to zero",
		zap.String("column", field.column()))
}

// ApplyLayer assigns values from a reference layer via a spatial join.
// Assets the join does not reach keep their current value.
func ApplyLayer(s *exposure.Set, field Field, layer *source.FeatureSet, attr string, method join.Method, maxDist float64) error {
	primaries := make([]join.Primary, 0, s.Len())
	for _, a := range s.Assets() {
		primaries = append(primaries, join.Primary{ID: a.ObjectID, Geom: a.Geom})
	}
	col, err := join.Attribute(primaries, s.CRS, layer, join.Options{
		Method:      method,
		Attr:        attr,
		MaxDistance: maxDist,
	})
	if err != nil {
		return err
	}
	n := s.FoldFloat(exposure.Column(col), func(a *exposure.Asset, v float64) {
		field.set(a, v)
	})
	s.MarkColumn(field.column())
	zap.L().Info("elevation column joined from layer",
		zap.String("column", field.column()),
		zap.String("layer", layer.Name),
		zap.Int("assigned", n))
	return nil
}
