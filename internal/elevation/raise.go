package elevation

import (
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

// Reference is the baseline a raise-to-level measure works against.
type Reference string

const (
	// Datum treats the raise amount as an absolute floor level.
	Datum Reference = "datum"
	// Geom resolves a per-asset baseline from an external layer.
	Geom Reference = "geom"
	// Table resolves a per-asset baseline from a table keyed by object id.
	Table Reference = "table"
)

// RaiseOptions configure a raise-to-level measure.
type RaiseOptions struct {
	Selection exposure.Selection
	// RaiseBy is the absolute target level under Datum, or the offset
	// above the per-asset baseline under Geom and Table.
	RaiseBy   float64
	Reference Reference

	// Geom reference inputs.
	Layer       *source.FeatureSet
	Attr        string
	Method      join.Method
	MaxDistance float64

	// Table reference input: baseline level per object id.
	Baselines map[int64]float64
}

// RaiseResult reports what a raise measure did.
type RaiseResult struct {
	Raised int
	// NoReference counts selected assets with no baseline value, which are
	// left untouched.
	NoReference int
}

// RaiseToLevel lifts selected assets so their floor level reaches a target,
// never lowering any. ground_elevtn stays fixed; the lift goes entirely into
// ground_flht, so the result is max(original level, target).
func RaiseToLevel(s *exposure.Set, opts RaiseOptions) (RaiseResult, error) {
	if err := s.RequireColumns(exposure.ColGroundFloor, exposure.ColGroundElevation); err != nil {
		return RaiseResult{}, err
	}

	assets, err := s.Select(opts.Selection)
	if err != nil {
		return RaiseResult{}, err
	}

	target, err := targetLevels(s, assets, opts)
	if err != nil {
		return RaiseResult{}, err
	}

	var res RaiseResult
	for _, a := range assets {
		lvl, ok := target[a.ObjectID]
		if !ok {
			res.NoReference++
			continue
		}
		if a.FloorLevel() >= lvl {
			continue
		}
		a.GroundFloorHeight = lvl - a.GroundElevation
		res.Raised++
	}

	if res.NoReference > 0 {
		zap.L().Warn("selected assets without a reference level, left untouched",
			zap.Int("count", res.NoReference))
	}
	zap.L().Info("raise to level applied",
		zap.String("reference", string(opts.Reference)),
		zap.Float64("raise_by", opts.RaiseBy),
		zap.Int("raised", res.Raised))
	return res, nil
}

// targetLevels resolves the required floor level per selected asset.
func targetLevels(s *exposure.Set, assets []*exposure.Asset, opts RaiseOptions) (map[int64]float64, error) {
	out := make(map[int64]float64, len(assets))
	switch opts.Reference {
	case Datum, "":
		for _, a := range assets {
			out[a.ObjectID] = opts.RaiseBy
		}

	case Geom:
		if opts.Layer == nil {
			return nil, eris.New("elevation: geom reference needs a layer")
		}
		primaries := make([]join.Primary, len(assets))
		for i, a := range assets {
			primaries[i] = join.Primary{ID: a.ObjectID, Geom: a.Geom}
		}
		col, err := join.Attribute(primaries, s.CRS, opts.Layer, join.Options{
			Method:      opts.Method,
			Attr:        opts.Attr,
			MaxDistance: opts.MaxDistance,
		})
		if err != nil {
			return nil, err
		}
		for id, raw := range col {
			v, ok := parseFloat(raw)
			if !ok {
				continue
			}
			out[id] = v + opts.RaiseBy
		}

	case Table:
		for _, a := range assets {
			if v, ok := opts.Baselines[a.ObjectID]; ok {
				out[a.ObjectID] = v + opts.RaiseBy
			}
		}

	default:
		return nil, eris.Errorf("elevation: unknown raise reference %q", opts.Reference)
	}
	return out, nil
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
