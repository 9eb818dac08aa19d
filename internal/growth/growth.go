// Package growth synthesizes hypothetical development: new assets inside
// user-drawn polygons, carrying a share of the exposure set's total damage
// and a blended vulnerability curve.
package growth

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/elevation"
	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

// DevelopmentType is the object type assigned to synthesized assets.
const DevelopmentType = "new_development_area"

// heightAttr is the per-polygon attribute overriding the uniform height.
const heightAttr = "height"

// AggregationLayer links new assets to an aggregation area layer so they
// inherit the same labels existing assets carry.
type AggregationLayer struct {
	Name  string
	Layer *source.FeatureSet
	Attr  string
}

// Options configure one composite growth run.
type Options struct {
	// PercentGrowth is in percent: 10 means ten percent of the current
	// total damage is added.
	PercentGrowth float64
	// Areas are the growth polygons, optionally carrying a "height"
	// attribute per polygon.
	Areas       *source.FeatureSet
	DamageTypes []string
	// Height is the uniform finished floor height for polygons without
	// their own attribute.
	Height float64

	// Reference controls how Height is interpreted: under Datum it is an
	// absolute floor level, under Geom it is relative to a per-polygon
	// baseline from Layer.
	Reference   elevation.Reference
	Layer       *source.FeatureSet
	Attr        string
	Method      join.Method
	MaxDistance float64

	Aggregations []AggregationLayer
}

// Apply adds one asset per growth polygon. Total new damage per type equals
// PercentGrowth/100 times the existing total; each polygon's share is
// proportional to its area. Every new asset references a composite curve
// blended once per damage type from the curves currently in use.
func Apply(s *exposure.Set, reg *vulnerability.Registry, opts Options) error {
	if opts.Areas == nil || len(opts.Areas.Features) == 0 {
		return eris.New("growth: no growth areas supplied")
	}
	for _, dt := range opts.DamageTypes {
		if err := s.RequireColumns(exposure.MaxDamageColumn(dt), exposure.DamageFuncColumn(dt)); err != nil {
			return err
		}
	}

	// Blend before adding assets, so new assets do not feed their own curve.
	blended := make(map[string]string, len(opts.DamageTypes))
	for _, dt := range opts.DamageTypes {
		c, err := vulnerability.Blend(fmt.Sprintf("composite_%s", dt), s, reg, dt)
		if err != nil {
			return err
		}
		reg.Add(c)
		blended[dt] = c.ID
	}

	totals := make(map[string]float64, len(opts.DamageTypes))
	for _, a := range s.Assets() {
		for _, dt := range opts.DamageTypes {
			totals[dt] += a.MaxDamage[dt]
		}
	}

	shares, geoms, err := polygonShares(opts.Areas, s.CRS)
	if err != nil {
		return err
	}

	added := make([]*exposure.Asset, 0, len(geoms))
	nextID := s.NextObjectID()
	for i, g := range geoms {
		a := &exposure.Asset{
			ObjectID:    nextID + int64(i),
			Name:        fmt.Sprintf("%s_%d", DevelopmentType, i+1),
			Geom:        g,
			PrimaryType: DevelopmentType,
			Extract:     exposure.ExtractArea,
		}
		for _, dt := range opts.DamageTypes {
			a.SetMaxDamage(dt, opts.PercentGrowth/100*totals[dt]*shares[i])
			a.SetDamageFunc(dt, blended[dt])
		}
		if err := s.Add(a); err != nil {
			return err
		}
		added = append(added, a)
	}

	if err := applyHeights(s, added, opts); err != nil {
		return err
	}
	if err := applyAggregations(s, added, opts.Aggregations); err != nil {
		return err
	}

	zap.L().Info("composite growth areas added",
		zap.Int("assets", len(added)),
		zap.Float64("percent_growth", opts.PercentGrowth))
	return nil
}

// polygonShares reprojects the growth polygons into the set's CRS and
// returns each polygon's fraction of the combined area.
func polygonShares(areas *source.FeatureSet, crs geo.CRS) ([]float64, []geom.T, error) {
	if areas.CRS.Code == 0 {
		return nil, nil, eris.Wrapf(geo.ErrCRSMissing, "growth layer %s", areas.Name)
	}

	geoms := make([]geom.T, 0, len(areas.Features))
	sizes := make([]float64, 0, len(areas.Features))
	var total float64
	for _, f := range areas.Features {
		g := geo.LargestPolygon(f.Geom)
		if areas.CRS != crs {
			rg, err := geo.Reproject(g, areas.CRS, crs)
			if err != nil {
				return nil, nil, err
			}
			g = rg
		}
		area, err := geo.ProjectedArea(g, crs)
		if err != nil {
			return nil, nil, err
		}
		geoms = append(geoms, g)
		sizes = append(sizes, area)
		total += area
	}
	if total <= 0 {
		return nil, nil, eris.Errorf("growth: layer %s has no polygon area", areas.Name)
	}

	shares := make([]float64, len(sizes))
	for i, sz := range sizes {
		shares[i] = sz / total
	}
	return shares, geoms, nil
}

// applyHeights sets each new asset's floor height from the per-polygon
// height attribute or the uniform fallback, against the configured
// reference, raising and never lowering.
func applyHeights(s *exposure.Set, added []*exposure.Asset, opts Options) error {
	heights := make(map[int64]float64, len(added))
	for i, a := range added {
		h := opts.Height
		if v, ok := opts.Areas.Features[i].Float(heightAttr); ok {
			h = v
		}
		heights[a.ObjectID] = h
	}

	switch opts.Reference {
	case elevation.Datum, "":
		for _, a := range added {
			if lift := heights[a.ObjectID] - a.GroundElevation; lift > a.GroundFloorHeight {
				a.GroundFloorHeight = lift
			}
		}
		return nil

	case elevation.Geom:
		for _, a := range added {
			_, err := elevation.RaiseToLevel(s, elevation.RaiseOptions{
				Selection:   exposure.Selection{ObjectIDs: []int64{a.ObjectID}},
				RaiseBy:     heights[a.ObjectID],
				Reference:   elevation.Geom,
				Layer:       opts.Layer,
				Attr:        opts.Attr,
				Method:      opts.Method,
				MaxDistance: opts.MaxDistance,
			})
			if err != nil {
				return err
			}
		}
		return nil

	default:
		return eris.Errorf("growth: unknown height reference %q", opts.Reference)
	}
}

// applyAggregations joins the new assets against aggregation area layers so
// they carry the same labels as the surrounding exposure.
func applyAggregations(s *exposure.Set, added []*exposure.Asset, layers []AggregationLayer) error {
	if len(layers) == 0 {
		return nil
	}
	primaries := make([]join.Primary, len(added))
	for i, a := range added {
		primaries[i] = join.Primary{ID: a.ObjectID, Geom: a.Geom}
	}
	for _, agg := range layers {
		col, err := join.Attribute(primaries, s.CRS, agg.Layer, join.Options{
			Method: join.Intersection,
			Attr:   agg.Attr,
		})
		if err != nil {
			return err
		}
		for _, a := range added {
			if v, ok := col[a.ObjectID]; ok && v != "" {
				a.SetAggregation(agg.Name, v)
			}
		}
		s.MarkColumn(exposure.AggregationColumn(agg.Name))
	}
	return nil
}
