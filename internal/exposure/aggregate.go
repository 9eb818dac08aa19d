package exposure

import (
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

// ApplyAggregationArea labels every asset with the named aggregation area it
// intersects. Assets outside every area keep a null label. Overlapping areas
// resolve to the one sharing the largest area with the asset.
func (s *Set) ApplyAggregationArea(name string, layer *source.FeatureSet, attr string) error {
	labels, err := join.Attribute(s.joinPrimaries(), s.CRS, layer, join.Options{
		Method: join.Intersection,
		Attr:   attr,
	})
	if err != nil {
		return err
	}

	n := s.FoldString(labels, func(a *Asset, v string) { a.SetAggregation(name, v) })
	s.MarkColumn(AggregationColumn(name))

	zap.L().Info("aggregation areas assigned",
		zap.String("label", name),
		zap.String("layer", layer.Name),
		zap.Int("labeled", n))
	return nil
}
