package exposure

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/source"
)

// BuildOptions control how a raw feature layer becomes an exposure set.
type BuildOptions struct {
	// IDAttr names the source attribute carrying object ids. When empty,
	// ids are minted sequentially from 1 in feature order.
	IDAttr string
	// NameAttr names the source attribute for object_name. When empty the
	// object id is used.
	NameAttr string
	// Extract is the hazard extraction method for every asset. Empty
	// defaults to centroid for points and lines, area for polygons.
	Extract ExtractMethod
}

// FromFeatures turns a geometry layer into an exposure set, one asset per
// feature. Multi-part geometries are reduced to their largest part so the
// table and geometry stay a 1:1 pair; the reduction is logged.
func FromFeatures(fs *source.FeatureSet, opts BuildOptions) (*Set, error) {
	if fs.CRS.Code == 0 {
		return nil, eris.Wrapf(geo.ErrCRSMissing, "layer %s", fs.Name)
	}

	set := NewSet(fs.CRS)
	var reduced int
	for i, f := range fs.Features {
		g := geo.LargestPolygon(f.Geom)
		if g != f.Geom {
			reduced++
		}

		id := int64(i + 1)
		if opts.IDAttr != "" {
			v, ok := f.Float(opts.IDAttr)
			if !ok {
				return nil, eris.Errorf("exposure: feature %d of %s has no usable id in %q", i, fs.Name, opts.IDAttr)
			}
			id = int64(v)
		}

		a := &Asset{
			ObjectID: id,
			Geom:     g,
			Extract:  opts.Extract,
		}
		if opts.NameAttr != "" {
			a.Name, _ = f.String(opts.NameAttr)
		}
		if a.Extract == "" {
			if geo.KindOf(g) == geo.KindPolygon {
				a.Extract = ExtractArea
			} else {
				a.Extract = ExtractCentroid
			}
		}
		if err := set.Add(a); err != nil {
			return nil, err
		}
	}
	if reduced > 0 {
		zap.L().Warn("multi-part geometries reduced to largest part",
			zap.String("layer", fs.Name),
			zap.Int("count", reduced))
	}

	set.MarkColumn(ColObjectID, ColObjectName, ColExtractMethod)
	zap.L().Info("exposure set built",
		zap.String("layer", fs.Name),
		zap.Int("assets", set.Len()))
	return set, nil
}
