package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// ReadGeoJSON reads a GeoJSON FeatureCollection into a FeatureSet. GeoJSON is
// WGS 84 by construction unless the caller overrides the CRS.
func ReadGeoJSON(path string, crs geo.CRS) (*FeatureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read geojson %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "source: parse geojson %s", path)
	}

	if crs.IsZero() {
		crs = geo.WGS84
	}

	fs := &FeatureSet{Name: path, CRS: crs}
	for _, feat := range fc.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}
		attrs := make(map[string]string, len(feat.Properties))
		for k, v := range feat.Properties {
			if v == nil {
				continue
			}
			attrs[k] = stringifyProperty(v)
		}
		fs.Features = append(fs.Features, Feature{Geom: feat.Geometry, Attrs: attrs})
	}
	return fs, nil
}

// WriteGeoJSON writes a FeatureSet as a GeoJSON FeatureCollection. Attribute
// values are written as strings, matching how they are read.
func WriteGeoJSON(path string, fs *FeatureSet) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(fs.Features))}
	for _, f := range fs.Features {
		props := make(map[string]any, len(f.Attrs))
		for k, v := range f.Attrs {
			props[k] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: f.Geom, Properties: props})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrapf(err, "source: encode geojson %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "source: write geojson %s", path)
	}
	return nil
}

func stringifyProperty(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatFloat(f float64) string {
	// Integral values print without a trailing ".0" so attribute parsing
	// matches what DBF files produce.
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
