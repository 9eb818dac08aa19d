package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/source"
	"github.com/floodscope/exposure-cli/internal/store"
)

// loadLayer reads a geometry layer by extension. Shapefiles carry no CRS in
// the formats we read, so one must be configured alongside them; GeoJSON
// defaults to WGS84.
func loadLayer(path, crsStr string) (*source.FeatureSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		crs, err := geo.ParseCRS(crsStr)
		if err != nil {
			return nil, eris.Wrapf(err, "layer %s", path)
		}
		return source.ReadShapefile(path, crs)
	case ".geojson", ".json":
		var crs geo.CRS
		if crsStr != "" {
			parsed, err := geo.ParseCRS(crsStr)
			if err != nil {
				return nil, eris.Wrapf(err, "layer %s", path)
			}
			crs = parsed
		}
		return source.ReadGeoJSON(path, crs)
	default:
		return nil, eris.Errorf("unsupported layer format %q", filepath.Ext(path))
	}
}

// geoCRS parses a configured CRS string, treating empty as missing.
func geoCRS(s string) (geo.CRS, error) {
	if s == "" {
		return geo.CRS{}, geo.ErrCRSMissing
	}
	return geo.ParseCRS(s)
}

// openStore opens the configured export database and ensures its schema.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
