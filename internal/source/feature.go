// Package source loads geometry collections, tabular data, and rasters from
// files. It is the only package that touches disk; the core pipeline operates
// on the in-memory values produced here.
package source

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/floodscope/exposure-cli/internal/geo"
)

// Feature is one geometry with its source attributes. Attribute values are
// kept as raw strings; consumers parse what they need.
type Feature struct {
	Geom  geom.T
	Attrs map[string]string
}

// Float parses a named attribute as a float. The second return is false when
// the attribute is missing, empty, or not numeric.
func (f Feature) Float(key string) (float64, bool) {
	raw, ok := f.Attrs[key]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// String returns a named attribute, false when missing or empty.
func (f Feature) String(key string) (string, bool) {
	raw, ok := f.Attrs[key]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// FeatureSet is an ordered geometry collection with a shared CRS.
type FeatureSet struct {
	Name     string
	CRS      geo.CRS
	Features []Feature
}

// Table is a generic row/column table with a header, as produced by the CSV
// and XLSX readers.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of a header column, case-insensitive, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
