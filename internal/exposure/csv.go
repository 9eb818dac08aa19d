package exposure

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/source"
)

// WriteCSV writes the exposure table in the canonical column order: fixed
// columns, then max damage, curve, and aggregation columns sorted by name.
// Null cells are written empty.
func (s *Set) WriteCSV(w io.Writer) error {
	damageTypes := s.DamageTypes()
	aggNames := s.AggregationNames()
	roads := s.HasColumn(ColSegmentLength)

	header := []string{
		ColObjectID, ColObjectName, ColPrimaryType, ColSecondaryType,
		ColExtractMethod, ColGroundFloor, ColGroundElevation,
	}
	for _, t := range damageTypes {
		header = append(header, MaxDamageColumn(t))
	}
	for _, t := range damageTypes {
		header = append(header, DamageFuncColumn(t))
	}
	for _, n := range aggNames {
		header = append(header, AggregationColumn(n))
	}
	if roads {
		header = append(header, ColSegmentLength, ColLanes)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "exposure: write csv header")
	}
	for _, a := range s.assets {
		row := []string{
			strconv.FormatInt(a.ObjectID, 10),
			a.Name,
			a.PrimaryType,
			a.SecondaryType,
			string(a.Extract),
			formatFloat(a.GroundFloorHeight),
			formatFloat(a.GroundElevation),
		}
		for _, t := range damageTypes {
			if v, ok := a.MaxDamage[t]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		for _, t := range damageTypes {
			row = append(row, a.DamageFunc[t])
		}
		for _, n := range aggNames {
			row = append(row, a.Aggregation[n])
		}
		if roads {
			row = append(row, formatFloat(a.SegmentLength), strconv.Itoa(a.Lanes))
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "exposure: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "exposure: flush csv")
}

// ReadCSV loads a previously written exposure table. Geometries are attached
// separately with AttachGeometry.
func ReadCSV(r io.Reader, crs geo.CRS) (*Set, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "exposure: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("exposure: empty csv")
	}

	header := records[0]
	set := NewSet(crs)
	for _, name := range header {
		set.MarkColumn(strings.ToLower(name))
	}

	for i, rec := range records[1:] {
		a := &Asset{}
		for j, name := range header {
			if j >= len(rec) || rec[j] == "" {
				continue
			}
			if err := a.setField(strings.ToLower(name), rec[j]); err != nil {
				return nil, eris.Wrapf(err, "exposure: csv row %d", i+2)
			}
		}
		if err := set.Add(a); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (a *Asset) setField(name, v string) error {
	switch name {
	case ColObjectID:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return eris.Wrapf(err, "column %s", name)
		}
		a.ObjectID = id
	case ColObjectName:
		a.Name = v
	case ColPrimaryType:
		a.PrimaryType = v
	case ColSecondaryType:
		a.SecondaryType = v
	case ColExtractMethod:
		a.Extract = ExtractMethod(v)
	case ColGroundFloor, ColGroundElevation, ColSegmentLength:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return eris.Wrapf(err, "column %s", name)
		}
		switch name {
		case ColGroundFloor:
			a.GroundFloorHeight = f
		case ColGroundElevation:
			a.GroundElevation = f
		case ColSegmentLength:
			a.SegmentLength = f
		}
	case ColLanes:
		n, err := strconv.Atoi(v)
		if err != nil {
			return eris.Wrapf(err, "column %s", name)
		}
		a.Lanes = n
	default:
		switch {
		case strings.HasPrefix(name, maxDamagePrefix):
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return eris.Wrapf(err, "column %s", name)
			}
			a.SetMaxDamage(strings.TrimPrefix(name, maxDamagePrefix), f)
		case strings.HasPrefix(name, damageFuncPrefix):
			a.SetDamageFunc(strings.TrimPrefix(name, damageFuncPrefix), v)
		case strings.HasPrefix(name, aggregationPrefix):
			a.SetAggregation(strings.TrimPrefix(name, aggregationPrefix), v)
		}
		// Unknown columns are dropped.
	}
	return nil
}

// AttachGeometry pairs each asset with its geometry from a layer, matched by
// object id. The layer is reprojected to the set's CRS when they differ.
// Assets without a matching feature are reported.
func (s *Set) AttachGeometry(fs *source.FeatureSet, idAttr string) error {
	byID := map[int64]int{}
	for i, f := range fs.Features {
		v, ok := f.Float(idAttr)
		if !ok {
			continue
		}
		if _, dup := byID[int64(v)]; !dup {
			byID[int64(v)] = i
		}
	}

	var missing int
	for _, a := range s.assets {
		i, ok := byID[a.ObjectID]
		if !ok {
			missing++
			continue
		}
		g := geo.LargestPolygon(fs.Features[i].Geom)
		if fs.CRS != s.CRS {
			rg, err := geo.Reproject(g, fs.CRS, s.CRS)
			if err != nil {
				return err
			}
			g = rg
		}
		a.Geom = g
	}
	if missing > 0 {
		zap.L().Warn("assets without a geometry after attach",
			zap.String("layer", fs.Name),
			zap.Int("count", missing))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
