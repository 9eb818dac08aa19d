package source

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadTable reads a CSV or XLSX file into a generic Table. The format is
// chosen by file extension.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVTable(path)
	case ".xlsx":
		return ReadXLSXTable(path)
	default:
		return nil, eris.Errorf("source: unsupported table format %q", filepath.Ext(path))
	}
}

// ReadCSVTable reads a CSV file with a header row.
func ReadCSVTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open csv %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "source: read csv %s", path)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// ReadXLSXTable reads the first sheet of an XLSX file, first row as header.
func ReadXLSXTable(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return &Table{}, nil
	}
	sheet := f.Sheets[0]

	t := &Table{}
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// DecodeCSV decodes a CSV file with a header row into a slice of structs
// using csvutil tags. v must be a pointer to a slice.
func DecodeCSV(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "source: read csv %s", path)
	}
	if err := csvutil.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "source: decode csv %s", path)
	}
	return nil
}

// ReadPairs reads a headerless two-column CSV file into ordered key/value
// pairs, the translation-table format.
func ReadPairs(path string) ([][2]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open csv %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "source: read csv %s", path)
	}

	pairs := make([][2]string, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			return nil, eris.Errorf("source: translation row needs two columns, got %d in %s", len(rec), path)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])})
	}
	return pairs, nil
}
