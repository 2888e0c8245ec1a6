// Package ingest reads shelf-analysis XLSX files into record sets.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// nullTokens are cell values treated as empty.
var nullTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "none": true, "null": true,
}

// ReadFile reads a shelf-analysis workbook from disk. Both manually
// verified reference files and pipeline-generated files use the same
// header layout, so one reader covers both.
func ReadFile(path string) (model.RecordSet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return model.RecordSet{}, eris.Wrap(err, "ingest: open file")
	}
	return fromWorkbook(f)
}

// ReadBytes reads a shelf-analysis workbook from an in-memory buffer,
// as received on the HTTP upload path.
func ReadBytes(data []byte) (model.RecordSet, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return model.RecordSet{}, eris.Wrap(err, "ingest: open buffer")
	}
	return fromWorkbook(f)
}

func fromWorkbook(f *xlsx.File) (model.RecordSet, error) {
	if len(f.Sheets) == 0 {
		return model.RecordSet{}, eris.New("ingest: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return model.RecordSet{}, nil
	}

	// Header matching is by display name, case-insensitive, so minor
	// header variations don't break the reader.
	header := sheet.Rows[0]
	colKeys := make([]string, len(header.Cells))
	recognised := 0
	for j, cell := range header.Cells {
		key := model.CanonicalKey(cell.String())
		colKeys[j] = key
		if key != "" {
			recognised++
		} else if s := strings.TrimSpace(cell.String()); s != "" {
			zap.L().Debug("unrecognised column header", zap.String("header", s))
		}
	}
	if recognised == 0 {
		return model.RecordSet{}, eris.New("ingest: no recognisable column headers")
	}

	rs := model.RecordSet{}
	for _, row := range sheet.Rows[1:] {
		rec := make(model.Record)
		for j, cell := range row.Cells {
			if j >= len(colKeys) || colKeys[j] == "" {
				continue
			}
			v := coerce(colKeys[j], cell.String())
			if v != nil {
				rec[colKeys[j]] = v
			}
		}
		if len(rec) == 0 {
			continue // blank row
		}
		rs.Rows = append(rs.Rows, rec)
	}
	return rs, nil
}

// coerce converts a raw cell string to the column's declared type.
// Values that don't parse are dropped rather than kept as garbage text.
func coerce(key, raw string) any {
	s := strings.TrimSpace(raw)
	if nullTokens[strings.ToLower(s)] {
		return nil
	}

	col, ok := model.ColumnByKey(key)
	if !ok {
		return s
	}
	switch col.Type {
	case model.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return int(n)
		}
		// Formula caches sometimes surface integers as "900.0".
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
		return nil
	case model.TypeFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	default:
		return s
	}
}
