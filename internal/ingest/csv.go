package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crimson-sun/riskscan/internal/model"
)

// decodeCSV reads a header row followed by data rows. Blank header cells
// become "Unnamed: <i>" and duplicates get a ".<n>" suffix, as spreadsheet
// exports do. Short rows are padded with empty cells; long rows are errors.
func decodeCSV(text []byte) (*Batch, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, model.ParseError(nil, "Invalid CSV format: no header row")
	}
	if err != nil {
		return nil, model.ParseError(err, "Invalid CSV format")
	}
	columns := headerNames(header)
	if allUnnamed(columns) {
		return nil, model.ParseError(nil, "Invalid CSV format: header has no column names")
	}

	b := &Batch{Columns: columns, Records: []model.RawRecord{}}
	for row := 1; ; row++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.ParseError(err, "Invalid CSV format")
		}
		if len(fields) > len(columns) {
			return nil, rowError(row, "expected %d fields, saw %d", len(columns), len(fields))
		}
		rec := make(model.RawRecord, len(columns))
		for i, name := range columns {
			if i < len(fields) {
				rec[name] = model.TextValue(strings.TrimSpace(fields[i]))
			} else {
				rec[name] = model.Value{}
			}
		}
		b.Records = append(b.Records, rec)
	}
	return b, nil
}

func headerNames(header []string) []string {
	names := make([]string, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := counts[name]; n > 0 {
			counts[name]++
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			counts[name] = 1
		}
		names[i] = name
	}
	return names
}

func allUnnamed(columns []string) bool {
	for _, c := range columns {
		if !strings.HasPrefix(c, "Unnamed: ") {
			return false
		}
	}
	return true
}
