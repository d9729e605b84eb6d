package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"slices"

	"github.com/crimson-sun/riskscan/internal/model"
)

// decodeJSON reads a top-level array of flat objects.
func decodeJSON(text []byte) (*Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, model.ParseError(err, "Invalid JSON format: expected an array of objects")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, model.ParseError(nil, "Invalid JSON format: trailing data after array")
	}

	b := &Batch{Records: make([]model.RawRecord, 0, len(rows))}
	var cols columnSet
	for i, row := range rows {
		rec, err := toRecord(row, i+1, &cols)
		if err != nil {
			return nil, err
		}
		b.Records = append(b.Records, rec)
	}
	b.Columns = cols.names
	return b, nil
}

// decodeNDJSON reads one flat object per line; blank lines are skipped.
func decodeNDJSON(text []byte) (*Batch, error) {
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), len(text)+1)

	b := &Batch{Records: []model.RawRecord{}}
	var cols columnSet
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, model.ParseError(err, "Invalid JSON format: line %d", line)
		}
		rec, err := toRecord(row, line, &cols)
		if err != nil {
			return nil, err
		}
		b.Records = append(b.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, model.ParseError(err, "Invalid JSON format")
	}
	b.Columns = cols.names
	return b, nil
}

func toRecord(row map[string]any, n int, cols *columnSet) (model.RawRecord, error) {
	if row == nil {
		return nil, model.ParseError(nil, "Invalid JSON format: row %d is not an object", n)
	}
	rec := make(model.RawRecord, len(row))
	for _, k := range slices.Sorted(maps.Keys(row)) {
		name := normalizeHeader(k)
		val, err := toValue(row[k])
		if err != nil {
			return nil, model.ParseError(err, "Invalid JSON format: row %d column %q", n, name)
		}
		rec[name] = val
		cols.add(name)
	}
	return rec, nil
}

func toValue(v any) (model.Value, error) {
	switch x := v.(type) {
	case nil:
		return model.Value{}, nil
	case string:
		return model.TextValue(x), nil
	case json.Number:
		return model.NumberLiteral(x.String())
	case bool:
		if x {
			return model.IntValue(1), nil
		}
		return model.IntValue(0), nil
	default:
		return model.Value{}, errors.New("nested values are not supported")
	}
}
