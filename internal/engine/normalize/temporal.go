package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/model"
)

// ParseTime tries each layout in order. Zone-less layouts are read as UTC.
func ParseTime(text string, layouts []string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

// temporalResult reports which fallbacks DeriveTemporal took.
type temporalResult struct {
	timestampFallback bool
	ageDefaulted      bool
}

// DeriveTemporal fills unix_time and its calendar parts from the transaction
// date text, age from the birth date, and the record identifier. A record
// with no usable transaction number is named "TX-<index>".
//
// A transaction date that cannot be parsed falls back to now as unix_time,
// unless strict is set, in which case the record is rejected.
func DeriveTemporal(r model.Record, index int, s *schema.Schema, now time.Time, strict bool) (model.Record, temporalResult, error) {
	out := r.Clone()
	var res temporalResult

	if !out.Has(model.FieldUnixTime) {
		if v, ok := out[model.FieldTransDate]; ok {
			t, err := ParseTime(v.String(), s.DateLayouts())
			switch {
			case err == nil:
				out[model.FieldUnixTime] = model.IntValue(t.Unix())
				setIfAbsent(out, model.FieldTransactionHour, t.Hour())
				setIfAbsent(out, model.FieldYear, t.Year())
				setIfAbsent(out, model.FieldMonth, int(t.Month()))
				setIfAbsent(out, model.FieldDay, t.Day())
				setIfAbsent(out, model.FieldHour, t.Hour())
			case strict:
				return nil, res, model.SchemaError([]string{model.FieldUnixTime},
					"row %d: cannot parse %s %q", index, model.FieldTransDate, v.String())
			default:
				out[model.FieldUnixTime] = model.IntValue(now.Unix())
				res.timestampFallback = true
			}
		}
	}

	if !out.Has(model.FieldID) {
		if v, ok := out[model.FieldTransNum]; ok && !v.IsEmpty() {
			out[model.FieldID] = v
		} else {
			out[model.FieldID] = model.TextValue(fmt.Sprintf("TX-%d", index))
		}
	}

	if !out.Has(model.FieldAge) {
		age := s.DefaultAge()
		res.ageDefaulted = true
		if v, ok := out[model.FieldDOB]; ok {
			if dob, err := ParseTime(v.String(), s.DateLayouts()); err == nil {
				age = now.Year() - dob.Year()
				res.ageDefaulted = false
			}
		}
		out[model.FieldAge] = model.IntValue(int64(age))
	}

	return out, res, nil
}

func setIfAbsent(r model.Record, name string, v int) {
	if !r.Has(name) {
		r[name] = model.IntValue(int64(v))
	}
}
