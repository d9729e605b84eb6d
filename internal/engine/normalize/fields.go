package normalize

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crimson-sun/riskscan/internal/model"
)

// NormalizeCardNumber strips every non-digit from the card number. The
// result stays text; long digit strings must not pass through a float.
// Numeric cells are rendered in plain notation first so an exponent
// literal never leaks its digits.
func NormalizeCardNumber(r model.Record) model.Record {
	v, ok := r[model.FieldCCNum]
	if !ok {
		return r
	}
	s := v.String()
	// A plain literal is kept as is; it may carry more digits than a float holds.
	if v.Kind() == model.Number && strings.ContainsAny(s, "eE") {
		if f, err := v.Float(); err == nil {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	out := r.Clone()
	out[model.FieldCCNum] = model.TextValue(keep(s, func(c rune) bool {
		return c >= '0' && c <= '9'
	}))
	return out
}

// NormalizeAmount strips everything but digits and '.' from the amount and
// parses it. Numeric cells are taken as they are. When the cleaned text
// does not parse, the original cell is coerced directly, and anything still
// invalid becomes 0. The second return reports that a fallback was taken.
func NormalizeAmount(r model.Record) (model.Record, bool) {
	v, ok := r[model.FieldAmount]
	if !ok {
		return r, false
	}
	out := r.Clone()
	if v.Kind() == model.Number {
		if f, err := v.Float(); err == nil {
			out[model.FieldAmount] = model.NumberValue(f)
			return out, false
		}
	}
	cleaned := keep(v.String(), func(c rune) bool {
		return (c >= '0' && c <= '9') || c == '.'
	})
	if d, err := decimal.NewFromString(cleaned); err == nil {
		out[model.FieldAmount] = model.NumberValue(d.InexactFloat64())
		return out, false
	}
	f, err := v.Float()
	if err != nil {
		f = 0
	}
	out[model.FieldAmount] = model.NumberValue(f)
	return out, true
}

func keep(s string, allow func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if allow(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
