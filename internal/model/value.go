package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrEmpty is returned when a numeric view of an empty cell is requested.
var ErrEmpty = errors.New("empty value")

// Kind describes what an upstream cell held before any coercion.
type Kind uint8

const (
	Empty Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single untyped cell of an upstream record: text, number, or empty.
// Numbers keep their original literal so long digit strings (card numbers)
// round-trip without precision loss.
type Value struct {
	kind Kind
	lit  string
	num  float64
}

// TextValue wraps a text cell. The empty string yields an empty Value.
func TextValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: Text, lit: s}
}

// NumberValue wraps a numeric cell.
func NumberValue(f float64) Value {
	return Value{kind: Number, lit: strconv.FormatFloat(f, 'f', -1, 64), num: f}
}

// IntValue wraps an integral numeric cell.
func IntValue(i int64) Value {
	return Value{kind: Number, lit: strconv.FormatInt(i, 10), num: float64(i)}
}

// NumberLiteral wraps a numeric literal (e.g. a json.Number), keeping the
// literal for display.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("number literal %q: %w", lit, err)
	}
	return Value{kind: Number, lit: lit, num: f}, nil
}

// Kind reports what the cell held.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the cell held nothing.
func (v Value) IsEmpty() bool { return v.kind == Empty }

// String returns the cell as text. Numbers render as their original literal.
func (v Value) String() string { return v.lit }

// Equal reports whether two cells hold the same kind and literal.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.lit == o.lit && v.num == o.num
}

// Float coerces the cell to a finite float64.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case Number:
		return v.num, nil
	case Text:
		f, err := cast.ToFloat64E(strings.TrimSpace(v.lit))
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", v.lit)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not finite: %q", v.lit)
		}
		return f, nil
	default:
		return 0, ErrEmpty
	}
}

// Int coerces the cell to an int64, truncating any fractional part.
func (v Value) Int() (int64, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	return cast.ToInt64E(math.Trunc(f))
}
