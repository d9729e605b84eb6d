package normalize

import (
	"strings"

	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/model"
)

var (
	zero = model.IntValue(0)
	one  = model.IntValue(1)
)

// EncodeCategory one-hot encodes the category text into the schema's
// category slots. Exactly one slot is set: the first keyword rule that
// matches, or slot 1 when none does. Records without a category column are
// left to the completer.
func EncodeCategory(r model.Record, s *schema.Schema) model.Record {
	v, ok := r[model.FieldCategory]
	if !ok {
		return r
	}
	out := r.Clone()
	slot := s.MatchCategory(v.String())
	for i := 1; i <= s.CategorySlots(); i++ {
		out[schema.CategorySlot(i)] = zero
	}
	out[schema.CategorySlot(slot)] = one
	return out
}

// EncodeGender sets gender_M to 1 iff the uppercased gender text is "M".
// An existing gender_M column is kept.
func EncodeGender(r model.Record) model.Record {
	v, ok := r[model.FieldGender]
	if !ok || r.Has(model.FieldGenderM) {
		return r
	}
	out := r.Clone()
	if strings.ToUpper(strings.TrimSpace(v.String())) == "M" {
		out[model.FieldGenderM] = one
	} else {
		out[model.FieldGenderM] = zero
	}
	return out
}

// EncodeState sets one state_<CODE> flag per schema state code; the flag
// matching the uppercased state text is 1 and the rest 0. Existing flag
// columns are kept.
func EncodeState(r model.Record, s *schema.Schema) model.Record {
	v, ok := r[model.FieldState]
	if !ok {
		return r
	}
	out := r.Clone()
	state := strings.ToUpper(strings.TrimSpace(v.String()))
	for _, code := range s.StateCodes() {
		flag := schema.StateFlag(code)
		if out.Has(flag) {
			continue
		}
		if code == state {
			out[flag] = one
		} else {
			out[flag] = zero
		}
	}
	return out
}
