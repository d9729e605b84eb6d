package model

import "maps"

// Record is one row of a batch: column name to cell. Stages of the
// normalization pipeline take a Record and return a new one.
type Record map[string]Value

// RawRecord is a record exactly as supplied by the caller, with an
// arbitrary schema.
type RawRecord = Record

// Get returns the cell under name.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Has reports whether the column exists, even if its cell is empty.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Text returns the cell under name as text, or fallback when the column is
// absent. A present but empty cell yields "".
func (r Record) Text(name, fallback string) string {
	v, ok := r[name]
	if !ok {
		return fallback
	}
	return v.String()
}

// Float returns the numeric view of the cell under name, or fallback when the
// column is absent or its cell cannot be coerced.
func (r Record) Float(name string, fallback float64) float64 {
	v, ok := r[name]
	if !ok {
		return fallback
	}
	f, err := v.Float()
	if err != nil {
		return fallback
	}
	return f
}

// Clone returns a shallow copy; Values are immutable so this is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// FeatureVector is the fixed-order numeric input the classifier consumes.
// Its length and order always match the schema's required feature list.
type FeatureVector []float64

// NormalizedRecord is a record after the full pipeline: every required
// feature is present and numeric, alongside identity and display fields.
type NormalizedRecord struct {
	Index  int // position in the original batch
	Fields Record
}

// Vector projects the record onto the required feature list. Features whose
// present value cannot be coerced are reported together in a SchemaError.
func (n NormalizedRecord) Vector(features []string) (FeatureVector, error) {
	vec := make(FeatureVector, len(features))
	var failed []string
	for i, name := range features {
		v, ok := n.Fields[name]
		if !ok {
			failed = append(failed, name)
			continue
		}
		f, err := v.Float()
		if err != nil {
			failed = append(failed, name)
			continue
		}
		vec[i] = f
	}
	if len(failed) > 0 {
		return nil, SchemaError(failed, "row %d: features could not be coerced to numbers", n.Index)
	}
	return vec, nil
}
