package normalize

import "github.com/crimson-sun/riskscan/internal/model"

// Complete fills every required feature that is absent or empty with 0 and
// returns the names it filled. After Complete, every required feature is
// present; whether each coerces to a number is checked when the vector is
// built.
func Complete(r model.Record, features []string) (model.Record, []string) {
	out := r.Clone()
	var defaulted []string
	for _, f := range features {
		if v, ok := out[f]; ok && !v.IsEmpty() {
			continue
		}
		out[f] = zero
		defaulted = append(defaulted, f)
	}
	return out, defaulted
}
