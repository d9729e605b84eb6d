package output

import (
	"strings"

	"github.com/crimson-sun/riskscan/internal/model"
)

// Detail controls how much of a report a sink emits.
type Detail int

const (
	// Summary keeps counts and the probability sample only.
	Summary Detail = iota
	// Full also keeps the per-band transaction lists.
	Full
)

// ParseDetail converts "summary" or "full" to a Detail. Unknown strings
// default to Full.
func ParseDetail(s string) Detail {
	if strings.EqualFold(s, "summary") {
		return Summary
	}
	return Full
}

func (d Detail) String() string {
	if d == Summary {
		return "summary"
	}
	return "full"
}

// FormatResult returns a copy of the result with fields stripped according
// to detail. The transaction lists stay present but empty at Summary so the
// report keeps its shape.
func FormatResult(r Result, detail Detail) Result {
	if detail == Summary {
		r.Report.High = []model.Transaction{}
		r.Report.Medium = []model.Transaction{}
		r.Report.Low = []model.Transaction{}
	}
	return r
}
