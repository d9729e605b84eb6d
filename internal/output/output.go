package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/riskscan/internal/model"
)

// Output defines the interface for scored batch destinations.
type Output interface {
	Write(ctx context.Context, result Result) error
	Close() error
}

// Result is one scored batch as delivered to a sink.
type Result struct {
	ID       string           `json:"id"`
	Source   string           `json:"source,omitempty"` // uploaded file name, if any
	ScoredAt time.Time        `json:"scored_at"`
	Records  int              `json:"records"`
	Report   model.RiskReport `json:"report"`
}

// NewResult stamps a report with a fresh ID and the current time.
func NewResult(source string, report model.RiskReport) Result {
	return Result{
		ID:       uuid.NewString(),
		Source:   source,
		ScoredAt: time.Now().UTC(),
		Records:  report.Total(),
		Report:   report,
	}
}
