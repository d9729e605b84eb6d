// Package risk turns classifier probabilities into risk bands and
// summarizes a scored batch into a report.
package risk

import "github.com/crimson-sun/riskscan/internal/model"

// Band thresholds. Both bounds are exclusive: 0.3 is Low and 0.6 is Medium.
const (
	HighThreshold   = 0.6
	MediumThreshold = 0.3
)

// Bucketize maps a probability to its risk band.
func Bucketize(p float64) model.RiskLevel {
	switch {
	case p > HighThreshold:
		return model.RiskHigh
	case p > MediumThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Score pairs each normalized record with its probability and band.
// records and probs must have equal length.
func Score(records []model.NormalizedRecord, probs []float64) []model.ScoredRecord {
	scored := make([]model.ScoredRecord, len(records))
	for i, rec := range records {
		scored[i] = model.ScoredRecord{
			NormalizedRecord: rec,
			Probability:      probs[i],
			Level:            Bucketize(probs[i]),
		}
	}
	return scored
}
