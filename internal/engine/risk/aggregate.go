package risk

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/crimson-sun/riskscan/internal/model"
)

const (
	// TopN is how many records each band's list retains.
	TopN = 5
	// SampleSize is how many leading probabilities the report carries.
	SampleSize = 8
)

// Aggregate builds the batch report. Counts cover every record; each band
// keeps its TopN highest-probability records, ties in batch order.
func Aggregate(scored []model.ScoredRecord) model.RiskReport {
	report := model.RiskReport{
		Distribution:  make(map[model.RiskLevel]int, 3),
		Probabilities: sample(scored),
	}
	bands := make(map[model.RiskLevel][]model.ScoredRecord, 3)
	for _, level := range model.RiskLevels() {
		report.Distribution[level] = 0
	}
	for _, s := range scored {
		report.Distribution[s.Level]++
		bands[s.Level] = append(bands[s.Level], s)
	}

	report.High = top(bands[model.RiskHigh])
	report.Medium = top(bands[model.RiskMedium])
	report.Low = top(bands[model.RiskLow])
	return report
}

// sample returns the first SampleSize probabilities rounded to 2 decimals.
// Halves round to even on the scaled binary value, so 0.125 becomes 0.12.
func sample(scored []model.ScoredRecord) []float64 {
	n := min(len(scored), SampleSize)
	out := make([]float64, n)
	for i := range n {
		out[i] = decimal.NewFromFloat(scored[i].Probability * 100).RoundBank(0).Shift(-2).InexactFloat64()
	}
	return out
}

func top(band []model.ScoredRecord) []model.Transaction {
	sorted := slices.Clone(band)
	slices.SortStableFunc(sorted, func(a, b model.ScoredRecord) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	sorted = sorted[:min(len(sorted), TopN)]

	out := make([]model.Transaction, len(sorted))
	for i, s := range sorted {
		out[i] = Enrich(s)
	}
	return out
}
