package riskscan

import (
	"github.com/crimson-sun/riskscan/internal/model"
)

// Risk bands.
const (
	High   = "High"
	Medium = "Medium"
	Low    = "Low"
)

// Transaction is one scored record as shown in a report.
// It marshals to the same shape the HTTP endpoint returns.
type Transaction struct {
	TransNum           string  `json:"trans_num"`
	ID                 string  `json:"id"`
	CCNum              string  `json:"cc_num"`
	Amt                float64 `json:"amt"`
	Amount             float64 `json:"amount"`
	UnixTime           int64   `json:"unix_time"`
	Date               string  `json:"date"`
	TransDateTransTime string  `json:"trans_date_trans_time"`
	Merchant           string  `json:"merchant"`
	Category           string  `json:"category"`
	RiskLevel          string  `json:"risk_level"`
	FraudProbability   float64 `json:"fraud_probability"`
	First              string  `json:"first"`
	Last               string  `json:"last"`
	Gender             string  `json:"gender"`
}

// Report summarizes one scored batch. Distribution always carries all three
// bands; each band list holds at most five transactions, highest
// probability first.
type Report struct {
	Distribution  map[string]int `json:"riskDistribution"`
	Probabilities []float64      `json:"fraudProbabilities"`
	High          []Transaction  `json:"highRiskTransactions"`
	Medium        []Transaction  `json:"mediumRiskTransactions"`
	Low           []Transaction  `json:"lowRiskTransactions"`
}

// Total returns the number of records the report covers.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Distribution {
		n += c
	}
	return n
}

func reportFromModel(r model.RiskReport) Report {
	dist := make(map[string]int, len(r.Distribution))
	for level, n := range r.Distribution {
		dist[string(level)] = n
	}
	return Report{
		Distribution:  dist,
		Probabilities: append([]float64{}, r.Probabilities...),
		High:          transactionsFromModel(r.High),
		Medium:        transactionsFromModel(r.Medium),
		Low:           transactionsFromModel(r.Low),
	}
}

func transactionsFromModel(ts []model.Transaction) []Transaction {
	out := make([]Transaction, len(ts))
	for i, t := range ts {
		out[i] = Transaction{
			TransNum:           t.TransNum,
			ID:                 t.ID,
			CCNum:              t.CCNum,
			Amt:                t.Amt,
			Amount:             t.Amount,
			UnixTime:           t.UnixTime,
			Date:               t.Date,
			TransDateTransTime: t.TransDateTransTime,
			Merchant:           t.Merchant,
			Category:           t.Category,
			RiskLevel:          string(t.RiskLevel),
			FraudProbability:   t.FraudProbability,
			First:              t.First,
			Last:               t.Last,
			Gender:             t.Gender,
		}
	}
	return out
}
