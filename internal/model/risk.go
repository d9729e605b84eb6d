package model

// RiskLevel is the band a fraud probability falls into.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskLevels lists every band, highest first.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskHigh, RiskMedium, RiskLow}
}

// ScoredRecord is a normalized record with the classifier's verdict.
type ScoredRecord struct {
	NormalizedRecord
	Probability float64   // always within [0,1]
	Level       RiskLevel // pure function of Probability
}

// Transaction is the display projection of a scored record.
type Transaction struct {
	TransNum           string    `json:"trans_num"`
	ID                 string    `json:"id"`
	CCNum              string    `json:"cc_num"`
	Amt                float64   `json:"amt"`
	Amount             float64   `json:"amount"`
	UnixTime           int64     `json:"unix_time"`
	Date               string    `json:"date"`
	TransDateTransTime string    `json:"trans_date_trans_time"`
	Merchant           string    `json:"merchant"`
	Category           string    `json:"category"`
	RiskLevel          RiskLevel `json:"risk_level"`
	FraudProbability   float64   `json:"fraud_probability"`
	First              string    `json:"first"`
	Last               string    `json:"last"`
	Gender             string    `json:"gender"`
}

// RiskReport summarizes one scored batch.
type RiskReport struct {
	Distribution  map[RiskLevel]int `json:"riskDistribution"`
	Probabilities []float64         `json:"fraudProbabilities"`
	High          []Transaction     `json:"highRiskTransactions"`
	Medium        []Transaction     `json:"mediumRiskTransactions"`
	Low           []Transaction     `json:"lowRiskTransactions"`
}

// Top returns the retained transactions for a band.
func (r RiskReport) Top(level RiskLevel) []Transaction {
	switch level {
	case RiskHigh:
		return r.High
	case RiskMedium:
		return r.Medium
	default:
		return r.Low
	}
}

// Total returns the number of records the report covers.
func (r RiskReport) Total() int {
	n := 0
	for _, c := range r.Distribution {
		n += c
	}
	return n
}
