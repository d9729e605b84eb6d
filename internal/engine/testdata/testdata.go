// Package testdata embeds a heterogeneous sample batch with the normalized
// values each row must produce.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// TransactionsCSV is a spreadsheet-style export: an index artifact column,
// aliased column names, and messy amounts, cards, dates and states.
//
//go:embed transactions.csv
var TransactionsCSV []byte

//go:embed expectations.json
var expectationsJSON []byte

// Expectation is the normalized outcome for one row of TransactionsCSV.
type Expectation struct {
	Row          int     `json:"row"`
	ID           string  `json:"id"`
	CCNum        string  `json:"cc_num"`
	Amt          float64 `json:"amt"`
	CategorySlot int     `json:"category_slot"`
	GenderM      int     `json:"gender_m"`
	State        string  `json:"state"` // "" when no state flag is set
	Hour         int     `json:"hour"`  // -1 when the date does not parse
	Description  string  `json:"description"`
}

// LoadExpectations parses the embedded expectations.json.
func LoadExpectations() ([]Expectation, error) {
	var entries []Expectation
	if err := json.Unmarshal(expectationsJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse expectations.json: %w", err)
	}
	return entries, nil
}
