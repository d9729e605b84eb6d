package schema

import "fmt"

// categorySlots is the width of the category one-hot group. Slots past the
// last keyword rule are declared for the model's benefit and stay zero.
const categorySlots = 13

// defaultAge is used when neither age nor a parseable birth date is present.
const defaultAge = 30

// DefaultAliases returns the built-in source-name → canonical-name table.
// Order is precedence: when two aliases target the same canonical field, the
// first applicable one wins.
func DefaultAliases() []Alias {
	return []Alias{
		{Source: "transaction_id", Target: "trans_num"},
		{Source: "transaction_date", Target: "trans_date_trans_time"},
		{Source: "credit_card", Target: "cc_num"},
		{Source: "amount", Target: "amt"},
		{Source: "merchant_name", Target: "merchant"},
		{Source: "merchant_category", Target: "category"},
		{Source: "timestamp", Target: "unix_time"},
	}
}

// DefaultCategoryRules returns the keyword rules in priority order.
// The catch-all slot is 1, so "grocery" maps to the same slot as unmatched text.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Slot: 1, Keywords: []string{"grocery"}},
		{Slot: 2, Keywords: []string{"gas", "transport"}},
		{Slot: 3, Keywords: []string{"entertainment"}},
		{Slot: 4, Keywords: []string{"misc"}},
		{Slot: 5, Keywords: []string{"health"}},
		{Slot: 6, Keywords: []string{"food", "dining"}},
		{Slot: 7, Keywords: []string{"shopping"}},
	}
}

// DefaultStateCodes returns the 50 region codes of the state one-hot group.
func DefaultStateCodes() []string {
	return []string{
		"AL", "AR", "AZ", "CA", "CO", "CT", "DC", "DE", "FL", "GA",
		"HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA", "MD",
		"ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE", "NH",
		"NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV", "WY",
	}
}

// DefaultDateLayouts returns the layouts tried, in order, when parsing
// transaction and birth dates. Zone-less layouts are read as UTC.
func DefaultDateLayouts() []string {
	return []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006",
		"1/2/2006 15:04",
		"1/2/2006",
	}
}

// DefaultFeatures returns the feature order the bundled model was trained on.
func DefaultFeatures() []string {
	features := []string{
		"amt", "zip", "lat", "long", "city_pop", "unix_time",
		"merch_lat", "merch_long", "age",
		"transaction_hour", "year", "month", "day", "hour",
		"gender_M",
	}
	for i := 1; i <= categorySlots; i++ {
		features = append(features, CategorySlot(i))
	}
	for _, code := range DefaultStateCodes() {
		features = append(features, StateFlag(code))
	}
	return features
}

// Default returns the built-in schema.
func Default() *Schema {
	s, err := New(Spec{
		Aliases:       DefaultAliases(),
		Features:      DefaultFeatures(),
		CategoryRules: DefaultCategoryRules(),
		CategorySlots: categorySlots,
		StateCodes:    DefaultStateCodes(),
		DateLayouts:   DefaultDateLayouts(),
		DefaultAge:    defaultAge,
	})
	if err != nil {
		panic(fmt.Sprintf("schema: built-in default is invalid: %v", err))
	}
	return s
}
