package risk

import "github.com/crimson-sun/riskscan/internal/model"

// Defaults substituted into the display projection when a field is absent.
const (
	defaultMerchant    = "Unknown"
	defaultProbability = 0.5
	defaultLevel       = model.RiskMedium
)

// Enrich projects a scored record into the fixed display shape.
func Enrich(s model.ScoredRecord) model.Transaction {
	f := s.Fields

	transNum := f.Text(model.FieldTransNum, "")
	if transNum == "" {
		transNum = f.Text(model.FieldID, "")
	}

	var unix int64
	if v, ok := f.Get(model.FieldUnixTime); ok {
		if n, err := v.Int(); err == nil {
			unix = n
		}
	}

	amt := f.Float(model.FieldAmount, 0)
	date := f.Text(model.FieldTransDate, "")

	level := s.Level
	prob := s.Probability
	if level == "" {
		level = defaultLevel
		prob = defaultProbability
	}

	return model.Transaction{
		TransNum:           transNum,
		ID:                 transNum,
		CCNum:              f.Text(model.FieldCCNum, ""),
		Amt:                amt,
		Amount:             amt,
		UnixTime:           unix,
		Date:               date,
		TransDateTransTime: date,
		Merchant:           f.Text(model.FieldMerchant, defaultMerchant),
		Category:           f.Text(model.FieldCategory, ""),
		RiskLevel:          level,
		FraudProbability:   prob,
		First:              f.Text(model.FieldFirst, ""),
		Last:               f.Text(model.FieldLast, ""),
		Gender:             f.Text(model.FieldGender, ""),
	}
}
