package voice

// Signals records which fields a parse produced.
type Signals struct {
	AmountFound      bool
	CurrencyDetected bool
	CategoryMatched  bool
	MerchantFound    bool
}

// Weights are in hundredths so the sum is exact.
const (
	amountWeight   = 50
	currencyWeight = 20
	categoryWeight = 20
	merchantWeight = 10
)

// DefaultConfidenceThreshold is the score at or above which an expense with an
// amount is saved without asking.
const DefaultConfidenceThreshold = 0.7

// Score combines the signals into a confidence in [0, 1]. The amount carries
// the most weight, then an explicit currency and a known category, then the
// merchant.
func Score(s Signals) float64 {
	total := 0
	if s.AmountFound {
		total += amountWeight
	}
	if s.CurrencyDetected {
		total += currencyWeight
	}
	if s.CategoryMatched {
		total += categoryWeight
	}
	if s.MerchantFound {
		total += merchantWeight
	}
	return min(max(float64(total)/100, 0), 1)
}

// Decision is what the caller should do with a parsed expense.
type Decision int

const (
	Confirm Decision = iota
	AutoSave
)

func (d Decision) String() string {
	switch d {
	case AutoSave:
		return "auto_save"
	case Confirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// MarshalText lets a Decision appear as a string in JSON bodies and logs.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Decide returns AutoSave when score reaches threshold. A threshold outside
// (0, 1] falls back to DefaultConfidenceThreshold.
func Decide(score, threshold float64) Decision {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	if score >= threshold {
		return AutoSave
	}
	return Confirm
}
