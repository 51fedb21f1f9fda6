package voice

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CurrencyCode is an ISO 4217 currency code.
type CurrencyCode string

// Currencies with a place in the detection priority list.
const (
	AED CurrencyCode = "AED"
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	INR CurrencyCode = "INR"
	SAR CurrencyCode = "SAR"
)

// SystemDefaultCurrency is used when the caller supplies no usable default.
const SystemDefaultCurrency = AED

// CurrencyDefinition describes how a currency can appear in a transcript.
// Symbols lists every known variant rather than relying on normalization.
type CurrencyDefinition struct {
	Code     CurrencyCode
	Name     string
	Symbols  []string
	Keywords []string
	// Counted keywords are everyday English words ("pound", "won") that only
	// name the currency directly after an amount: "50 pounds", "fifty won".
	Counted  []string
	RTL      bool
}

// currencyTable has 36 entries. Ambiguous English words ("try", "real", "rub",
// "le") are left out of the keyword lists.
var currencyTable = []CurrencyDefinition{
	{Code: AED, Name: "UAE Dirham", Symbols: []string{"د.إ", "AED", "Dhs", "Dhs.", "Dh"}, Keywords: []string{"dirham", "dirhams", "emirati dirham", "emirati dirhams", "uae dirham", "uae dirhams"}, RTL: true},
	{Code: USD, Name: "US Dollar", Symbols: []string{"$", "US$", "USD"}, Keywords: []string{"dollar", "dollars", "us dollar", "us dollars", "american dollar", "american dollars", "bucks"}},
	{Code: EUR, Name: "Euro", Symbols: []string{"€", "EUR"}, Keywords: []string{"euro", "euros"}},
	{Code: GBP, Name: "British Pound", Symbols: []string{"£", "GBP"}, Keywords: []string{"pound sterling", "pounds sterling", "sterling", "british pound", "british pounds", "quid"}, Counted: []string{"pound", "pounds"}},
	{Code: INR, Name: "Indian Rupee", Symbols: []string{"₹", "₨", "Rs", "Rs.", "INR"}, Keywords: []string{"rupee", "rupees", "indian rupee", "indian rupees"}},
	{Code: SAR, Name: "Saudi Riyal", Symbols: []string{"﷼", "SAR"}, Keywords: []string{"riyal", "riyals", "saudi riyal", "saudi riyals"}, RTL: true},
	{Code: "CAD", Name: "Canadian Dollar", Symbols: []string{"C$", "CA$", "CAD"}, Keywords: []string{"canadian dollar", "canadian dollars"}},
	{Code: "AUD", Name: "Australian Dollar", Symbols: []string{"A$", "AU$", "AUD"}, Keywords: []string{"australian dollar", "australian dollars"}},
	{Code: "SGD", Name: "Singapore Dollar", Symbols: []string{"S$", "SGD"}, Keywords: []string{"singapore dollar", "singapore dollars"}},
	{Code: "HKD", Name: "Hong Kong Dollar", Symbols: []string{"HK$", "HKD"}, Keywords: []string{"hong kong dollar", "hong kong dollars"}},
	{Code: "NZD", Name: "New Zealand Dollar", Symbols: []string{"NZ$", "NZD"}, Keywords: []string{"new zealand dollar", "new zealand dollars"}},
	{Code: "JPY", Name: "Japanese Yen", Symbols: []string{"¥", "JP¥", "JPY"}, Keywords: []string{"yen", "japanese yen"}},
	{Code: "CNY", Name: "Chinese Yuan", Symbols: []string{"CN¥", "元", "CNY", "RMB"}, Keywords: []string{"yuan", "chinese yuan", "renminbi"}},
	{Code: "KRW", Name: "South Korean Won", Symbols: []string{"₩", "KRW"}, Keywords: []string{"korean won", "south korean won"}, Counted: []string{"won"}},
	{Code: "CHF", Name: "Swiss Franc", Symbols: []string{"CHF"}, Keywords: []string{"franc", "francs", "swiss franc", "swiss francs"}},
	{Code: "IDR", Name: "Indonesian Rupiah", Symbols: []string{"Rp", "IDR"}, Keywords: []string{"rupiah", "rupiahs", "indonesian rupiah"}},
	{Code: "MYR", Name: "Malaysian Ringgit", Symbols: []string{"RM", "MYR"}, Keywords: []string{"ringgit", "ringgits", "malaysian ringgit"}},
	{Code: "THB", Name: "Thai Baht", Symbols: []string{"฿", "THB"}, Keywords: []string{"baht", "thai baht"}},
	{Code: "PHP", Name: "Philippine Peso", Symbols: []string{"₱", "PHP"}, Keywords: []string{"philippine peso", "philippine pesos"}},
	{Code: "PKR", Name: "Pakistani Rupee", Symbols: []string{"PKR"}, Keywords: []string{"pakistani rupee", "pakistani rupees"}, RTL: true},
	{Code: "BDT", Name: "Bangladeshi Taka", Symbols: []string{"৳", "BDT", "Tk"}, Keywords: []string{"taka", "bangladeshi taka"}},
	{Code: "LKR", Name: "Sri Lankan Rupee", Symbols: []string{"LKR"}, Keywords: []string{"sri lankan rupee", "sri lankan rupees"}},
	{Code: "NPR", Name: "Nepalese Rupee", Symbols: []string{"NPR"}, Keywords: []string{"nepalese rupee", "nepalese rupees", "nepali rupee", "nepali rupees"}},
	{Code: "EGP", Name: "Egyptian Pound", Symbols: []string{"E£", "EGP"}, Keywords: []string{"egyptian pound", "egyptian pounds"}, RTL: true},
	{Code: "QAR", Name: "Qatari Riyal", Symbols: []string{"QAR"}, Keywords: []string{"qatari riyal", "qatari riyals"}, RTL: true},
	{Code: "KWD", Name: "Kuwaiti Dinar", Symbols: []string{"KWD"}, Keywords: []string{"dinar", "dinars", "kuwaiti dinar", "kuwaiti dinars"}, RTL: true},
	{Code: "BHD", Name: "Bahraini Dinar", Symbols: []string{"BHD"}, Keywords: []string{"bahraini dinar", "bahraini dinars"}, RTL: true},
	{Code: "OMR", Name: "Omani Rial", Symbols: []string{"OMR"}, Keywords: []string{"rial", "rials", "omani rial", "omani rials"}, RTL: true},
	{Code: "JOD", Name: "Jordanian Dinar", Symbols: []string{"JOD"}, Keywords: []string{"jordanian dinar", "jordanian dinars"}, RTL: true},
	{Code: "TRY", Name: "Turkish Lira", Symbols: []string{"₺"}, Keywords: []string{"lira", "liras", "turkish lira", "turkish liras"}},
	{Code: "ZAR", Name: "South African Rand", Symbols: []string{"ZAR"}, Keywords: []string{"rand", "rands", "south african rand"}},
	{Code: "NGN", Name: "Nigerian Naira", Symbols: []string{"₦", "NGN"}, Keywords: []string{"naira", "nigerian naira"}},
	{Code: "KES", Name: "Kenyan Shilling", Symbols: []string{"KES", "KSh"}, Keywords: []string{"shilling", "shillings", "kenyan shilling", "kenyan shillings"}},
	{Code: "BRL", Name: "Brazilian Real", Symbols: []string{"R$", "BRL"}, Keywords: []string{"reais", "brazilian real", "brazilian reais"}},
	{Code: "MXN", Name: "Mexican Peso", Symbols: []string{"MX$", "Mex$", "MXN"}, Keywords: []string{"peso", "pesos", "mexican peso", "mexican pesos"}},
	{Code: "RUB", Name: "Russian Ruble", Symbols: []string{"₽", "RUB"}, Keywords: []string{"ruble", "rubles", "rouble", "roubles", "russian ruble", "russian rubles"}},
}

// currencyPriority breaks ties between equally long matches.
var currencyPriority = []CurrencyCode{AED, USD, EUR, GBP, INR, SAR}

type currencyMatcher struct {
	code    CurrencyCode
	rank    int
	terms   []string
	counted []string
}

var (
	currencyIndex    = indexCurrencies(currencyTable)
	currencyMatchers = buildCurrencyMatchers(currencyTable)
)

func indexCurrencies(table []CurrencyDefinition) map[CurrencyCode]int {
	index := make(map[CurrencyCode]int, len(table))
	for i, def := range table {
		index[def.Code] = i
	}
	return index
}

func buildCurrencyMatchers(table []CurrencyDefinition) []currencyMatcher {
	matchers := make([]currencyMatcher, 0, len(table))
	for i, def := range table {
		rank := len(currencyPriority) + i
		if p := slices.Index(currencyPriority, def.Code); p >= 0 {
			rank = p
		}
		terms := make([]string, 0, len(def.Symbols)+len(def.Keywords))
		for _, term := range slices.Concat(def.Symbols, def.Keywords) {
			terms = append(terms, normalize(term))
		}
		counted := make([]string, 0, len(def.Counted))
		for _, term := range def.Counted {
			counted = append(counted, normalize(term))
		}
		matchers = append(matchers, currencyMatcher{code: def.Code, rank: rank, terms: terms, counted: counted})
	}
	return matchers
}

// longestMatch returns the rune length of the longest term found in text, or 0.
func (m currencyMatcher) longestMatch(text string) int {
	longest := 0
	for _, term := range m.terms {
		if n := utf8.RuneCountInString(term); n > longest && containsTerm(text, term) {
			longest = n
		}
	}
	for _, term := range m.counted {
		if n := utf8.RuneCountInString(term); n > longest && containsCountedTerm(text, term) {
			longest = n
		}
	}
	return longest
}

// containsCountedTerm is containsTerm restricted to occurrences that follow an
// amount: a word holding a digit ("50", "5k") or a number or scale word.
func containsCountedTerm(text, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		if letterBounded(text, start, start+len(term)) && followsAmount(text[:start]) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func followsAmount(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	word := fields[len(fields)-1]
	if strings.IndexFunc(word, unicode.IsDigit) >= 0 {
		return true
	}
	if i := strings.LastIndexByte(word, '-'); i >= 0 {
		word = word[i+1:]
	}
	word = strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
	if _, ok := numberWords[word]; ok {
		return true
	}
	_, ok := lookupScale(word)
	return ok
}

// Currencies returns a copy of the currency reference table.
func Currencies() []CurrencyDefinition {
	return slices.Clone(currencyTable)
}

// LookupCurrency finds a currency by ISO code, ignoring case and surrounding space.
func LookupCurrency(code string) (CurrencyDefinition, bool) {
	i, ok := currencyIndex[CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))]
	if !ok {
		return CurrencyDefinition{}, false
	}
	return currencyTable[i], true
}

// currencyTerms returns every normalized symbol and keyword that is made of
// letters only. The merchant extractor treats these as stop-words.
func currencyTerms() []string {
	var terms []string
	for _, m := range currencyMatchers {
		for _, term := range m.terms {
			if isWord(term) {
				terms = append(terms, term)
			}
		}
		terms = append(terms, m.counted...)
	}
	return terms
}
