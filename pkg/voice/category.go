package voice

import (
	"slices"
	"strings"
)

// Category is one of the fixed expense categories.
type Category string

const (
	FoodAndDining     Category = "Food & Dining"
	Grocery           Category = "Grocery"
	Transportation    Category = "Transportation"
	Shopping          Category = "Shopping"
	Entertainment     Category = "Entertainment"
	BillsAndUtilities Category = "Bills & Utilities"
	Healthcare        Category = "Healthcare"
	Education         Category = "Education"
	Other             Category = "Other"
)

// CategoryRule maps a category to the keywords that select it.
type CategoryRule struct {
	Category Category
	Keywords []string
}

// categoryRules is evaluated top to bottom and the first rule with a matching
// keyword wins, so a transcript naming both a restaurant and a taxi is always
// Food & Dining. Keywords are lowercase.
var categoryRules = []CategoryRule{
	{Category: FoodAndDining, Keywords: []string{
		"food", "restaurant", "restaurants", "lunch", "dinner", "breakfast", "brunch",
		"coffee", "tea", "cafe", "café", "pizza", "burger", "burgers", "sandwich",
		"meal", "meals", "snack", "snacks", "dessert", "ice cream", "takeaway", "takeout",
		"bakery", "juice", "drinks", "shawarma", "biryani", "starbucks", "mcdonalds",
		"mcdonald's", "kfc", "zomato", "swiggy", "talabat", "deliveroo",
	}},
	{Category: Grocery, Keywords: []string{
		"grocery", "groceries", "supermarket", "hypermarket", "vegetables", "veggies",
		"fruit", "fruits", "milk", "bread", "eggs", "carrefour", "lulu", "spinneys",
		"walmart", "costco", "bigbasket", "instacart",
	}},
	{Category: Transportation, Keywords: []string{
		"taxi", "cab", "uber", "careem", "lyft", "ola", "bus", "metro", "train", "tram",
		"ferry", "flight", "flights", "airline", "airport", "fuel", "petrol", "diesel",
		"gas station", "parking", "toll", "salik", "rickshaw",
	}},
	{Category: Shopping, Keywords: []string{
		"shopping", "clothes", "clothing", "shoes", "shirt", "dress", "jeans", "mall",
		"amazon", "flipkart", "electronics", "gadget", "gadgets", "smartphone", "laptop",
		"gift", "gifts", "jewelry", "jewellery", "furniture", "ikea",
	}},
	{Category: Entertainment, Keywords: []string{
		"movie", "movies", "cinema", "film", "netflix", "spotify", "concert", "concerts",
		"game", "games", "gaming", "theater", "theatre", "bowling", "museum", "streaming",
		"party",
	}},
	{Category: BillsAndUtilities, Keywords: []string{
		"bill", "bills", "electricity", "water bill", "internet", "wifi", "wi-fi", "rent",
		"phone bill", "mobile recharge", "recharge", "gas bill", "utility", "utilities",
		"dewa", "etisalat", "subscription", "insurance",
	}},
	{Category: Healthcare, Keywords: []string{
		"doctor", "hospital", "clinic", "pharmacy", "medicine", "medicines", "medical",
		"dentist", "dental", "health", "checkup", "prescription", "chemist", "vitamins",
	}},
	{Category: Education, Keywords: []string{
		"school", "tuition", "course", "courses", "textbook", "textbooks", "college",
		"university", "class", "classes", "exam", "stationery", "udemy", "coursera",
	}},
	{Category: Other, Keywords: []string{"misc", "miscellaneous"}},
}

// CategoryRules returns a copy of the category reference table.
func CategoryRules() []CategoryRule {
	return slices.Clone(categoryRules)
}

// Categories returns every category in table order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules))
	for _, r := range categoryRules {
		out = append(out, r.Category)
	}
	return out
}

// ClassifyCategory returns the category of the first rule whose keyword
// appears in the transcript as a whole word, or Other.
func ClassifyCategory(transcript string) Category {
	text := normalize(transcript)
	if text == "" {
		return Other
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.Keywords {
			if containsTerm(text, kw) {
				return rule.Category
			}
		}
	}
	return Other
}

// ParseCategory maps a category name from a deep link onto the closed set.
// It accepts the display name in any case, a name with "and" in place of "&",
// or any single keyword of the category ("groceries").
func ParseCategory(name string) (Category, bool) {
	text := normalize(name)
	if text == "" {
		return "", false
	}
	compact := strings.ReplaceAll(text, " and ", " & ")
	for _, rule := range categoryRules {
		display := strings.ToLower(string(rule.Category))
		if compact == display || compact == strings.Fields(display)[0] {
			return rule.Category, true
		}
	}
	for _, rule := range categoryRules {
		if slices.Contains(rule.Keywords, text) {
			return rule.Category, true
		}
	}
	return "", false
}

func categoryTerms() []string {
	var terms []string
	for _, rule := range categoryRules {
		for _, kw := range rule.Keywords {
			if isWord(kw) {
				terms = append(terms, kw)
			}
		}
	}
	return terms
}
