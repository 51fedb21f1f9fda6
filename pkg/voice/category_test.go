package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		transcript string
		want       Category
	}{
		{"I just spent two thousand dirhams on groceries", Grocery},
		{"I spent ₹20 for tea", FoodAndDining},
		{"dinner and then a taxi home", FoodAndDining},
		{"uber to the airport", Transportation},
		{"I spent 50 for shopping", Shopping},
		{"netflix subscription", Entertainment},
		{"paid the electricity bill", BillsAndUtilities},
		{"medicine from the pharmacy", Healthcare},
		{"tuition fees", Education},
		{"misc stuff", Other},
		{"five lakh rupees for the car", Other},
		{"new cabinet", Other},
		{"CAFÉ LATTE", FoodAndDining},
		{"", Other},
	}

	for _, tc := range tests {
		t.Run(tc.transcript, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyCategory(tc.transcript))
		})
	}
}

func TestClassifyCategory_RuleOrder(t *testing.T) {
	// Every keyword classifies to its own rule or to an earlier one.
	rules := CategoryRules()
	position := make(map[Category]int, len(rules))
	for i, r := range rules {
		position[r.Category] = i
	}
	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			got := ClassifyCategory(kw)
			assert.LessOrEqual(t, position[got], i, "keyword %q", kw)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name string
		want Category
		ok   bool
	}{
		{"food", FoodAndDining, true},
		{"Food & Dining", FoodAndDining, true},
		{"bills and utilities", BillsAndUtilities, true},
		{"BILLS", BillsAndUtilities, true},
		{"groceries", Grocery, true},
		{"taxi", Transportation, true},
		{"other", Other, true},
		{"unknown", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCategory(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	assert.Len(t, cats, 9)
	assert.Equal(t, Other, cats[len(cats)-1])
}
