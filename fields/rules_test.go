package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		rule Rule
		line string
		want bool
	}{
		{PriceLine, "$12,000", true},
		{PriceLine, "$12,000 obo", false},
		{PriceLine, "12,000", false},
		{FreeLine, "FREE", true},
		{FreeLine, "free delivery", false},
		{LocationLine, "Seattle, WA", true},
		{LocationLine, "Seattle, Washington", false},
		{LocationTail, "Runs great, WA", true},
		{LocationTail, "Runs great", false},
		{VehicleTitle, "2018 Honda Civic", true},
		{VehicleTitle, "Honda Civic", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule.Name+"/"+tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Match(tt.line))
		})
	}
}

func TestRuleFind(t *testing.T) {
	got, ok := LocationLabel.Find("Seattle, WA")
	assert.True(t, ok)
	assert.Equal(t, "Seattle, WA", got)

	_, ok = LocationLabel.Find("no location here")
	assert.False(t, ok)

	// Rules without an extractor match the whole text.
	got, ok = FreeLine.Find("Free")
	assert.True(t, ok)
	assert.Equal(t, "Free", got)
}

func TestTextLength(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Civic", 5},
		{"ééé", 3},
		{"🚗🚗🚗", 6},
		{"\xff", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TextLength(tt.in), tt.in)
	}
}
