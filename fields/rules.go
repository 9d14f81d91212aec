package fields

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Rule is a named text-classification rule over one flattened card line.
type Rule struct {
	Name  string
	match func(string) bool
	find  func(string) (string, bool)
}

// Match reports whether the whole line satisfies the rule.
func (r Rule) Match(line string) bool {
	return r.match(line)
}

// Find extracts the rule's token from free text, such as an accessibility
// label. Rules without an extractor fall back to Match on the whole text.
func (r Rule) Find(text string) (string, bool) {
	if r.find != nil {
		return r.find(text)
	}
	if r.match(text) {
		return text, true
	}
	return "", false
}

func patternRule(name string, re *regexp.Regexp) Rule {
	return Rule{Name: name, match: re.MatchString}
}

func captureRule(name string, re *regexp.Regexp) Rule {
	return Rule{
		Name:  name,
		match: re.MatchString,
		find: func(s string) (string, bool) {
			m := re.FindStringSubmatch(s)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	}
}

// FreeLiteral is the price token recorded for free listings.
const FreeLiteral = "Free"

var (
	// PriceLine is a strict dollar amount: "$12,000".
	PriceLine = patternRule("price", regexp.MustCompile(`^\$[\d,]+$`))

	// FreeLine is the literal "free" in any case.
	FreeLine = Rule{Name: "free", match: func(s string) bool {
		return strings.ToLower(s) == "free"
	}}

	// LocationTail catches lines ending in ", ST". Title detection skips them.
	LocationTail = patternRule("location-tail", regexp.MustCompile(`,\s*[A-Z]{2}$`))

	// LocationLine is a whole "City, ST" line.
	LocationLine = patternRule("location", regexp.MustCompile(`^[\w\s]+,\s*[A-Z]{2}$`))

	// LocationLabel pulls "City, ST" out of a longer accessibility label.
	LocationLabel = captureRule("location-label", regexp.MustCompile(`([\w\s]+,\s*[A-Z]{2})`))

	// VehicleTitle is a four-digit year followed by a word: "2018 Honda".
	VehicleTitle = patternRule("vehicle-title", regexp.MustCompile(`\d{4}\s+\w+`))
)

// MinTitleLength is the shortest line considered as a title, in TextLength units.
const MinTitleLength = 5

// TextLength measures s in UTF-16 code units, the unit rendered-page text
// lengths are counted in. Characters outside the BMP count twice.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}
