package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Class is the classifier verdict for a location name.
type Class int

const (
	// ClassVague names are neither generic nor clearly a venue. They are not
	// geocoded as venues and resolve through the city tier.
	ClassVague Class = iota
	// ClassGeneric names describe an activity rather than a place.
	ClassGeneric
	// ClassSpecific names identify a point of interest worth geocoding.
	ClassSpecific
)

func (c Class) String() string {
	switch c {
	case ClassGeneric:
		return "generic"
	case ClassSpecific:
		return "specific"
	default:
		return "vague"
	}
}

// specificLengthThreshold is the rune count above which a name without a
// generic term is treated as a venue.
const specificLengthThreshold = 15

var (
	// genericRe matches meal, lodging, vague spatial and temporal filler
	// vocabulary on whole words of the normalised name.
	genericRe = regexp.MustCompile(`\b(` + strings.Join([]string{
		`breakfast`, `brunch`, `lunch`, `dinner`, `meals?`,
		`hotels?`, `accommodations?`, `lodging`,
		`spots?`, `areas?`, `zones?`,
		`morning activity`, `free time`, `free (?:morning|afternoon|evening|day)`,
		`rest`, `check[- ]?in`, `check[- ]?out`,
	}, `|`) + `)\b`)

	landmarkRe = regexp.MustCompile(`\b(` + strings.Join([]string{
		`museums?`, `temples?`, `forts?`, `palaces?`, `parks?`, `markets?`,
		`malls?`, `restaurants?`, `cafes?`, `beach(?:es)?`, `towers?`, `gates?`,
		`squares?`, `stations?`, `airports?`,
	}, `|`) + `)\b`)
)

// Classify decides whether a location name is worth a paid geocode.
// A generic match wins regardless of length; empty names are generic.
func Classify(name string) Class {
	name = strings.TrimSpace(name)
	if name == "" {
		return ClassGeneric
	}

	folded := Normalize(name)
	if genericRe.MatchString(folded) {
		return ClassGeneric
	}
	if landmarkRe.MatchString(folded) {
		return ClassSpecific
	}
	if utf8.RuneCountInString(name) > specificLengthThreshold {
		return ClassSpecific
	}
	if isProperName(name) {
		return ClassSpecific
	}
	return ClassVague
}

// IsGeneric reports whether name should never be geocoded.
func IsGeneric(name string) bool {
	return Classify(name) == ClassGeneric
}

// isProperName reports whether name has at least two words and every word
// starts with an upper-case letter, e.g. "Taj Mahal" or "Hawa Mahal".
func isProperName(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
