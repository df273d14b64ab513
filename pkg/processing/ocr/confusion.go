package ocr

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// confusionTable lists character pairs that OCR engines commonly mix up
// on race number panels. Lookup is symmetric and case-insensitive.
var confusionTable = map[rune]string{
	'0': "ODQ",
	'1': "IL7",
	'2': "Z",
	'3': "E",
	'4': "A",
	'5': "S",
	'6': "GB",
	'8': "B",
	'O': "0DQ",
	'D': "0O",
	'Q': "0O",
	'I': "1L",
	'L': "1I",
	'7': "1",
	'Z': "2",
	'E': "3",
	'A': "4",
	'S': "5",
	'G': "6",
	'B': "86",
}

func confusable(a, b rune) bool {
	if a == b {
		return true
	}
	if others, ok := confusionTable[a]; ok {
		return strings.ContainsRune(others, b)
	}
	return false
}

// ConfusionSimilarity compares two equal-length values character by
// character. The result is 1.0 for identical values and drops by 0.15
// per confusable substitution. It returns 0 when the values differ in
// length, have more than two substitutions, or contain a substitution
// that is not in the confusion table.
func ConfusionSimilarity(detected, rosterNumber string) float64 {
	a := []rune(strings.ToUpper(strings.TrimSpace(detected)))
	b := []rune(strings.ToUpper(strings.TrimSpace(rosterNumber)))
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	mismatches := 0
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if !confusable(a[i], b[i]) {
			return 0
		}
		mismatches++
		if mismatches > 2 {
			return 0
		}
	}
	if mismatches == 0 {
		return 1.0
	}
	return 1.0 - 0.15*float64(mismatches)
}

// IsTransposition reports whether b can be produced from a by swapping
// one adjacent character pair ("45" vs "54").
func IsTransposition(a, b string) bool {
	ra := []rune(strings.ToUpper(strings.TrimSpace(a)))
	rb := []rune(strings.ToUpper(strings.TrimSpace(b)))
	if len(ra) != len(rb) || len(ra) < 2 {
		return false
	}
	for i := 0; i < len(ra)-1; i++ {
		if ra[i] == rb[i] {
			continue
		}
		// first difference must be a swap, the rest must be equal
		if ra[i] != rb[i+1] || ra[i+1] != rb[i] {
			return false
		}
		return string(ra[:i]) == string(rb[:i]) &&
			string(ra[i+2:]) == string(rb[i+2:])
	}
	return false
}

// unit costs; the library default charges 2 per substitution
var levOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// EditDistance is the plain character-level Levenshtein distance.
func EditDistance(a, b string) int {
	return levenshtein.DistanceForStrings(
		[]rune(strings.ToUpper(a)),
		[]rune(strings.ToUpper(b)),
		levOptions)
}

// withinCorrectionBounds gates corrections to edit distance <= 2 and
// length difference <= 1.
func withinCorrectionBounds(a, b string) bool {
	la, lb := len([]rune(a)), len([]rune(b))
	diff := la - lb
	if diff < -1 || diff > 1 {
		return false
	}
	return EditDistance(a, b) <= 2
}
