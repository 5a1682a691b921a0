package analysis

import "unicode"

// Class is the script class of an analyzed term. It decides whether a
// query term gates inclusion or only contributes to ranking.
type Class int

const (
	// ClassOther covers Latin and mixed terms.
	ClassOther Class = iota
	// ClassCJK covers terms made only of Han characters.
	ClassCJK
)

// String returns the class name used in logs.
func (c Class) String() string {
	if c == ClassCJK {
		return "cjk"
	}
	return "other"
}

// Classify returns ClassCJK when every rune of term is Han.
func Classify(term string) Class {
	if term == "" {
		return ClassOther
	}
	for _, r := range term {
		if !unicode.Is(unicode.Han, r) {
			return ClassOther
		}
	}
	return ClassCJK
}

// Searchable reports whether term is non-empty and made only of ASCII
// letters and Han characters. Digits, punctuation and other scripts
// disqualify it.
func Searchable(term string) bool {
	if term == "" {
		return false
	}
	for _, r := range term {
		if !isLatinLetter(r) && !unicode.Is(unicode.Han, r) {
			return false
		}
	}
	return true
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
