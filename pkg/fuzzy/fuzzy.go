package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is one weighted piece of text a query is scored against.
type Field struct {
	Text   string
	Weight float64
}

// LevenshteinDistance returns the number of single-rune edits between two strings
// after case and accent folding.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(Normalize(s1))
	r2 := []rune(Normalize(s2))
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rolling rows
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold is the typo tolerance for a query of the given length.
func Threshold(query string) int {
	n := len([]rune(query))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// Match reports whether query appears in text, allowing typos per word.
func Match(query, text string) bool {
	q := Normalize(query)
	t := Normalize(text)
	if q == "" {
		return true
	}
	if strings.Contains(t, q) {
		return true
	}
	threshold := Threshold(q)
	for _, word := range strings.Fields(t) {
		if strings.HasPrefix(word, q) || LevenshteinDistance(q, word) <= threshold {
			return true
		}
	}
	return false
}

// Score ranks how well query matches the fields. Zero means no match.
func Score(query string, fields ...Field) float64 {
	q := Normalize(query)
	if q == "" {
		return 0
	}
	score := 0.0
	for _, f := range fields {
		t := Normalize(f.Text)
		if t == "" {
			continue
		}
		if strings.Contains(t, q) {
			score += f.Weight
			if containsWord(t, q) {
				score += f.Weight / 2
			}
			continue
		}
		for _, word := range strings.Fields(t) {
			if strings.HasPrefix(word, q) {
				score += f.Weight * 0.4
			}
			if dist := LevenshteinDistance(q, word); dist <= Threshold(q) {
				score += f.Weight * (0.5 - 0.15*float64(dist))
			}
		}
	}
	return score
}

// Normalize lowercases, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	// A chain holds buffers, so it is built per call.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	return strings.Join(strings.Fields(folded), " ")
}

func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
