package search

import (
	"regexp"
	"strings"
)

// narrativeMarkers are words that only show up when someone is describing a
// plot rather than naming a title.
var narrativeMarkers = []string{
	"about",
	"story",
	"where",
	"who",
	"man",
	"woman",
	"boy",
	"girl",
	"based on",
	"set in",
	"finds",
	"journey",
}

const maxTitleWords = 6

// tvHint matches queries that explicitly ask for a show, so catalog
// resolution can prefer the tv namespace over the movie one.
var tvHint = regexp.MustCompile(`(?i)\b(show|series|season)\b`)

// IsLikelyTitle reports whether query looks like a concrete title lookup
// rather than a plot description. Title lookups skip the resolver and go
// straight to catalog search.
func IsLikelyTitle(query string) bool {
	lower := strings.ToLower(query)
	for _, marker := range narrativeMarkers {
		if containsWord(lower, marker) {
			return false
		}
	}
	return len(strings.Fields(query)) <= maxTitleWords
}

// containsWord reports whether phrase appears in text on word boundaries.
// Substring matching would misfire on titles like "Batman" (contains "man").
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || !isWordChar(text[start-1])
		endOK := end == len(text) || !isWordChar(text[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
