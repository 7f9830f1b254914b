package resolver

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Suggestion is one title the model proposed. Year stays a string because
// models emit both "2016" and 2016; flexYear absorbs either form.
type Suggestion struct {
	Title     string   `json:"title"`
	Year      flexYear `json:"year"`
	MediaType string   `json:"media_type"`
}

type flexYear string

func (y *flexYear) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = flexYear(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = flexYear(fmt.Sprint(n))
		return nil
	}
	*y = ""
	return nil
}

func (y flexYear) String() string { return string(y) }

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractSuggestions pulls the first JSON array out of model output, which
// routinely arrives wrapped in prose or markdown fences. Malformed output
// yields an empty slice, never an error; the caller's fallback handles it.
func ExtractSuggestions(text string) []Suggestion {
	text = stripFences(text)

	match := arrayPattern.FindString(text)
	if match == "" {
		return nil
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(match), &suggestions); err != nil {
		return nil
	}

	out := suggestions[:0]
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
