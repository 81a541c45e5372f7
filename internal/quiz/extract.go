package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/models"
)

// RawPrefixLimit is how much of a bad model response is kept for diagnosis.
const RawPrefixLimit = 500

const fence = "```"

type strategy struct {
	name  string
	match func(text string) (string, bool)
}

// strategies are tried in order; the first match wins and the last always matches.
var strategies = []strategy{
	{name: "json-fence", match: fenced(fence + "json")},
	{name: "generic-fence", match: fenced(fence)},
	{name: "whole", match: func(text string) (string, bool) { return strings.TrimSpace(text), true }},
}

// fenced takes what follows the first opening marker up to the next fence,
// or to the end of the text when the block is never closed.
func fenced(open string) func(string) (string, bool) {
	return func(text string) (string, bool) {
		_, after, found := strings.Cut(text, open)
		if !found {
			return "", false
		}
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body), true
	}
}

// ExtractPayload locates the JSON payload in a free-form model response.
func ExtractPayload(raw string) string {
	payload, _ := extractPayload(raw)
	return payload
}

func extractPayload(raw string) (payload, strategyName string) {
	for _, s := range strategies {
		if p, ok := s.match(raw); ok {
			return p, s.name
		}
	}
	return strings.TrimSpace(raw), "whole"
}

// Parse extracts and decodes a quiz from a model response. Invalid JSON is a
// ParseError carrying the first RawPrefixLimit characters of raw.
func Parse(raw string) (*models.Quiz, error) {
	q, _, err := parse(raw)
	return q, err
}

func parse(raw string) (*models.Quiz, string, error) {
	payload, strategyName := extractPayload(raw)
	var q models.Quiz
	if err := json.Unmarshal([]byte(payload), &q); err != nil {
		return nil, strategyName, apperr.Parse(fmt.Errorf("decode quiz json (%s): %w", strategyName, err), prefix(raw, RawPrefixLimit))
	}
	return &q, strategyName, nil
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
