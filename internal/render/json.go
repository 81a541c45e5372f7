package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pdfquiz/internal/models"
)

// JSON serializes the quiz with two-space indentation, leaving non-ASCII and
// HTML characters unescaped.
func JSON(q *models.Quiz) ([]byte, error) {
	if q == nil {
		q = &models.Quiz{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q); err != nil {
		return nil, fmt.Errorf("encode quiz: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSON is the inverse of JSON.
func DecodeJSON(data []byte) (*models.Quiz, error) {
	var q models.Quiz
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &q, nil
}
