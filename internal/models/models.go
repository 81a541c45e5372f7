package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Quiz is the canonical result of one generation call.
type Quiz struct {
	Questions []Question `json:"quiz"`
}

// Question is one fill-in-the-blank item. An ID of 0 means the model did not
// supply one.
type Question struct {
	ID            int      `json:"id,omitempty"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Choices       []string `json:"choices"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Len returns the number of questions, treating a nil quiz as empty.
func (q *Quiz) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Questions)
}

// Choice returns the i-th choice or "" when the slot is missing.
func (q Question) Choice(i int) string {
	if i < 0 || i >= len(q.Choices) {
		return ""
	}
	return q.Choices[i]
}

type rawQuestion struct {
	ID            flexibleID `json:"id"`
	Question      text       `json:"question"`
	CorrectAnswer text       `json:"correct_answer"`
	Choices       []text     `json:"choices"`
	Explanation   text       `json:"explanation"`
}

// UnmarshalJSON tolerates missing fields, scalar values of any JSON type and
// ids that are not integers.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var choices []string
	if raw.Choices != nil {
		choices = make([]string, len(raw.Choices))
		for i, c := range raw.Choices {
			choices[i] = string(c)
		}
	}
	*q = Question{
		ID:            int(raw.ID),
		Question:      string(raw.Question),
		CorrectAnswer: string(raw.CorrectAnswer),
		Choices:       choices,
		Explanation:   string(raw.Explanation),
	}
	return nil
}

// text reads a string, number or boolean as its text; null is "". Objects and
// arrays keep their compact JSON.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = text(buf.String())
	default:
		*t = text(data)
	}
	return nil
}

// flexibleID reads an integer from a number or numeric string. Anything else
// is 0, the same as an absent id.
type flexibleID int

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var t text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	if err != nil || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		*f = 0
		return nil
	}
	*f = flexibleID(n)
	return nil
}
