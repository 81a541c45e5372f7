package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestUnmarshalMissingFields defaults absent fields instead of failing.
func TestUnmarshalMissingFields(t *testing.T) {
	var q Quiz
	if err := json.Unmarshal([]byte(`{"quiz":[{"question":"Only ___ here"}]}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Question{Question: "Only ___ here"}
	if !reflect.DeepEqual(q.Questions[0], want) {
		t.Fatalf("expected %+v, got %+v", want, q.Questions[0])
	}
}

// TestUnmarshalFlexibleID accepts numbers, numeric strings and null.
func TestUnmarshalFlexibleID(t *testing.T) {
	cases := map[string]int{
		`{"id":3}`:    3,
		`{"id":"4"}`:  4,
		`{"id":5.0}`:  5,
		`{"id":null}`: 0,
		`{"id":""}`:   0,
	}
	for in, want := range cases {
		var q Question
		if err := json.Unmarshal([]byte(in), &q); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if q.ID != want {
			t.Fatalf("%s: expected id %d, got %d", in, want, q.ID)
		}
	}
}

// TestUnmarshalUnreadableIDIsAbsent maps ids that are not integers to 0.
func TestUnmarshalUnreadableIDIsAbsent(t *testing.T) {
	for _, in := range []string{`{"id":"Q1"}`, `{"id":1.5}`, `{"id":true}`, `{"id":{"n":1}}`} {
		var q Question
		if err := json.Unmarshal([]byte(in), &q); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if q.ID != 0 {
			t.Fatalf("%s: expected id 0, got %d", in, q.ID)
		}
	}
}

// TestUnmarshalScalarValuesAsText reads numbers and booleans as text.
func TestUnmarshalScalarValuesAsText(t *testing.T) {
	in := `{"id":2,"question":"The war ended in ___.","correct_answer":1945,` +
		`"choices":[1945,1946.5,true,null,"1948"],"explanation":false}`
	var q Question
	if err := json.Unmarshal([]byte(in), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Question{
		ID:            2,
		Question:      "The war ended in ___.",
		CorrectAnswer: "1945",
		Choices:       []string{"1945", "1946.5", "true", "", "1948"},
		Explanation:   "false",
	}
	if !reflect.DeepEqual(q, want) {
		t.Fatalf("expected %+v, got %+v", want, q)
	}
}

// TestUnmarshalNullValuesAreEmpty treats null like an absent field.
func TestUnmarshalNullValuesAreEmpty(t *testing.T) {
	var q Question
	in := `{"question":null,"correct_answer":null,"choices":null,"explanation":null}`
	if err := json.Unmarshal([]byte(in), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(q, Question{}) {
		t.Fatalf("expected zero question, got %+v", q)
	}
}

// TestUnmarshalIgnoresUnknownKeys passes over extra keys from the model.
func TestUnmarshalIgnoresUnknownKeys(t *testing.T) {
	var q Quiz
	in := `{"title":"ignored","quiz":[{"id":1,"question":"q","difficulty":"hard"}]}`
	if err := json.Unmarshal([]byte(in), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Len() != 1 || q.Questions[0].ID != 1 {
		t.Fatalf("unexpected quiz: %+v", q)
	}
}

// TestChoiceOutOfRange returns an empty slot.
func TestChoiceOutOfRange(t *testing.T) {
	q := Question{Choices: []string{"a", "b"}}
	if q.Choice(1) != "b" || q.Choice(2) != "" || q.Choice(-1) != "" {
		t.Fatalf("unexpected choice lookup")
	}
	var nilQuiz *Quiz
	if nilQuiz.Len() != 0 {
		t.Fatalf("expected nil quiz to be empty")
	}
}
