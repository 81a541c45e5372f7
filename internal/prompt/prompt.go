// Package prompt renders a quiz generation request into a single instruction
// string for the language model.
package prompt

import (
	"fmt"
	"strings"

	"pdfquiz/internal/apperr"
)

const (
	MinQuestions     = 3
	MaxQuestions     = 20
	DefaultQuestions = 5

	// ExcerptLimit bounds how many characters of the document are embedded.
	ExcerptLimit = 3000

	DefaultLanguage = "Japanese"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

var difficultyDescriptions = map[Difficulty]string{
	Easy:   "easy: basic vocabulary and concepts",
	Normal: "normal: general comprehension of the text",
	Hard:   "hard: deep understanding and subject expertise",
}

// Difficulties lists the accepted levels in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Normal, Hard}
}

// ParseDifficulty maps user input onto a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := difficultyDescriptions[d]; !ok {
		return "", fmt.Errorf("%w: difficulty %q (want easy, normal or hard)", apperr.ErrInvalidArgument, s)
	}
	return d, nil
}

// ValidateCount checks a question count against [MinQuestions, MaxQuestions].
func ValidateCount(n int) error {
	if n < MinQuestions || n > MaxQuestions {
		return fmt.Errorf("%w: question count %d (want %d-%d)", apperr.ErrInvalidArgument, n, MinQuestions, MaxQuestions)
	}
	return nil
}

// Excerpt returns the first ExcerptLimit characters of text.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= ExcerptLimit {
		return text
	}
	return string(runes[:ExcerptLimit])
}

const template = `Create %[1]d fill-in-the-blank quiz questions in %[2]s from the source text below.
Difficulty level: %[3]s

Rules:
1. Pick the important parts of the text and turn each into one question.
2. Each "question" contains exactly one blank written as ___ in place of the omitted word or phrase.
3. "correct_answer" is the text that fills the blank, written in %[2]s.
4. "choices" has exactly 4 options and always includes the correct answer.
5. "explanation" briefly says why the answer is correct.
6. Make the questions progressively harder from first to last.
7. Generate exactly %[1]d questions, numbered by "id" starting at 1.

Source text:
%[4]s

Output format (JSON):
{
  "quiz": [
    {
      "id": 1,
      "question": "A sentence where ___ is the blank",
      "correct_answer": "answer",
      "choices": ["choice 1", "choice 2", "choice 3", "answer"],
      "explanation": "explanation"
    }
  ]
}

Reply with only this JSON object containing the "quiz" list.`

// Builder renders prompts in a fixed answer language.
type Builder struct {
	Language string
}

// Build renders the request. questionCount is expected in
// [MinQuestions, MaxQuestions]; it is not re-validated here. An unknown
// difficulty is a programming error and panics.
func (b Builder) Build(text string, questionCount int, difficulty Difficulty) string {
	desc, ok := difficultyDescriptions[difficulty]
	if !ok {
		panic(fmt.Sprintf("prompt: unknown difficulty %q", difficulty))
	}
	lang := strings.TrimSpace(b.Language)
	if lang == "" {
		lang = DefaultLanguage
	}
	return fmt.Sprintf(template, questionCount, lang, desc, Excerpt(text))
}

// Build renders the request with the default answer language.
func Build(text string, questionCount int, difficulty Difficulty) string {
	return Builder{}.Build(text, questionCount, difficulty)
}
