package handlers

import (
	"encoding/gob"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"

	"pdfquiz/internal/models"
	"pdfquiz/internal/usage"
)

// Constants for session keys
const (
	QuizSessionKey  = "quiz"
	UsageSessionKey = "usage"
)

// GeneratedQuiz is the session's current quiz and when it was produced.
type GeneratedQuiz struct {
	Quiz        models.Quiz
	GeneratedAt time.Time
}

var registerOnce sync.Once

// RegisterSessionTypes registers the session values with gob so cookie and
// memory stores can encode them.
func RegisterSessionTypes() {
	registerOnce.Do(func() {
		gob.Register(GeneratedQuiz{})
		gob.Register(usage.Counter{})
	})
}

func loadCounter(s sessions.Session) usage.Counter {
	if c, ok := s.Get(UsageSessionKey).(usage.Counter); ok {
		return c
	}
	return usage.Counter{}
}

func loadQuiz(s sessions.Session) (GeneratedQuiz, bool) {
	g, ok := s.Get(QuizSessionKey).(GeneratedQuiz)
	return g, ok
}

// storeSuccess replaces the current quiz and records one generation. It is
// only called after a successful generation.
func storeSuccess(s sessions.Session, g GeneratedQuiz) (usage.Counter, error) {
	counter := loadCounter(s)
	counter.Record()
	s.Set(UsageSessionKey, counter)
	s.Set(QuizSessionKey, g)
	return counter, s.Save()
}
