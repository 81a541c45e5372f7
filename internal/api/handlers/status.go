package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pdfquiz/internal/prompt"
)

// HandleStatus reports the session's usage estimate and generation limits.
func (h *Handler) HandleStatus(c *gin.Context) {
	session := sessions.Default(c)
	_, hasQuiz := loadQuiz(session)
	c.JSON(http.StatusOK, gin.H{
		"usage":          h.Options.Credit.Snapshot(loadCounter(session)),
		"server_api_key": strings.TrimSpace(h.Options.ServerAPIKey) != "",
		"has_quiz":       hasQuiz,
		"limits": gin.H{
			"min_questions":     prompt.MinQuestions,
			"max_questions":     prompt.MaxQuestions,
			"default_questions": prompt.DefaultQuestions,
			"difficulties":      prompt.Difficulties(),
		},
	})
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
