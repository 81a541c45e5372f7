package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pdfquiz/internal/monitoring"
	"pdfquiz/internal/render"
)

// HandleDownload renders the session's quiz as html, csv or json and sends it
// as an attachment named after the generation time.
func (h *Handler) HandleDownload(c *gin.Context) {
	format, err := render.ParseFormat(c.Param("format"))
	if err != nil {
		h.handleError(c, "Unsupported download format", err)
		return
	}
	generated, ok := loadQuiz(sessions.Default(c))
	if !ok {
		h.handleError(c, "Download quiz", errNoQuiz)
		return
	}

	data, err := render.Render(c.Request.Context(), format, &generated.Quiz, generated.GeneratedAt)
	if err != nil {
		h.handleError(c, fmt.Sprintf("Render %s", format), err)
		return
	}

	monitoring.QuizDownloads.WithLabelValues(string(format)).Inc()
	filename := render.Filename(format, generated.GeneratedAt)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}
