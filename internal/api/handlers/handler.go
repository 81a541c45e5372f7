package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/logger"
	"pdfquiz/internal/models"
	"pdfquiz/internal/prompt"
	"pdfquiz/internal/usage"
)

// TextExtractor turns uploaded document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// QuizGenerator produces a quiz from a prompt with one model call.
type QuizGenerator interface {
	Generate(ctx context.Context, prompt, apiKey string) (*models.Quiz, error)
}

// Options carries the settings the handlers need from config.
type Options struct {
	Prompts        prompt.Builder
	Credit         usage.Policy
	ServerAPIKey   string
	MaxUploadBytes int64
}

// Handler contains the API handlers dependencies
type Handler struct {
	Extractor TextExtractor
	Generator QuizGenerator
	Options   Options
	Log       *logger.Logger
	Now       func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(extractor TextExtractor, generator QuizGenerator, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		Extractor: extractor,
		Generator: generator,
		Options:   opts,
		Log:       log,
		Now:       time.Now,
	}
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	RawResponse string `json:"raw_response,omitempty"`
}

var (
	errEmptyDocument = errors.New("document contains no extractable text")
	errNoQuiz        = errors.New("no quiz has been generated in this session")
)

// statusFor maps pipeline failures onto HTTP statuses and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errEmptyDocument):
		return http.StatusUnprocessableEntity, "empty_document"
	case errors.Is(err, errNoQuiz):
		return http.StatusNotFound, "no_quiz"
	}
	if kind, ok := apperr.KindOf(err); ok {
		switch kind {
		case apperr.KindExtraction:
			return http.StatusUnprocessableEntity, string(kind)
		case apperr.KindAuth:
			return http.StatusUnauthorized, string(kind)
		case apperr.KindAPI, apperr.KindParse:
			return http.StatusBadGateway, string(kind)
		}
	}
	if errors.Is(err, apperr.ErrInvalidArgument) {
		return http.StatusBadRequest, "invalid_argument"
	}
	return http.StatusInternalServerError, "internal"
}

// handleError logs the failure and aborts the request with a JSON error body.
func (h *Handler) handleError(c *gin.Context, errorContext string, err error) {
	status, code := statusFor(err)
	body := errorBody{Code: code, Message: errorContext + ": " + err.Error()}
	var pe *apperr.Error
	if errors.As(err, &pe) && pe.Kind == apperr.KindParse {
		body.RawResponse = pe.Raw
	}

	fields := []interface{}{"context", errorContext, "status", status, "path", c.Request.URL.Path, "error", err}
	if id, ok := c.Get(RequestIDKey); ok {
		fields = append(fields, "request_id", id)
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", fields...)
	} else {
		h.Log.Warn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"
