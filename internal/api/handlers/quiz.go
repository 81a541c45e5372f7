package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/extractor"
	"pdfquiz/internal/models"
	"pdfquiz/internal/monitoring"
	"pdfquiz/internal/prompt"
	"pdfquiz/internal/usage"
)

// Download links returned after a successful generation.
var downloadPaths = map[string]string{
	"html": "/api/quizzes/current/download/html",
	"csv":  "/api/quizzes/current/download/csv",
	"json": "/api/quizzes/current/download/json",
}

type ExtractResponse struct {
	Filename string `json:"filename"`
	Chars    int    `json:"chars"`
	Preview  string `json:"preview"`
}

type GenerateResponse struct {
	Quiz          models.Quiz       `json:"quiz"`
	QuestionCount int               `json:"question_count"`
	Difficulty    prompt.Difficulty `json:"difficulty"`
	GeneratedAt   time.Time         `json:"generated_at"`
	ExtractedText ExtractResponse   `json:"extracted_text"`
	Usage         usage.Snapshot    `json:"usage"`
	Downloads     map[string]string `json:"downloads"`
}

type generateParams struct {
	count      int
	difficulty prompt.Difficulty
}

func parseGenerateParams(c *gin.Context) (generateParams, error) {
	raw := strings.TrimSpace(c.DefaultPostForm("question_count", strconv.Itoa(prompt.DefaultQuestions)))
	count, err := strconv.Atoi(raw)
	if err != nil {
		return generateParams{}, fmt.Errorf("%w: question_count %q is not a number", apperr.ErrInvalidArgument, raw)
	}
	if err := prompt.ValidateCount(count); err != nil {
		return generateParams{}, err
	}
	difficulty, err := prompt.ParseDifficulty(c.DefaultPostForm("difficulty", string(prompt.Normal)))
	if err != nil {
		return generateParams{}, err
	}
	return generateParams{count: count, difficulty: difficulty}, nil
}

// parseForm bounds the request body and parses the multipart form.
func (h *Handler) parseForm(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Options.MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.Options.MaxUploadBytes); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form: %v", apperr.ErrInvalidArgument, err)
	}
	return nil
}

// readUpload returns the bytes of the "file" part of a parsed form.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: a PDF must be uploaded in the \"file\" field", apperr.ErrInvalidArgument)
	}
	if fileHeader.Size == 0 {
		return "", nil, fmt.Errorf("%w: uploaded file %s is empty", apperr.ErrInvalidArgument, fileHeader.Filename)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open uploaded file %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read uploaded file %s: %w", fileHeader.Filename, err)
	}
	return fileHeader.Filename, data, nil
}

// apiKey prefers the server-side secret and falls back to the request field.
func (h *Handler) apiKey(c *gin.Context) string {
	if key := strings.TrimSpace(h.Options.ServerAPIKey); key != "" {
		return key
	}
	return strings.TrimSpace(c.PostForm("api_key"))
}

func (h *Handler) extractText(c *gin.Context) (ExtractResponse, string, error) {
	name, data, err := h.readUpload(c)
	if err != nil {
		return ExtractResponse{}, "", err
	}
	text, err := h.Extractor.Extract(c.Request.Context(), data)
	if err != nil {
		return ExtractResponse{}, "", fmt.Errorf("extract %s: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return ExtractResponse{}, "", fmt.Errorf("extract %s: %w", name, errEmptyDocument)
	}
	return ExtractResponse{
		Filename: name,
		Chars:    len([]rune(text)),
		Preview:  extractor.Preview(text),
	}, text, nil
}

// HandleExtract returns the extracted text size and a preview without generating.
func (h *Handler) HandleExtract(c *gin.Context) {
	if err := h.parseForm(c); err != nil {
		h.handleError(c, "Invalid upload", err)
		return
	}
	resp, _, err := h.extractText(c)
	if err != nil {
		h.handleError(c, "Failed to extract document text", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGenerateQuiz runs extract, prompt and generate for one uploaded PDF and
// stores the result in the session. A failure leaves the session untouched.
func (h *Handler) HandleGenerateQuiz(c *gin.Context) {
	startTime := time.Now()

	if err := h.parseForm(c); err != nil {
		h.handleError(c, "Invalid upload", err)
		return
	}
	params, err := parseGenerateParams(c)
	if err != nil {
		h.handleError(c, "Invalid generation parameters", err)
		return
	}

	outcome := "success"
	defer func() {
		monitoring.QuizGenerations.WithLabelValues(outcome).Inc()
		monitoring.GenerationDuration.Observe(time.Since(startTime).Seconds())
	}()
	fail := func(errorContext string, err error) {
		outcome = outcomeLabel(err)
		h.handleError(c, errorContext, err)
	}

	apiKey := h.apiKey(c)
	if apiKey == "" {
		fail("API key missing", apperr.Auth(apperr.ErrMissingAPIKey))
		return
	}

	extracted, text, err := h.extractText(c)
	if err != nil {
		fail("Failed to extract document text", err)
		return
	}

	h.Log.Info("generating quiz",
		"file", extracted.Filename, "chars", extracted.Chars,
		"questions", params.count, "difficulty", params.difficulty)

	p := h.Options.Prompts.Build(text, params.count, params.difficulty)
	quiz, err := h.Generator.Generate(c.Request.Context(), p, apiKey)
	if err != nil {
		fail("Failed to generate quiz", err)
		return
	}

	generated := GeneratedQuiz{Quiz: *quiz, GeneratedAt: h.Now()}
	counter, err := storeSuccess(sessions.Default(c), generated)
	if err != nil {
		fail("Failed to save session", err)
		return
	}

	h.Log.Info("quiz stored in session",
		"questions", quiz.Len(), "generations", counter.Count(),
		"duration_ms", time.Since(startTime).Milliseconds())

	c.JSON(http.StatusOK, GenerateResponse{
		Quiz:          generated.Quiz,
		QuestionCount: quiz.Len(),
		Difficulty:    params.difficulty,
		GeneratedAt:   generated.GeneratedAt,
		ExtractedText: extracted,
		Usage:         h.Options.Credit.Snapshot(counter),
		Downloads:     downloadPaths,
	})
}

// HandleGetCurrentQuiz returns the quiz held by the session.
func (h *Handler) HandleGetCurrentQuiz(c *gin.Context) {
	generated, ok := loadQuiz(sessions.Default(c))
	if !ok {
		h.handleError(c, "Get current quiz", errNoQuiz)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quiz":         generated.Quiz,
		"generated_at": generated.GeneratedAt,
		"downloads":    downloadPaths,
	})
}

func outcomeLabel(err error) string {
	if kind, ok := apperr.KindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, errEmptyDocument):
		return "empty_document"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
