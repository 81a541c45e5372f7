package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"pdfquiz/internal/logger"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

var errNoContent = errors.New("no content generated")

// Config tunes each generation request.
type Config struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Provider sends prompts to Gemini. A client is built per call from the
// caller's API key.
type Provider struct {
	cfg Config
	log *logger.Logger
}

func NewProvider(cfg Config, log *logger.Logger) *Provider {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{cfg: cfg, log: log}
}

// Complete makes one GenerateContent call and returns the concatenated text
// parts of the first candidate. It does not retry.
func (p *Provider) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			p.log.Warn("failed to close Gemini client", "error", err)
		}
	}()

	model := client.GenerativeModel(p.cfg.Model)
	p.configure(model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	p.log.Debug("gemini reply received", "model", p.cfg.Model, "chars", len(text))
	return text, nil
}

func (p *Provider) configure(model *genai.GenerativeModel) {
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(p.cfg.Temperature)
	model.SetTopK(40)
	model.SetTopP(0.95)
	if p.cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(p.cfg.MaxOutputTokens)
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errNoContent
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errNoContent
	}
	return sb.String(), nil
}
