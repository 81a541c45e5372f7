// Package quiz turns a prompt into a parsed quiz through one model call.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/logger"
	"pdfquiz/internal/models"
	"pdfquiz/internal/tracing"
)

// Provider sends one prompt to a language model and returns its text reply.
type Provider interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

type Generator struct {
	provider Provider
	timeout  time.Duration
	log      *logger.Logger
	tracer   trace.Tracer
}

// NewGenerator returns a Generator that bounds each model call by timeout.
// A zero timeout leaves the call bounded only by the caller's context.
func NewGenerator(provider Provider, timeout time.Duration, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		provider: provider,
		timeout:  timeout,
		log:      log,
		tracer:   tracing.Tracer("quiz"),
	}
}

// Generate makes exactly one model call. A blank apiKey fails with AuthError
// before anything is sent; call failures and timeouts are ApiError; an
// undecodable reply is ParseError.
func (g *Generator) Generate(ctx context.Context, prompt, apiKey string) (*models.Quiz, error) {
	ctx, span := g.tracer.Start(ctx, "quiz.Generate",
		trace.WithAttributes(attribute.Int("prompt.chars", len([]rune(prompt)))))
	defer span.End()

	fail := func(err error) (*models.Quiz, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if strings.TrimSpace(apiKey) == "" {
		return fail(apperr.Auth(apperr.ErrMissingAPIKey))
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.provider.Complete(callCtx, apiKey, prompt)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("model call timed out after %s: %w", g.timeout, err)
		}
		g.log.Error("model call failed", "duration_ms", elapsed.Milliseconds(), "error", err)
		return fail(apperr.API(err))
	}

	q, strategyName, err := parse(raw)
	if err != nil {
		g.log.Warn("model reply is not valid quiz json", "strategy", strategyName, "reply_chars", len(raw), "error", err)
		return fail(err)
	}

	span.SetAttributes(attribute.String("quiz.extraction", strategyName), attribute.Int("quiz.questions", q.Len()))
	g.log.Info("quiz generated", "questions", q.Len(), "strategy", strategyName, "duration_ms", elapsed.Milliseconds())
	return q, nil
}
