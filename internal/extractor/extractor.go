// Package extractor turns uploaded PDF bytes into plain text.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/logger"
	"pdfquiz/internal/tracing"
)

// PreviewLimit is how many characters of extracted text are echoed back to
// the user before generation.
const PreviewLimit = 500

var errEmptyInput = errors.New("empty document")

// Extract concatenates the plain text of every page in page order. A document
// whose pages yield no text returns "" and no error; only parser failures are
// reported, as an ExtractionError.
func Extract(data []byte) (string, error) {
	text, _, err := extract(data)
	return text, err
}

func extract(data []byte) (text string, pages int, err error) {
	if len(data) == 0 {
		return "", 0, apperr.Extraction(errEmptyInput)
	}

	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = apperr.Extraction(fmt.Errorf("parse pdf: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, apperr.Extraction(fmt.Errorf("open pdf: %w", err))
	}

	var sb strings.Builder
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, apperr.Extraction(fmt.Errorf("read page %d: %w", i, err))
		}
		sb.WriteString(pageText)
	}
	return sb.String(), pages, nil
}

// Preview returns the first PreviewLimit characters of text, followed by an
// ellipsis when the text was cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit]) + "..."
}

// Extractor wraps Extract with logging and a trace span.
type Extractor struct {
	log    *logger.Logger
	tracer trace.Tracer
}

func New(log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{log: log, tracer: tracing.Tracer("extractor")}
}

func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	_, span := e.tracer.Start(ctx, "extractor.Extract",
		trace.WithAttributes(attribute.Int("pdf.bytes", len(data))))
	defer span.End()

	text, pages, err := extract(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		e.log.Warn("pdf extraction failed", "bytes", len(data), "error", err)
		return "", err
	}
	chars := len([]rune(text))
	span.SetAttributes(attribute.Int("pdf.pages", pages), attribute.Int("pdf.chars", chars))
	e.log.Info("pdf extracted", "pages", pages, "chars", chars)
	return text, nil
}
