// Package render serializes a quiz as HTML, CSV or JSON. Renderers never
// mutate or reorder the quiz.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/models"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts html, csv or json in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q (want html, csv or json)", apperr.ErrInvalidArgument, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Filename embeds the generation time so repeated downloads do not collide.
func Filename(f Format, at time.Time) string {
	return "quiz_" + at.Format("20060102_150405") + "." + string(f)
}

// Render dispatches to the renderer for f.
func Render(ctx context.Context, f Format, q *models.Quiz, generatedAt time.Time) ([]byte, error) {
	switch f {
	case FormatHTML:
		return RenderHTML(ctx, q, generatedAt)
	case FormatCSV:
		return CSV(q)
	case FormatJSON:
		return JSON(q)
	default:
		return nil, fmt.Errorf("%w: format %q", apperr.ErrInvalidArgument, f)
	}
}
