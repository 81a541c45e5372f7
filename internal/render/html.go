package render

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"pdfquiz/internal/models"
)

//go:generate templ generate -f quiz.templ

const TimestampLayout = "2006-01-02 15:04:05"

// badge is the question's id, or its position when the model sent none.
func badge(position int, q models.Question) string {
	if q.ID == 0 {
		return strconv.Itoa(position)
	}
	return strconv.Itoa(q.ID)
}

// RenderHTML renders HTML into a byte slice.
func RenderHTML(ctx context.Context, q *models.Quiz, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := HTML(q, generatedAt).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
