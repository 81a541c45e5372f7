package render

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"pdfquiz/internal/models"
)

// ChoiceColumns is the fixed number of choice columns in the sheet.
const ChoiceColumns = 4

// utf8BOM lets spreadsheet tools detect UTF-8 for non-Latin text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"question_number",
	"question_text",
	"choice1",
	"choice2",
	"choice3",
	"choice4",
	"correct_answer",
	"explanation",
}

// CSV writes a header and one 8-column row per question. Missing values are
// empty cells; absent choice slots stay in their column.
func CSV(q *models.Quiz) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	if q != nil {
		for _, question := range q.Questions {
			if err := w.Write(csvRow(question)); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(q models.Question) []string {
	id := ""
	if q.ID != 0 {
		id = strconv.Itoa(q.ID)
	}
	row := make([]string, 0, len(csvHeader))
	row = append(row, id, q.Question)
	for i := 0; i < ChoiceColumns; i++ {
		row = append(row, q.Choice(i))
	}
	return append(row, q.CorrectAnswer, q.Explanation)
}
