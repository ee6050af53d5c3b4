package export

import (
	"fmt"
	"io"
	"strings"

	"quiz-studio/internal/domain"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Questions"

var header = []string{"ID", "Content", "Choices", "Correct Index", "Correct Choice", "Author", "Admin Only", "Created At"}

// WriteQuestions writes questions as an xlsx workbook with one row per question.
func WriteQuestions(w io.Writer, questions []domain.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for col, title := range header {
		if err := setCell(f, col, 1, title); err != nil {
			return err
		}
	}
	for i, q := range questions {
		row := i + 2
		correct := ""
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Choices) {
			correct = q.Choices[q.CorrectIndex]
		}
		values := []any{
			q.ID,
			q.Content,
			strings.Join(q.Choices, "\n"),
			q.CorrectIndex,
			correct,
			q.AuthorName,
			q.IsAdminOnly,
			q.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			if err := setCell(f, col, row, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	return f.SetCellValue(sheetName, cell, v)
}
