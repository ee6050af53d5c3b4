package app

import (
	"math"

	"quiz-studio/internal/domain"
)

// ResultView is the display model of a finished session.
type ResultView struct {
	Score      int                   `json:"score"`
	Total      int                   `json:"total"`
	MaxCombo   int                   `json:"maxCombo"`
	Percentage int                   `json:"percentage"`
	Message    string                `json:"message"`
	History    []domain.AnswerRecord `json:"history"`
}

func NewResultView(summary domain.SessionSummary) ResultView {
	pct := 0
	if summary.Total > 0 {
		pct = int(math.Round(float64(summary.Score) / float64(summary.Total) * 100))
	}
	return ResultView{
		Score:      summary.Score,
		Total:      summary.Total,
		MaxCombo:   summary.MaxCombo,
		Percentage: pct,
		Message:    resultMessage(pct),
		History:    summary.History,
	}
}

func resultMessage(pct int) string {
	switch {
	case pct == 100:
		return "Perfect! Every answer correct!"
	case pct >= 70:
		return "Great! Almost there!"
	case pct >= 40:
		return "Nice work!"
	default:
		return "Keep practicing and try again!"
	}
}
