package questionnaire

import (
	"math"
	"strings"
)

// Progress summarizes completion over the visible sequence.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// Track counts a question as answered when its value, trimmed of
// surrounding whitespace, is non-empty. Percent is 0 for an empty
// visible sequence.
func Track(visible []Question, answers AnswerSet) Progress {
	p := Progress{Total: len(visible)}
	for _, q := range visible {
		if strings.TrimSpace(answers[q.ID]) != "" {
			p.Answered++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Answered) / float64(p.Total)))
	}
	return p
}
