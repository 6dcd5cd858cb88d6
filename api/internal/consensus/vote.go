package consensus

import (
	"strings"

	"stemmate/api/internal/tutor/types"
)

// AnswerCount is one row of the frequency table.
type AnswerCount struct {
	Answer string
	Count  int
}

// Frequencies counts non-empty answers in first-insertion order.
// It is recomputed from scratch on every call.
func Frequencies(solutions []types.Solution) []AnswerCount {
	var table []AnswerCount
	pos := make(map[string]int, len(solutions))
	for _, s := range solutions {
		a := strings.TrimSpace(s.Answer)
		if a == "" {
			continue
		}
		if i, ok := pos[a]; ok {
			table[i].Count++
			continue
		}
		pos[a] = len(table)
		table = append(table, AnswerCount{Answer: a, Count: 1})
	}
	return table
}

// Top returns the most frequent answer; ties go to the earlier one.
func Top(table []AnswerCount) (AnswerCount, bool) {
	if len(table) == 0 {
		return AnswerCount{}, false
	}
	best := table[0]
	for _, c := range table[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	return best, true
}

// Decide applies the stopping rule after a dispatch. With multi-model mode
// off the first solution decides unconditionally; with it on the run stops
// once the top answer has been given more than once.
func Decide(solutions []types.Solution, multi bool) (string, bool) {
	if len(solutions) == 0 {
		return "", false
	}
	if !multi {
		return strings.TrimSpace(solutions[0].Answer), true
	}
	if top, ok := Top(Frequencies(solutions)); ok && top.Count > 1 {
		return top.Answer, true
	}
	return "", false
}

// Fallback - ответ первой модели, даже если он в меньшинстве.
func Fallback(solutions []types.Solution) string {
	if len(solutions) == 0 {
		return ""
	}
	return strings.TrimSpace(solutions[0].Answer)
}
