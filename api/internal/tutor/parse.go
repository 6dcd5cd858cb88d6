package tutor

import (
	"fmt"
	"strings"

	"stemmate/api/internal/tutor/types"
)

const (
	StepMarker     = "## Step"
	AnswerMarker   = "## Final Answer:"
	ThinkDelimiter = "</think>"
)

// StripReasoning drops a reasoning prefix: only the text after the last
// closing think delimiter is kept.
func StripReasoning(raw string) string {
	if i := strings.LastIndex(raw, ThinkDelimiter); i >= 0 {
		return strings.TrimSpace(raw[i+len(ThinkDelimiter):])
	}
	return raw
}

// ParseSolution разбирает ответ модели вида
//
//	## Step 1: ...
//	...
//	## Final Answer: 42
//
// Parsing never fails: malformed input gives empty steps and/or answer.
func ParseSolution(raw string) types.Solution {
	var (
		sol  types.Solution
		cur  strings.Builder
		open bool
	)
	closeStep := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			sol.Steps = append(sol.Steps, s)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(StripReasoning(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, AnswerMarker):
			i := strings.LastIndex(line, AnswerMarker)
			sol.Answer = strings.TrimSpace(line[i+len(AnswerMarker):])
		case strings.Contains(line, StepMarker):
			if open {
				closeStep()
			}
			open = true
			cur.WriteString(line)
			cur.WriteString("\n\n")
		default:
			// текст до первого шага тоже копится в буфер
			open = true
			if line == "" {
				continue
			}
			cur.WriteString(line)
			cur.WriteString("\n\n")
		}
	}
	if open {
		closeStep()
	}
	return sol
}

// FormatSolution renders steps and answer in the template ParseSolution
// reads. Steps without a heading get "## Step N:" prepended.
func FormatSolution(steps []string, answer string) string {
	var b strings.Builder
	for i, s := range steps {
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, StepMarker) {
			fmt.Fprintf(&b, "%s %d: ", StepMarker, i+1)
		}
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s %s\n", AnswerMarker, answer)
	return b.String()
}
