package pipeline

import (
	"strings"

	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

const (
	modelSeparator   = "\n\n===\n\n"
	temporaryLabel   = "Temporary answer: "
	stepsHeading     = "### Steps from "
	explainedHeading = "### Explanation from "
)

// DisplayName - хвост идентификатора модели после последнего "/".
func DisplayName(model string) string { return util.LastSegment(model) }

// StepsMarkdown renders one model's steps under its heading.
func StepsMarkdown(model string, steps []string) string {
	return stepsHeading + DisplayName(model) + "\n\n" + strings.Join(steps, "\n\n")
}

func ExplanationMarkdown(model, explanation string) string {
	return explainedHeading + DisplayName(model) + "\n\n" + explanation
}

func TemporaryAnswer(answer string) string {
	return temporaryLabel + strings.TrimSpace(answer)
}

// FinalSteps concatenates every model's steps, separated by "===".
// models[i] produced sols[i].
func FinalSteps(models []string, sols []types.Solution) string {
	blocks := make([]string, 0, len(sols))
	for i, s := range sols {
		blocks = append(blocks, StepsMarkdown(models[i], s.Steps))
	}
	return strings.Join(blocks, modelSeparator)
}

// FinalExplanation concatenates every model's explanation under its heading.
func FinalExplanation(models []string, sols []types.Solution) string {
	blocks := make([]string, 0, len(sols))
	for i, s := range sols {
		blocks = append(blocks, ExplanationMarkdown(models[i], s.Explanation))
	}
	return strings.Join(blocks, "\n\n")
}
