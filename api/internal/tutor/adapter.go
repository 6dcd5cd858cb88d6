package tutor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

// ErrExtraction - не удалось получить текст задания с картинки.
var ErrExtraction = errors.New("question extraction failed")

const (
	defaultTopP      = 0.7
	defaultMaxTokens = 10000
)

// Guide resolves teaching-style and persona labels to guidance text.
// Unknown labels resolve to "".
type Guide interface {
	StyleGuide(label string) string
	PersonaGuide(label string) string
}

// ExplainRequest - вход для персонализированного объяснения.
type ExplainRequest struct {
	Question string
	Solution types.Solution
	Style    string
	Persona  string
	Language string
	Model    string
}

// Adapter builds the templated prompts and talks to the backend.
// No caching and no retries: backend errors go straight to the caller.
type Adapter struct {
	llm   Completer
	guide Guide
}

func NewAdapter(llm Completer, guide Guide) *Adapter {
	return &Adapter{llm: llm, guide: guide}
}

// ExtractQuestion transcribes question, choices and context from an image.
func (a *Adapter) ExtractQuestion(ctx context.Context, img types.Image, model string) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrExtraction)
	}
	req := types.ChatRequest{
		Model: model,
		Messages: []types.Message{
			types.TextMessage(types.RoleSystem, extractSystem),
			{
				Role: types.RoleUser,
				Parts: []types.Part{
					{Text: extractInstruction},
					{Image: &img},
				},
			},
		},
		TopP: defaultTopP,
	}
	out, err := a.complete(ctx, "extract", req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	out = strings.TrimSpace(StripReasoning(out))
	if out == "" {
		return "", fmt.Errorf("%w: empty transcription", ErrExtraction)
	}
	return out, nil
}

// Solve asks model for a step-labelled solution and parses it.
func (a *Adapter) Solve(ctx context.Context, question, model string) (types.Solution, error) {
	prompt, err := render(solveTmpl, map[string]any{
		"Question":   question,
		"AnswerRule": answerRule,
	})
	if err != nil {
		return types.Solution{}, err
	}
	out, err := a.generate(ctx, "solve", model, prompt)
	if err != nil {
		return types.Solution{}, err
	}
	return ParseSolution(out), nil
}

// Explain attaches a persona- and style-flavoured explanation to the
// solution. An unsolved input (no steps or no answer) is returned as is,
// without calling the backend.
func (a *Adapter) Explain(ctx context.Context, in ExplainRequest) (types.Solution, error) {
	sol := in.Solution
	if !sol.Solved() {
		return sol, nil
	}
	var styleGuide, personaGuide string
	if a.guide != nil {
		styleGuide = a.guide.StyleGuide(in.Style)
		personaGuide = a.guide.PersonaGuide(in.Persona)
	}
	prompt, err := render(explainTmpl, map[string]any{
		"Persona":      in.Persona,
		"PersonaGuide": personaGuide,
		"Style":        in.Style,
		"StyleGuide":   styleGuide,
		"Question":     in.Question,
		"Steps":        sol.Steps,
		"Answer":       sol.Answer,
		"AnswerRule":   answerRule,
		"Language":     in.Language,
	})
	if err != nil {
		return sol, err
	}
	out, err := a.generate(ctx, "explain", in.Model, prompt)
	if err != nil {
		return sol, err
	}
	sol.Explanation = strings.TrimSpace(StripReasoning(out))
	return sol, nil
}

// Augment asks for count new questions similar to sample at the given level.
func (a *Adapter) Augment(ctx context.Context, sample, level string, count int, model string) (string, error) {
	if count < 1 {
		count = 1
	}
	numbers := make([]int, count)
	for i := range numbers {
		numbers[i] = i + 1
	}
	prompt, err := render(augmentTmpl, map[string]any{
		"Count":    count,
		"Level":    level,
		"Question": sample,
		"Numbers":  numbers,
	})
	if err != nil {
		return "", err
	}
	out, err := a.generate(ctx, "augment", model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(StripReasoning(out)), nil
}

func (a *Adapter) generate(ctx context.Context, op, model, prompt string) (string, error) {
	return a.complete(ctx, op, types.ChatRequest{
		Model: model,
		Messages: []types.Message{
			types.TextMessage(types.RoleSystem, solveSystem),
			types.TextMessage(types.RoleUser, prompt),
		},
		TopP:            defaultTopP,
		MaxTokens:       defaultMaxTokens,
		ReasoningEffort: "low",
	})
}

func (a *Adapter) complete(ctx context.Context, op string, req types.ChatRequest) (string, error) {
	start := time.Now()
	out, err := a.llm.Complete(ctx, req)
	if err != nil {
		log.Printf("tutor: %s model=%s failed after %v: %v", op, req.Model, time.Since(start), err)
		return "", fmt.Errorf("%s with %s: %w", op, req.Model, err)
	}
	log.Printf("tutor: %s model=%s took %v; raw=%s", op, req.Model, time.Since(start), util.Truncate(out, 512))
	return out, nil
}
