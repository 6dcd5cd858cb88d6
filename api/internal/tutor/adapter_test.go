package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stemmate/api/internal/tutor/types"
)

type stubGuide struct{}

func (stubGuide) StyleGuide(label string) string {
	if label == "Socratic/Questioning" {
		return "asks targeted questions"
	}
	return ""
}

func (stubGuide) PersonaGuide(label string) string {
	if label == "Yoda" {
		return "a wise mentor"
	}
	return ""
}

func recorder(reply string, err error) (*[]types.ChatRequest, Completer) {
	var calls []types.ChatRequest
	return &calls, CompleterFunc(func(ctx context.Context, req types.ChatRequest) (string, error) {
		calls = append(calls, req)
		return reply, err
	})
}

func TestAdapter_Solve(t *testing.T) {
	calls, llm := recorder("<think>hmm</think>## Step 1: add\n2+2\n## Final Answer: 4", nil)
	a := NewAdapter(llm, stubGuide{})

	sol, err := a.Solve(context.Background(), "What is 2+2?", "Qwen/Qwen3-Next-80B-A3B-Thinking")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Answer != "4" || len(sol.Steps) != 1 {
		t.Errorf("got %#v", sol)
	}
	if len(*calls) != 1 {
		t.Fatalf("got %d calls", len(*calls))
	}
	req := (*calls)[0]
	if req.Model != "Qwen/Qwen3-Next-80B-A3B-Thinking" {
		t.Errorf("model = %q", req.Model)
	}
	if req.TopP != 0.7 || req.MaxTokens != 10000 || req.ReasoningEffort != "low" {
		t.Errorf("unexpected generation params: %+v", req)
	}
	prompt := req.Messages[1].Text()
	for _, want := range []string{"What is 2+2?", "## Step 1:", "## Final Answer:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAdapter_SolveError(t *testing.T) {
	_, llm := recorder("", errors.New("boom"))
	_, err := NewAdapter(llm, nil).Solve(context.Background(), "q", "m")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestAdapter_ExplainGuard(t *testing.T) {
	tests := []struct {
		name string
		sol  types.Solution
	}{
		{"no steps", types.Solution{Answer: "4"}},
		{"no answer", types.Solution{Steps: []string{"## Step 1: x"}}},
		{"nothing", types.Solution{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, llm := recorder("should not be used", nil)
			got, err := NewAdapter(llm, stubGuide{}).Explain(context.Background(), ExplainRequest{
				Question: "q", Solution: tt.sol, Style: "Demonstration", Persona: "Yoda", Language: "English", Model: "m",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(*calls) != 0 {
				t.Errorf("backend called %d times", len(*calls))
			}
			if got.Explanation != "" || got.Answer != tt.sol.Answer || len(got.Steps) != len(tt.sol.Steps) {
				t.Errorf("input changed: %#v", got)
			}
		})
	}
}

func TestAdapter_Explain(t *testing.T) {
	calls, llm := recorder("Hmm. Four, the answer is.", nil)
	a := NewAdapter(llm, stubGuide{})

	in := types.Solution{Steps: []string{"## Step 1: add 2 and 2"}, Answer: "4"}
	got, err := a.Explain(context.Background(), ExplainRequest{
		Question: "What is 2+2?",
		Solution: in,
		Style:    "Socratic/Questioning",
		Persona:  "Yoda",
		Language: "Vietnamese",
		Model:    "google/gemma-3n-E4B-it",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Explanation != "Hmm. Four, the answer is." {
		t.Errorf("explanation = %q", got.Explanation)
	}
	if got.Answer != "4" {
		t.Errorf("answer changed to %q", got.Answer)
	}
	prompt := (*calls)[0].Messages[1].Text()
	for _, want := range []string{
		"You are Yoda, a tutor who is a wise mentor.",
		"using Socratic/Questioning method",
		"asks targeted questions",
		"## Step 1: add 2 and 2",
		"Final Answer: 4",
		"The explanation should be in Vietnamese.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAdapter_ExtractQuestion(t *testing.T) {
	calls, llm := recorder("  ## Question\nWhat is 2+2?\n", nil)
	a := NewAdapter(llm, nil)

	img := types.Image{MIME: "image/png", Data: []byte{1, 2, 3}}
	q, err := a.ExtractQuestion(context.Background(), img, "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "## Question\nWhat is 2+2?" {
		t.Errorf("got %q", q)
	}
	req := (*calls)[0]
	if req.MaxTokens != 0 || req.ReasoningEffort != "" {
		t.Errorf("extraction must only set top_p: %+v", req)
	}
	user := req.Messages[1]
	if len(user.Parts) != 2 || user.Parts[1].Image == nil {
		t.Fatalf("expected text+image parts, got %#v", user.Parts)
	}
	if !strings.Contains(user.Parts[0].Text, "Keep the language same as in the image") {
		t.Errorf("instruction = %q", user.Parts[0].Text)
	}
}

func TestAdapter_ExtractQuestionFailures(t *testing.T) {
	tests := []struct {
		name  string
		img   types.Image
		reply string
		err   error
	}{
		{"empty image", types.Image{}, "x", nil},
		{"backend error", types.Image{Data: []byte{1}}, "", errors.New("503")},
		{"blank transcription", types.Image{Data: []byte{1}}, "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, llm := recorder(tt.reply, tt.err)
			_, err := NewAdapter(llm, nil).ExtractQuestion(context.Background(), tt.img, "m")
			if !errors.Is(err, ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %v", err)
			}
		})
	}
}

func TestAdapter_Augment(t *testing.T) {
	calls, llm := recorder("## Question 1:\nA\n## Question 2:\nB", nil)
	out, err := NewAdapter(llm, nil).Augment(context.Background(), "What is 2+2?", "high school", 2, "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "## Question 1:") {
		t.Errorf("got %q", out)
	}
	prompt := (*calls)[0].Messages[1].Text()
	for _, want := range []string{"Generate 2 new question", "for high school students", "## Question 2:", "What is 2+2?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "## Question 3:") {
		t.Error("template must list exactly count questions")
	}
}
