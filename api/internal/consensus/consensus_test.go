package consensus

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"stemmate/api/internal/tutor/types"
)

// scripted answers per model; records dispatch order.
func scripted(answers map[string]string, calls *[]string) Solver {
	return SolverFunc(func(ctx context.Context, question, model string) (types.Solution, error) {
		*calls = append(*calls, model)
		a, ok := answers[model]
		if !ok {
			return types.Solution{}, errors.New("model down")
		}
		return types.Solution{Steps: []string{"## Step 1: " + model}, Answer: a}, nil
	})
}

var queue3 = []string{"org/m1", "org/m2", "org/m3"}

func TestEngine_Run(t *testing.T) {
	tests := []struct {
		name      string
		answers   map[string]string
		opts      Options
		wantCalls []string
		wantAns   string
		wantState State
	}{
		{
			name:      "majority short-circuit",
			answers:   map[string]string{"org/m1": "42", "org/m2": "42", "org/m3": "7"},
			opts:      Options{MultiModel: true},
			wantCalls: []string{"org/m1", "org/m2"},
			wantAns:   "42",
			wantState: StateConverged,
		},
		{
			name:      "full exhaustion falls back to first model",
			answers:   map[string]string{"org/m1": "1", "org/m2": "2", "org/m3": "3"},
			opts:      Options{MultiModel: true},
			wantCalls: queue3,
			wantAns:   "1",
			wantState: StateExhausted,
		},
		{
			name:      "late agreement converges on the repeated answer",
			answers:   map[string]string{"org/m1": "A", "org/m2": "B", "org/m3": "B"},
			opts:      Options{MultiModel: true},
			wantCalls: queue3,
			wantAns:   "B",
			wantState: StateConverged,
		},
		{
			name:      "empty answers never agree",
			answers:   map[string]string{"org/m1": "", "org/m2": "", "org/m3": "C"},
			opts:      Options{MultiModel: true},
			wantCalls: queue3,
			wantAns:   "",
			wantState: StateExhausted,
		},
		{
			name:      "single-model mode dispatches once",
			answers:   map[string]string{"org/m1": "5", "org/m2": "5", "org/m3": "5"},
			opts:      Options{MultiModel: false},
			wantCalls: []string{"org/m1"},
			wantAns:   "5",
			wantState: StateConverged,
		},
		{
			name:      "user selection overrides defaults",
			answers:   map[string]string{"x/a": "9", "x/b": "9"},
			opts:      Options{MultiModel: true, Models: []string{"x/b", "x/a"}},
			wantCalls: []string{"x/b", "x/a"},
			wantAns:   "9",
			wantState: StateConverged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			e := New(scripted(tt.answers, &calls), queue3)

			res, err := e.Run(context.Background(), "q", tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", calls, tt.wantCalls)
			}
			if res.Answer != tt.wantAns {
				t.Errorf("answer = %q, want %q", res.Answer, tt.wantAns)
			}
			if res.State != tt.wantState {
				t.Errorf("state = %s, want %s", res.State, tt.wantState)
			}
			if len(res.Solutions) != len(tt.wantCalls) || !reflect.DeepEqual(res.Models, tt.wantCalls) {
				t.Errorf("got %d solutions from %v", len(res.Solutions), res.Models)
			}
		})
	}
}

func TestEngine_RunEmptyQueue(t *testing.T) {
	var calls []string
	e := New(scripted(nil, &calls), nil)

	res, err := e.Run(context.Background(), "q", Options{MultiModel: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "" || len(res.Solutions) != 0 || len(calls) != 0 {
		t.Errorf("got %#v with calls %v", res, calls)
	}
	if res.Converged() {
		t.Error("empty queue must not converge")
	}
}

func TestEngine_RunPropagatesBackendError(t *testing.T) {
	var calls []string
	e := New(scripted(map[string]string{"org/m1": "1"}, &calls), queue3)

	if _, err := e.Run(context.Background(), "q", Options{MultiModel: true}); err == nil {
		t.Fatal("expected error from second model")
	}
	if len(calls) != 2 {
		t.Errorf("expected abort at second dispatch, got %v", calls)
	}
}

func TestEngine_QueueDoesNotAliasDefaults(t *testing.T) {
	defaults := []string{"a", "b"}
	e := New(nil, defaults)
	q := e.Queue(Options{MultiModel: true})
	q[0] = "changed"
	if e.Queue(Options{MultiModel: true})[0] != "a" {
		t.Error("Queue must return a copy")
	}
	if got := e.Queue(Options{}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("single-model queue = %v", got)
	}
}

func TestRound_Stepwise(t *testing.T) {
	var calls []string
	e := New(scripted(map[string]string{"org/m1": "1", "org/m2": "1"}, &calls), queue3)
	r := e.Start("q", Options{MultiModel: true})

	if r.Next() != "org/m1" || r.State() != StateDispatching {
		t.Fatalf("unexpected initial round: next=%q state=%s", r.Next(), r.State())
	}
	i, err := r.Step(context.Background())
	if err != nil || i != 0 {
		t.Fatalf("step 1: i=%d err=%v", i, err)
	}
	if r.Done() || r.Answer() != "" {
		t.Fatalf("must not be done after a single dispatch")
	}
	r.SetExplanation(0, "because")
	if _, err := r.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.Done() || r.Answer() != "1" {
		t.Fatalf("done=%v answer=%q", r.Done(), r.Answer())
	}
	if r.Solutions()[0].Explanation != "because" {
		t.Error("explanation lost")
	}
	if i, _ := r.Step(context.Background()); i != -1 || len(calls) != 2 {
		t.Error("Step after done must be a no-op")
	}
	if r.Next() != "" {
		t.Error("Next after done must be empty")
	}
}
