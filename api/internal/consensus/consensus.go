package consensus

import (
	"context"
	"log"
	"time"

	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

// Solver is the one capability the vote needs: ask a model to solve.
type Solver interface {
	Solve(ctx context.Context, question, model string) (types.Solution, error)
}

// SolverFunc allows functions to implement Solver.
type SolverFunc func(ctx context.Context, question, model string) (types.Solution, error)

func (f SolverFunc) Solve(ctx context.Context, question, model string) (types.Solution, error) {
	return f(ctx, question, model)
}

// State of a single round.
type State string

const (
	StateDispatching State = "dispatching"
	StateVoting      State = "voting"
	StateConverged   State = "converged"
	StateExhausted   State = "exhausted"
)

// Options - выбор пользователя на один прогон.
type Options struct {
	Models     []string // пусто - очередь по умолчанию
	MultiModel bool
}

// Result of a finished round.
type Result struct {
	Answer    string
	Solutions []types.Solution
	Models    []string // models actually dispatched, in order
	State     State
}

// Converged reports whether the answer came from agreement rather than fallback.
func (r Result) Converged() bool { return r.State == StateConverged }

// Engine drives the ranked model queue. It holds no per-run state.
type Engine struct {
	solver   Solver
	defaults []string
}

func New(s Solver, defaultQueue []string) *Engine {
	return &Engine{
		solver:   s,
		defaults: append([]string(nil), defaultQueue...),
	}
}

// Queue resolves the model queue for opts: user selection or defaults,
// truncated to one model when multi-model mode is off.
func (e *Engine) Queue(opts Options) []string {
	q := opts.Models
	if len(q) == 0 {
		q = e.defaults
	}
	q = append([]string(nil), q...)
	if !opts.MultiModel && len(q) > 1 {
		q = q[:1]
	}
	return q
}

// Run solves question until agreement or until the queue is exhausted.
func (e *Engine) Run(ctx context.Context, question string, opts Options) (Result, error) {
	r := e.Start(question, opts)
	for !r.Done() {
		if _, err := r.Step(ctx); err != nil {
			return Result{}, err
		}
	}
	return r.Result(), nil
}

// Start opens a round that the caller advances one dispatch at a time.
func (e *Engine) Start(question string, opts Options) *Round {
	r := &Round{
		solver:   e.solver,
		question: question,
		queue:    e.Queue(opts),
		multi:    opts.MultiModel,
		state:    StateDispatching,
	}
	if len(r.queue) == 0 {
		r.state = StateExhausted
	}
	return r
}

// Round - состояние одного прогона: Dispatching -> Voting -> Converged|Exhausted.
// Not safe for concurrent use.
type Round struct {
	solver   Solver
	question string
	queue    []string
	multi    bool

	idx       int
	solutions []types.Solution
	answer    string
	state     State
}

func (r *Round) Done() bool {
	return r.state == StateConverged || r.state == StateExhausted
}

func (r *Round) State() State { return r.state }

// Next returns the model the next Step will dispatch to, or "" when done.
func (r *Round) Next() string {
	if r.Done() {
		return ""
	}
	return r.queue[r.idx]
}

// Step dispatches the question to the next model in the queue, appends
// the solution and votes. It returns the new solution's index.
func (r *Round) Step(ctx context.Context) (int, error) {
	if r.Done() {
		return -1, nil
	}
	model := r.queue[r.idx]
	start := time.Now()
	sol, err := r.solver.Solve(ctx, r.question, model)
	if err != nil {
		return -1, err
	}
	r.solutions = append(r.solutions, sol)
	idx := len(r.solutions) - 1
	log.Printf("consensus: %s answered %q in %v (%d/%d)",
		util.LastSegment(model), sol.Answer, time.Since(start).Round(time.Millisecond), idx+1, len(r.queue))

	r.state = StateVoting
	if answer, ok := Decide(r.solutions, r.multi); ok {
		r.answer = answer
		r.state = StateConverged
		return idx, nil
	}
	if r.idx+1 < len(r.queue) {
		r.idx++
		r.state = StateDispatching
		return idx, nil
	}
	r.answer = Fallback(r.solutions)
	r.state = StateExhausted
	return idx, nil
}

// Solutions returns the solutions so far in dispatch order.
func (r *Round) Solutions() []types.Solution { return r.solutions }

// Model returns the model that produced solution i.
func (r *Round) Model(i int) string { return r.queue[i] }

// SetExplanation attaches an explanation to solution i.
func (r *Round) SetExplanation(i int, text string) {
	if i >= 0 && i < len(r.solutions) {
		r.solutions[i].Explanation = text
	}
}

// Answer is the consensus answer, or the fallback once exhausted; "" before that
// or when nothing was dispatched.
func (r *Round) Answer() string { return r.answer }

func (r *Round) Result() Result {
	return Result{
		Answer:    r.answer,
		Solutions: r.solutions,
		Models:    r.queue[:len(r.solutions)],
		State:     r.state,
	}
}
