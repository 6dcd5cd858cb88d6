package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"time"

	"github.com/google/uuid"

	"stemmate/api/internal/consensus"
	"stemmate/api/internal/tutor"
	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

var ErrNoImage = errors.New("no image")

const (
	defaultAugmentCount = 3
	maxAugmentCount     = 5
	defaultLevel        = "high school"
)

// Tutor is what the orchestrator needs from the model adapter.
type Tutor interface {
	ExtractQuestion(ctx context.Context, img types.Image, model string) (string, error)
	Solve(ctx context.Context, question, model string) (types.Solution, error)
	Explain(ctx context.Context, in tutor.ExplainRequest) (types.Solution, error)
	Augment(ctx context.Context, sample, level string, count int, model string) (string, error)
}

type Config struct {
	ExtractModel string
	ExplainModel string
	AugmentModel string
	DefaultQueue []string
	Language     string
}

// Request - один запуск пайплайна.
type Request struct {
	Image      []byte
	MultiModel bool
	Models     []string
	Style      string
	Persona    string
	Language   string // пусто - Config.Language
}

type Orchestrator struct {
	tutor Tutor
	cfg   Config
	votes *consensus.Engine
}

func New(t Tutor, cfg Config) *Orchestrator {
	return &Orchestrator{
		tutor: t,
		cfg:   cfg,
		votes: consensus.New(consensus.SolverFunc(t.Solve), cfg.DefaultQueue),
	}
}

// DefaultQueue returns a copy of the configured model queue.
func (o *Orchestrator) DefaultQueue() []string {
	return append([]string(nil), o.cfg.DefaultQueue...)
}

// Run starts a fresh run. Nothing happens until the first Next.
func (o *Orchestrator) Run(req Request) *Stream {
	if req.Language == "" {
		req.Language = o.cfg.Language
	}
	return &Stream{
		o:     o,
		req:   req,
		runID: uuid.NewString(),
		stage: stageExtract,
	}
}

// Augment extracts the question from image and asks for count similar ones.
func (o *Orchestrator) Augment(ctx context.Context, image []byte, count int, level string) (string, error) {
	if count <= 0 {
		count = defaultAugmentCount
	}
	if count > maxAugmentCount {
		count = maxAugmentCount
	}
	if level == "" {
		level = defaultLevel
	}
	question, err := o.extract(ctx, image)
	if err != nil {
		return "", err
	}
	return o.tutor.Augment(ctx, question, level, count, o.cfg.AugmentModel)
}

func (o *Orchestrator) extract(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrNoImage
	}
	png, err := util.NormalizeImage(image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tutor.ErrExtraction, err)
	}
	return o.tutor.ExtractQuestion(ctx, types.Image{MIME: "image/png", Data: png}, o.cfg.ExtractModel)
}

// ErrorSnapshot converts a run failure into the displayed snapshot.
func ErrorSnapshot(err error) types.Snapshot {
	return types.Snapshot{
		Stage:    types.StageFailed,
		Question: "Error: " + err.Error(),
	}
}

type stage int

const (
	stageExtract stage = iota
	stageSolve
	stageExplain
	stageDone
)

// Stream is a pull-based run: every Next performs the next unit of work
// and returns the snapshot it produced. After the final snapshot Next
// returns io.EOF; after a failure it keeps returning that error.
// Not safe for concurrent use.
type Stream struct {
	o     *Orchestrator
	req   Request
	runID string
	start time.Time

	stage    stage
	question string
	round    *consensus.Round
	pending  int
	err      error
}

func (s *Stream) RunID() string { return s.runID }

func (s *Stream) Next(ctx context.Context) (types.Snapshot, error) {
	if s.err != nil {
		return types.Snapshot{}, s.err
	}
	switch s.stage {
	case stageExtract:
		return s.extract(ctx)
	case stageSolve:
		if s.round.Done() {
			s.stage = stageDone
			return s.final(), nil
		}
		return s.solve(ctx)
	case stageExplain:
		return s.explain(ctx)
	default:
		return types.Snapshot{}, io.EOF
	}
}

// All adapts the stream to a range-over-func sequence. Iteration stops
// after the first error.
func (s *Stream) All(ctx context.Context) iter.Seq2[types.Snapshot, error] {
	return func(yield func(types.Snapshot, error) bool) {
		for {
			snap, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(snap, err) || err != nil {
				return
			}
		}
	}
}

func (s *Stream) extract(ctx context.Context) (types.Snapshot, error) {
	s.start = time.Now()
	q, err := s.o.extract(ctx, s.req.Image)
	if err != nil {
		return s.fail("extract", err)
	}
	opts := consensus.Options{Models: s.req.Models, MultiModel: s.req.MultiModel}
	s.question = q
	s.round = s.o.votes.Start(q, opts)
	s.stage = stageSolve
	log.Printf("pipeline[%s]: question extracted (%d chars), queue=%v", s.runID, len(q), s.o.votes.Queue(opts))
	return s.snapshot(types.StageQuestion, ""), nil
}

func (s *Stream) solve(ctx context.Context) (types.Snapshot, error) {
	i, err := s.round.Step(ctx)
	if err != nil {
		return s.fail("solve", err)
	}
	s.pending = i
	s.stage = stageExplain

	model := s.round.Model(i)
	sol := s.round.Solutions()[i]
	snap := s.snapshot(types.StageSolved, model)
	snap.Steps = StepsMarkdown(model, sol.Steps)
	snap.Answer = TemporaryAnswer(sol.Answer)
	return snap, nil
}

func (s *Stream) explain(ctx context.Context) (types.Snapshot, error) {
	i := s.pending
	model := s.round.Model(i)
	sol := s.round.Solutions()[i]

	out, err := s.o.tutor.Explain(ctx, tutor.ExplainRequest{
		Question: s.question,
		Solution: sol,
		Style:    s.req.Style,
		Persona:  s.req.Persona,
		Language: s.req.Language,
		Model:    s.o.cfg.ExplainModel,
	})
	if err != nil {
		return s.fail("explain", err)
	}
	s.round.SetExplanation(i, out.Explanation)
	s.stage = stageSolve

	snap := s.snapshot(types.StageExplained, model)
	snap.Steps = StepsMarkdown(model, sol.Steps)
	snap.Answer = TemporaryAnswer(sol.Answer)
	snap.Explanation = ExplanationMarkdown(model, out.Explanation)
	return snap, nil
}

func (s *Stream) final() types.Snapshot {
	res := s.round.Result()
	log.Printf("pipeline[%s]: %s after %d model(s) in %v; answer=%q",
		s.runID, res.State, len(res.Solutions), time.Since(s.start).Round(time.Millisecond), res.Answer)

	snap := s.snapshot(types.StageFinal, "")
	snap.Steps = FinalSteps(res.Models, res.Solutions)
	snap.Answer = res.Answer
	snap.Explanation = FinalExplanation(res.Models, res.Solutions)
	return snap
}

func (s *Stream) snapshot(st types.Stage, model string) types.Snapshot {
	return types.Snapshot{
		RunID:    s.runID,
		Stage:    st,
		Model:    model,
		Question: s.question,
	}
}

func (s *Stream) fail(op string, err error) (types.Snapshot, error) {
	log.Printf("pipeline[%s]: %s failed: %v", s.runID, op, err)
	s.err = err
	s.stage = stageDone
	return types.Snapshot{}, err
}
