package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/ctisync/internal/model"
)

// State is the run's position in the orchestration state machine.
type State int

// Run states, in normal progression order. Failed is terminal and is only
// reachable from Fetching; later failures are absorbed per item.
const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StatePublishing
	StateSummarizing
	StateDone
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StatePublishing:
		return "publishing"
	case StateSummarizing:
		return "summarizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run carries the accumulating state of one connector run. The orchestrator
// owns it for the run's duration; nothing survives across runs.
type Run struct {
	// Records is the raw feed, populated by the fetch step.
	Records []model.RawRecord

	// Summary is the aggregate outcome, populated progressively by the
	// extract and publish steps and serialized by the summarize step.
	Summary *model.RunSummary

	// State is the run's current position in the state machine.
	State State
}

// NewRun creates an idle run for the given feed.
func NewRun(feedURL string) *Run {
	return &Run{
		Summary: model.NewRunSummary(feedURL),
		State:   StateIdle,
	}
}

// Step is one stage of the run. Steps execute in sequence, each receiving
// the run accumulated by its predecessors.
//
// Design decision: We use an interface rather than function types because
// steps carry configuration state (clients, paths, loggers) and a Name()
// for logging, matching how the rest of the codebase wires collaborators.
type Step interface {
	// Do executes the step. Returning an error fails the whole run, so
	// only the fetch step may do that; every other step absorbs its
	// failures into the summary and returns nil.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string

	// State returns the run state this step represents.
	State() State
}

// Pipeline executes the run steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline with the given steps, executed in order.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{steps: steps}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs all steps in sequence, advancing the run's state before each
// one. A step error (in practice: a fetch failure or an empty feed) moves
// the run to Failed and stops execution; no later step runs and no artifact
// is produced. Cancellation between steps also ends the run.
//
// Execute never panics past its boundary; the returned error exists so the
// process can exit non-zero on a fetch-stage failure.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	run.Summary.StartedAt = time.Now()
	defer func() {
		run.Summary.FinishedAt = time.Now()
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled", "step", step.Name(), "reason", ctx.Err())
			run.State = StateFailed
			return ctx.Err()
		default:
		}

		run.State = step.State()
		p.logger.Info("executing step", "step", step.Name(), "state", run.State.String())

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("run failed", "step", step.Name(), "error", err)
			run.State = StateFailed
			return err
		}

		p.logger.Debug("step completed", "step", step.Name())
	}

	run.State = StateDone
	return nil
}
