package pipeline

import (
	"context"
	"errors"
	"testing"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	state     State
	doFunc    func(ctx context.Context, run *Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string { return m.name }

// State implements Step.State.
func (m *mockStep) State() State { return m.state }

// TestPipelineExecute tests step sequencing and state transitions.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("all steps run in order and the run lands Done", func(t *testing.T) {
		t.Parallel()

		var order []string
		mk := func(name string, state State) *mockStep {
			return &mockStep{name: name, state: state, doFunc: func(_ context.Context, _ *Run) error {
				order = append(order, name)
				return nil
			}}
		}

		steps := []Step{
			mk("fetch", StateFetching),
			mk("extract", StateExtracting),
			mk("publish", StatePublishing),
			mk("summarize", StateSummarizing),
		}

		run := NewRun("https://feed.example.test")
		if err := New(steps).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.State != StateDone {
			t.Errorf("expected Done, got %s", run.State)
		}
		want := []string{"fetch", "extract", "publish", "summarize"}
		if len(order) != len(want) {
			t.Fatalf("expected steps %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("expected step order %v, got %v", want, order)
			}
		}
	})

	t.Run("fetch failure moves the run to Failed and stops", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("feed unreachable")
		fetch := &mockStep{name: "fetch", state: StateFetching, doFunc: func(_ context.Context, _ *Run) error {
			return fetchErr
		}}
		later := &mockStep{name: "extract", state: StateExtracting}

		run := NewRun("https://feed.example.test")
		err := New([]Step{fetch, later}).Execute(context.Background(), run)

		if !errors.Is(err, fetchErr) {
			t.Errorf("expected fetch error, got %v", err)
		}
		if run.State != StateFailed {
			t.Errorf("expected Failed, got %s", run.State)
		}
		if later.callCount != 0 {
			t.Errorf("later steps must not run, got %d calls", later.callCount)
		}
	})

	t.Run("cancellation between steps fails the run", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &mockStep{name: "fetch", state: StateFetching, doFunc: func(_ context.Context, _ *Run) error {
			cancel()
			return nil
		}}
		second := &mockStep{name: "extract", state: StateExtracting}

		run := NewRun("https://feed.example.test")
		err := New([]Step{first, second}).Execute(ctx, run)

		if err == nil {
			t.Error("expected cancellation error")
		}
		if run.State != StateFailed {
			t.Errorf("expected Failed, got %s", run.State)
		}
		if second.callCount != 0 {
			t.Errorf("second step must not run after cancellation")
		}
	})

	t.Run("records start and finish timestamps", func(t *testing.T) {
		t.Parallel()

		run := NewRun("https://feed.example.test")
		if err := New([]Step{&mockStep{name: "noop", state: StateFetching}}).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.Summary.StartedAt.IsZero() || run.Summary.FinishedAt.IsZero() {
			t.Error("expected timestamps to be recorded")
		}
	})
}

// TestStateString tests state names used in logs.
func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateFetching, "fetching"},
		{StateExtracting, "extracting"},
		{StatePublishing, "publishing"},
		{StateSummarizing, "summarizing"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
