package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/ctisync/internal/model"
	"github.com/nao1215/ctisync/internal/store"
)

// zeroPacer is a no-delay pacing policy for tests.
type zeroPacer struct{}

func (zeroPacer) Pace(context.Context) error { return nil }

// newTestPublisher wires a publisher over the given fake store with no
// pacing delay.
func newTestPublisher(fs *fakeStore) *Publisher {
	return NewPublisher(fs, NewRegistry(fs, "#ffa500"),
		store.ReferenceHandle{ID: "ref-run"}, store.OrgHandle{ID: "org-dshield"},
		WithPacer(zeroPacer{}),
	)
}

// TestPublisherPublish tests observable creation and label attachment.
func TestPublisherPublish(t *testing.T) {
	t.Parallel()

	t.Run("creates observable and attaches all labels", func(t *testing.T) {
		t.Parallel()

		fs := newFakeStore()
		p := newTestPublisher(fs)

		obs, _ := model.Normalize(model.RawRecord{IP: "1.2.3.4", Description: "Botnet"})
		result := p.Publish(context.Background(), obs)

		if !result.Created {
			t.Fatalf("expected creation to succeed: %+v", result)
		}
		if len(fs.observables) != 1 {
			t.Fatalf("expected 1 observable create call, got %d", len(fs.observables))
		}
		if got := fs.observables[0]; got.Key != model.ObservableKeyIPv4 || got.Value != "1.2.3.4" {
			t.Errorf("unexpected observable input: %+v", got)
		}
		if got := fs.observables[0].ExternalRef.ID; got != "ref-run" {
			t.Errorf("expected provenance reference ref-run, got %q", got)
		}
		if got := fs.observables[0].CreatedBy.ID; got != "org-dshield" {
			t.Errorf("expected attribution org-dshield, got %q", got)
		}
		if attached := result.AttachedLabels(); len(attached) != 2 {
			t.Errorf("expected 2 attached labels, got %v", attached)
		}
		if len(fs.attachments) != 2 {
			t.Errorf("expected 2 attach calls, got %d", len(fs.attachments))
		}
	})

	t.Run("creation failure fails only the observable", func(t *testing.T) {
		t.Parallel()

		fs := newFakeStore()
		fs.observPreErr = errors.New("store rejected")
		p := newTestPublisher(fs)

		obs, _ := model.Normalize(model.RawRecord{IP: "2.3.4.5", Description: "scanner"})
		result := p.Publish(context.Background(), obs)

		if result.Created {
			t.Error("expected creation to fail")
		}
		if result.Error == "" {
			t.Error("expected failure reason")
		}
		if len(result.Labels) != 0 {
			t.Errorf("no labels should be attempted after failed creation, got %v", result.Labels)
		}
		if len(fs.attachments) != 0 {
			t.Errorf("expected no attach calls, got %d", len(fs.attachments))
		}
	})

	t.Run("one failed label does not stop the others", func(t *testing.T) {
		t.Parallel()

		fs := newFakeStore()
		fs.attachErr["botnet"] = errors.New("rate limited")
		p := newTestPublisher(fs)

		obs, _ := model.Normalize(model.RawRecord{IP: "3.4.5.6", Description: "Botnet"})
		result := p.Publish(context.Background(), obs)

		if !result.Created {
			t.Fatal("expected creation to succeed")
		}
		if len(result.Labels) != 2 {
			t.Fatalf("expected both labels attempted, got %v", result.Labels)
		}
		if failed := result.FailedLabels(); len(failed) != 1 || failed[0] != "botnet" {
			t.Errorf("expected botnet to fail, got %v", failed)
		}
		if attached := result.AttachedLabels(); len(attached) != 1 || attached[0] != "dshield" {
			t.Errorf("expected dshield to attach, got %v", attached)
		}
	})

	t.Run("label resolution failure is a single-label failure", func(t *testing.T) {
		t.Parallel()

		fs := newFakeStore()
		fs.createErr["scanner"] = errors.New("store down")
		p := newTestPublisher(fs)

		obs, _ := model.Normalize(model.RawRecord{IP: "4.5.6.7", Description: "Scanner"})
		result := p.Publish(context.Background(), obs)

		if !result.Created {
			t.Fatal("expected creation to succeed")
		}
		if failed := result.FailedLabels(); len(failed) != 1 || failed[0] != "scanner" {
			t.Errorf("expected scanner resolution failure, got %v", failed)
		}
	})

	t.Run("label creation happens at most once across observables", func(t *testing.T) {
		t.Parallel()

		fs := newFakeStore()
		p := newTestPublisher(fs)
		ctx := context.Background()

		for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
			obs, _ := model.Normalize(model.RawRecord{IP: ip, Description: "Scanner"})
			p.Publish(ctx, obs)
		}

		if fs.createCalls["scanner"] != 1 {
			t.Errorf("expected scanner created once, got %d", fs.createCalls["scanner"])
		}
		if fs.createCalls[model.BaseLabel] != 1 {
			t.Errorf("expected base label created once, got %d", fs.createCalls[model.BaseLabel])
		}
	})
}

// TestPacer tests the rate-based pacing policy.
func TestPacer(t *testing.T) {
	t.Parallel()

	t.Run("enforces the minimum interval between calls", func(t *testing.T) {
		t.Parallel()

		p := NewPacer(20 * time.Millisecond)
		ctx := context.Background()

		start := time.Now()
		for range 3 {
			if err := p.Pace(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		// First call is immediate (burst 1); the next two wait.
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("expected at least 40ms elapsed, got %v", elapsed)
		}
	})

	t.Run("zero interval never blocks", func(t *testing.T) {
		t.Parallel()

		p := NewPacer(0)
		ctx := context.Background()

		start := time.Now()
		for range 100 {
			if err := p.Pace(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("zero pacer should not block, took %v", elapsed)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		t.Parallel()

		p := NewPacer(time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		if err := p.Pace(ctx); err != nil {
			t.Fatalf("first pace should be immediate: %v", err)
		}
		cancel()
		if err := p.Pace(ctx); err == nil {
			t.Error("expected cancellation error")
		}
	})
}
