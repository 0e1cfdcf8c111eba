package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/ctisync/internal/model"
)

// testSummary builds a summary with the given feed URL and start time.
func testSummary(feedURL string, started time.Time) *model.RunSummary {
	s := model.NewRunSummary(feedURL)
	s.StartedAt = started
	s.Labels = []string{"scanner", "botnet"}
	obs, _ := model.Normalize(model.RawRecord{IP: "1.2.3.4", Description: "Botnet"})
	s.AddResult(obs, model.PublishResult{Value: "1.2.3.4", ObservableID: "obs-1", Created: true})
	return s
}

// TestRunDBSaveAndList tests the save/list round trip.
func TestRunDBSaveAndList(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		if err := rdb.SaveRun(ctx, testSummary("https://feed.example.test", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	records, err := rdb.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(records))
	}
	// Newest first.
	if !records[0].StartedAt.After(records[2].StartedAt) {
		t.Errorf("expected newest-first ordering: %v then %v", records[0].StartedAt, records[2].StartedAt)
	}
	if records[0].LabelCount != 2 || records[0].ObjectCount != 1 || records[0].FailureCount != 0 {
		t.Errorf("unexpected counters: %+v", records[0])
	}

	limited, err := rdb.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(limited))
	}
}

// TestRunDBGetRun tests full summary round-tripping.
func TestRunDBGetRun(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	if err := rdb.SaveRun(ctx, testSummary("https://feed.example.test", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}

	record, summary, err := rdb.LatestRun(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if record.FeedURL != "https://feed.example.test" {
		t.Errorf("unexpected feed URL: %q", record.FeedURL)
	}
	if len(summary.Labels) != 2 {
		t.Errorf("expected 2 labels, got %v", summary.Labels)
	}
	if len(summary.Objects) != 1 || summary.Objects[0].Value != "1.2.3.4" {
		t.Errorf("unexpected objects: %+v", summary.Objects)
	}
}

// TestRunDBEmptyHistory tests lookups against an empty database.
func TestRunDBEmptyHistory(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()

	if _, _, err := rdb.LatestRun(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := rdb.GetRun(ctx, 42); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
