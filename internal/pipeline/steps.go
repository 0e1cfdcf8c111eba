package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ctisync/internal/feed"
	"github.com/nao1215/ctisync/internal/model"
	"github.com/nao1215/ctisync/internal/publish"
	"github.com/nao1215/ctisync/internal/report"
)

// ErrEmptyFeed is returned by the fetch step when the feed responds with a
// well-formed but empty record set. An empty feed means there is nothing to
// process and almost certainly indicates an upstream problem, so it is
// treated the same as a fetch failure: the run stops with no artifact.
var ErrEmptyFeed = errors.New("feed returned no records")

// FetchStep obtains the raw record set from the feed. It is the only step
// allowed to fail the run.
type FetchStep struct {
	// client is the feed to ingest.
	client *feed.Client

	// logger for structured logging.
	logger *slog.Logger
}

// NewFetchStep creates the fetch step.
func NewFetchStep(client *feed.Client, logger *slog.Logger) *FetchStep {
	return &FetchStep{client: client, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return "fetch" }

// State returns the run state this step represents.
func (s *FetchStep) State() State { return StateFetching }

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *Run) error {
	records, err := s.client.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrEmptyFeed
	}

	run.Records = records
	s.logger.Info("fetched feed", "records", len(records))
	return nil
}

// ExtractStep builds the deduplicated label vocabulary from the full record
// set. The vocabulary lands in the summary unconditionally, even if nothing
// is ultimately published.
type ExtractStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// NewExtractStep creates the extract step.
func NewExtractStep(logger *slog.Logger) *ExtractStep {
	return &ExtractStep{logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return "extract" }

// State returns the run state this step represents.
func (s *ExtractStep) State() State { return StateExtracting }

// Do executes the extract step. Extraction is pure and cannot fail.
func (s *ExtractStep) Do(_ context.Context, run *Run) error {
	run.Summary.Labels = model.ExtractLabels(run.Records)
	s.logger.Info("extracted vocabulary", "labels", len(run.Summary.Labels))
	return nil
}

// PublishStep normalizes and publishes each record in feed order, strictly
// sequentially: one record's observable and all its label attachments
// complete before the next record begins. Per-record failures are absorbed
// into the summary; this step never fails the run.
type PublishStep struct {
	// publisher performs the store writes for one observable.
	publisher *publish.Publisher

	// logger for structured logging.
	logger *slog.Logger
}

// NewPublishStep creates the publish step.
func NewPublishStep(publisher *publish.Publisher, logger *slog.Logger) *PublishStep {
	return &PublishStep{publisher: publisher, logger: logger}
}

// Name returns the step name.
func (s *PublishStep) Name() string { return "publish" }

// State returns the run state this step represents.
func (s *PublishStep) State() State { return StatePublishing }

// Do executes the publish step.
func (s *PublishStep) Do(ctx context.Context, run *Run) error {
	for _, record := range run.Records {
		select {
		case <-ctx.Done():
			s.logger.Warn("publish interrupted", "reason", ctx.Err())
			return nil
		default:
		}

		obs, ok := model.Normalize(record)
		if !ok {
			// Expected for this feed; not an error and not logged above
			// debug so operators can audit feed quality when they care.
			s.logger.Debug("skipping record without ip", "description", record.Description)
			continue
		}

		result := s.publisher.Publish(ctx, obs)
		run.Summary.AddResult(obs, result)
	}

	s.logger.Info("publish complete",
		"created", run.Summary.CreatedCount(),
		"failed", run.Summary.FailedCount(),
		"labelFailures", run.Summary.LabelFailureCount(),
	)
	return nil
}

// HistoryStore persists completed run summaries. Implemented by
// database.RunDB; an interface here keeps the summarize step testable
// without SQLite.
type HistoryStore interface {
	// SaveRun records one completed run summary.
	SaveRun(ctx context.Context, summary *model.RunSummary) error
}

// SummarizeStep serializes the run summary: the JSON artifact on disk and,
// when configured, a row in the local run-history database. Sink failures
// are logged and absorbed; store-side writes already performed are never
// undone, and a sink error never fails the run.
type SummarizeStep struct {
	// artifactPath is where the JSON artifact is written.
	artifactPath string

	// history is the optional run-history store. Nil disables persistence.
	history HistoryStore

	// logger for structured logging.
	logger *slog.Logger
}

// NewSummarizeStep creates the summarize step. Pass a nil history store to
// skip run-history persistence.
func NewSummarizeStep(artifactPath string, history HistoryStore, logger *slog.Logger) *SummarizeStep {
	return &SummarizeStep{artifactPath: artifactPath, history: history, logger: logger}
}

// Name returns the step name.
func (s *SummarizeStep) Name() string { return "summarize" }

// State returns the run state this step represents.
func (s *SummarizeStep) State() State { return StateSummarizing }

// Do executes the summarize step. The artifact and the history row are
// independent local sinks, so they are written concurrently; the store is
// not involved and the sequential-store-access rule is unaffected.
func (s *SummarizeStep) Do(ctx context.Context, run *Run) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.writeArtifact(run.Summary); err != nil {
			s.logger.Error("failed to write artifact", "path", s.artifactPath, "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if s.history == nil {
			return nil
		}
		if err := s.history.SaveRun(ctx, run.Summary); err != nil {
			s.logger.Error("failed to save run history", "error", err)
		}
		return nil
	})

	_ = g.Wait() //nolint:errcheck // Sink goroutines absorb their own errors
	return nil
}

// writeArtifact serializes the summary to the artifact path with secure
// permissions, creating parent directories as needed.
func (s *SummarizeStep) writeArtifact(summary *model.RunSummary) error {
	dir := filepath.Dir(s.artifactPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.artifactPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	if _, err := report.NewJSONWriter(f, report.WithPrettyPrint()).Write(summary); err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	s.logger.Info("artifact written", "path", s.artifactPath,
		"labels", len(summary.Labels), "objects", len(summary.Objects))
	return nil
}
