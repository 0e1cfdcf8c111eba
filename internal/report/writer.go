package report

import (
	"io"

	"github.com/nao1215/ctisync/internal/model"
)

// Writer defines the interface for run summary output.
// Implementations serialize the summary in various formats.
//
// Design decision: We use an interface so the artifact sink can write to
// files, stdout, or buffers with the same API, and so tests can assert on
// serialized output without touching the filesystem.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.RunSummary) (int, error)
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
