package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/ctisync/internal/model"
)

// JSONWriter serializes the run summary as the export artifact: a nested
// mapping with a "labels" field (the feed vocabulary) and an "objects"
// field (the published observables). This is the format downstream tooling
// consumes, so it contains exactly those two fields and nothing else.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library; the artifact is small and the stdlib behavior is stable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool
}

// JSONOption configures a JSONWriter.
type JSONOption func(*JSONWriter)

// WithPrettyPrint enables two-space indented output, matching the artifact
// files the upstream connector produced.
func WithPrettyPrint() JSONOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// artifact is the on-disk shape of the export artifact.
type artifact struct {
	Labels  []string              `json:"labels"`
	Objects []model.SummaryObject `json:"objects"`
}

// Write implements Writer.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	a := artifact{
		Labels:  summary.Labels,
		Objects: summary.Objects,
	}
	if a.Labels == nil {
		a.Labels = []string{}
	}
	if a.Objects == nil {
		a.Objects = []model.SummaryObject{}
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(a, "", "  ")
	} else {
		data, err = json.Marshal(a)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
