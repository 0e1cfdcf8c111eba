package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/ctisync/internal/model"
)

// MarkdownWriter renders the run summary as a Markdown report for
// operators: overall counts, the published observables, and any per-item
// failures that need attention.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeObjects(md, summary)
	w.writeFailures(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("DShield Feed Import")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Feed", "`" + summary.FeedURL + "`"},
			{"Vocabulary labels", strconv.Itoa(len(summary.Labels))},
			{"Observables published", strconv.Itoa(summary.CreatedCount())},
			{"Observables failed", strconv.Itoa(summary.FailedCount())},
			{"Label attachments failed", strconv.Itoa(summary.LabelFailureCount())},
		},
	})
	md.PlainText("")

	switch {
	case summary.FailedCount() > 0:
		md.Warningf("%d observable(s) failed to publish; see failures below.", summary.FailedCount())
	case summary.LabelFailureCount() > 0:
		md.Note(fmt.Sprintf("All observables published, but %d label attachment(s) failed.", summary.LabelFailureCount()))
	default:
		md.Tip("All observables and labels published successfully.")
	}
	md.PlainText("")
}

// writeObjects writes the published observables table.
func (w *MarkdownWriter) writeObjects(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Published Observables")
	md.PlainText("")

	if len(summary.Objects) == 0 {
		md.PlainText("No observables were published.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Objects))
	for _, obj := range summary.Objects {
		rows = append(rows, []string{
			obj.Type,
			"`" + obj.Value + "`",
			strings.Join(obj.Labels, ", "),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Value", "Labels"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists per-item failures, if any.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.RunSummary) {
	var failures []string
	for _, r := range summary.Results {
		if !r.Created {
			failures = append(failures, "`"+r.Value+"`: "+r.Error)
			continue
		}
		for _, l := range r.Labels {
			if !l.Attached {
				failures = append(failures, "`"+r.Value+"` label `"+l.Name+"`: "+l.Reason)
			}
		}
	}

	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.BulletList(failures...)
	md.PlainText("")
}
