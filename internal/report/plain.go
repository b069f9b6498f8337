package report

import (
	"io"

	"github.com/nao1215/flaghunt/internal/model"
)

// PlainWriter outputs the captured flags one per line and nothing
// else. This is the default format: the flags are the product of a
// hunt, and anything else on stdout would get in the way of piping
// them into a grader or another tool.
//
// Design decision: No banner, no count, no trailing summary. Humans
// who want context ask for one of the richer formats; diagnostics go
// to the logger on stderr.
type PlainWriter struct {
	baseWriter
}

// NewPlainWriter creates a PlainWriter that outputs to the given writer.
func NewPlainWriter(output io.Writer) *PlainWriter {
	return &PlainWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs each captured flag on its own line.
func (w *PlainWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, flag := range report.Flags {
		n, err := io.WriteString(w.output, flag+"\n")
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
