package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/flaghunt/internal/model"
)

// SummaryWriter outputs a human-readable text summary of a hunt.
// This format is designed for terminal display, mainly by the history
// command when it replays stored runs.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in human-readable format.
func (w *SummaryWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeFlags(&sb, report)
	w.writeCounters(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the run identity block.
func (w *SummaryWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FLAG HUNT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:         %s\n", report.Target())
	fmt.Fprintf(sb, "Username:       %s\n", report.Username)
	fmt.Fprintf(sb, "Date:           %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration)

	if report.ErrorMessage != "" {
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", report.ErrorMessage)
	} else {
		fmt.Fprintf(sb, "Status:         %s\n", terminationText(report.Termination))
	}

	sb.WriteString("\n")
}

// writeFlags writes the captured flags section.
func (w *SummaryWriter) writeFlags(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "FLAGS (%d/%d)\n", len(report.Flags), report.FlagQuota)
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Flags) == 0 {
		sb.WriteString("  No flags captured\n")
	} else {
		for _, flag := range report.Flags {
			fmt.Fprintf(sb, "  [+] %s\n", flag)
		}
	}
	sb.WriteString("\n")
}

// writeCounters writes the crawl counters section.
func (w *SummaryWriter) writeCounters(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL COUNTERS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Pages visited: %d\n", report.PagesVisited)
	fmt.Fprintf(sb, "  Fetches:       %d\n", report.Fetches)
	fmt.Fprintf(sb, "  Retries:       %d\n", report.Retries)
	fmt.Fprintf(sb, "  Redirects:     %d\n", report.Redirects)
	fmt.Fprintf(sb, "  Abandoned:     %d\n", report.Abandoned)
	fmt.Fprintf(sb, "  Workers:       %d\n", report.Workers)
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SummaryWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
