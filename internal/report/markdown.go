package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/flaghunt/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeFlags(md, report)
	w.writeCounters(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Flag Hunt Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target() + "`"},
			{"Username", "`" + report.Username + "`"},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Workers", strconv.Itoa(report.Workers)},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on how the hunt ended.
func (w *MarkdownWriter) statusText(report *model.CrawlReport) string {
	if report.ErrorMessage != "" {
		return "Error - " + report.ErrorMessage
	}
	return terminationText(report.Termination)
}

// writeFlags writes the captured flags section.
func (w *MarkdownWriter) writeFlags(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Flags")
	md.PlainText("")

	if len(report.Flags) == 0 {
		md.PlainText("No flags captured.")
		md.PlainText("")
	} else {
		items := make([]string, 0, len(report.Flags))
		for _, flag := range report.Flags {
			items = append(items, "`"+flag+"`")
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	w.writeAlert(md, report)
}

// writeAlert writes an alert describing the outcome of the hunt.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Termination == model.TerminationError:
		md.Cautionf("The hunt died before finishing: %s", report.ErrorMessage)
	case report.QuotaReached():
		md.Tip(fmt.Sprintf("All %d flags captured.", report.FlagQuota))
	default:
		md.Warningf(
			"The site was exhausted with %d of %d flags captured.",
			len(report.Flags), report.FlagQuota,
		)
	}
	md.PlainText("")
}

// writeCounters writes the crawl counters with an outcome chart.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Counters")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Fetches", strconv.FormatInt(report.Fetches, 10)},
			{"Retries", strconv.FormatInt(report.Retries, 10)},
			{"Redirects", strconv.FormatInt(report.Redirects, 10)},
			{"Abandoned", strconv.FormatInt(report.Abandoned, 10)},
		},
	})
	md.PlainText("")

	if report.Fetches+report.Retries+report.Redirects+report.Abandoned > 0 {
		w.writeOutcomeChart(md, report)
	}
}

// writeOutcomeChart writes a mermaid pie chart of exchange outcomes.
func (w *MarkdownWriter) writeOutcomeChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Exchange Outcomes"),
		piechart.WithShowData(true),
	)

	if report.Fetches > 0 {
		chart.LabelAndIntValue("Fetched", uint64(report.Fetches))
	}
	if report.Retries > 0 {
		chart.LabelAndIntValue("Retried", uint64(report.Retries))
	}
	if report.Redirects > 0 {
		chart.LabelAndIntValue("Redirected", uint64(report.Redirects))
	}
	if report.Abandoned > 0 {
		chart.LabelAndIntValue("Abandoned", uint64(report.Abandoned))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [flaghunt](https://github.com/nao1215/flaghunt)*")
}
