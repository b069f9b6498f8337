package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/flaghunt/internal/model"
)

// sampleReport builds a finished report with deterministic content.
func sampleReport() *model.CrawlReport {
	r := model.NewCrawlReport("proj5.3700.network", 443, "alice")
	r.StartedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	r.Duration = 42 * time.Second
	r.Flags = []string{"flag-one", "flag-two", "flag-three", "flag-four", "flag-five"}
	r.FlagQuota = 5
	r.Termination = model.TerminationQuota
	r.PagesVisited = 120
	r.Fetches = 140
	r.Retries = 6
	r.Redirects = 3
	r.Abandoned = 11
	r.Workers = 5
	return r
}

// TestPlainWriter verifies the default output contract: the flags,
// one per line, and nothing else.
func TestPlainWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewPlainWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "flag-one\nflag-two\nflag-three\nflag-four\nflag-five\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if n != len(want) {
		t.Errorf("reported %d bytes, want %d", n, len(want))
	}
}

// TestPlainWriterNoFlags verifies that an empty hunt produces no
// output at all.
func TestPlainWriterNoFlags(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewPlainWriter(&buf).Write(model.NewCrawlReport("proj5.3700.network", 443, "alice"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// TestJSONWriter verifies that the output round-trips and that the
// indent option changes the layout but not the content.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var compact, pretty bytes.Buffer
	if _, err := NewJSONWriter(&compact).Write(sampleReport()); err != nil {
		t.Fatalf("compact write failed: %v", err)
	}
	if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).Write(sampleReport()); err != nil {
		t.Fatalf("pretty write failed: %v", err)
	}

	var got model.CrawlReport
	if err := json.Unmarshal(compact.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Server != "proj5.3700.network" || len(got.Flags) != 5 || got.Termination != model.TerminationQuota {
		t.Errorf("round-trip lost data: %+v", got)
	}

	if strings.Count(strings.TrimSpace(compact.String()), "\n") != 0 {
		t.Error("compact output should be a single line")
	}
	if !strings.Contains(pretty.String(), "\n  ") {
		t.Error("pretty output should be indented")
	}
}

// TestFullJSONWriter verifies the version wrapper.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "1.2.3").Write(sampleReport()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var wrapped JSONReport
	if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if wrapped.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", wrapped.Version)
	}
	if wrapped.Report == nil || wrapped.Report.Username != "alice" {
		t.Errorf("wrapped report lost data: %+v", wrapped.Report)
	}
}

// TestYAMLWriter verifies YAML output against the model's field tags.
func TestYAMLWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewYAMLWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got["server"] != "proj5.3700.network" {
		t.Errorf("server = %v", got["server"])
	}
	if got["termination"] != "quota" {
		t.Errorf("termination = %v", got["termination"])
	}
	flags, ok := got["flags"].([]any)
	if !ok || len(flags) != 5 {
		t.Errorf("flags = %v", got["flags"])
	}
}

// TestMarkdownWriter verifies the document structure: header table,
// flag list, counters, and the outcome chart.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Flag Hunt Report",
		"`proj5.3700.network:443`",
		"## Flags",
		"`flag-three`",
		"All 5 flags captured.",
		"## Crawl Counters",
		"Exchange Outcomes",
		"mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestMarkdownWriterNoFlags verifies the empty-hunt rendering.
func TestMarkdownWriterNoFlags(t *testing.T) {
	t.Parallel()

	r := model.NewCrawlReport("proj5.3700.network", 443, "alice")
	r.FlagQuota = 5
	r.Termination = model.TerminationExhausted

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "No flags captured.") {
		t.Errorf("output missing the empty notice:\n%s", out)
	}
	if !strings.Contains(out, "0 of 5 flags") {
		t.Errorf("output missing the exhaustion warning:\n%s", out)
	}
	if strings.Contains(out, "mermaid") {
		t.Error("outcome chart should be omitted when every counter is zero")
	}
}

// TestSummaryWriter verifies the boxed terminal layout.
func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSummaryWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"FLAG HUNT REPORT",
		"Target:         proj5.3700.network:443",
		"Username:       alice",
		"Status:         Quota",
		"FLAGS (5/5)",
		"[+] flag-one",
		"CRAWL COUNTERS",
		"Pages visited: 120",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestMultiWriter verifies the fan-out: every writer runs, byte counts
// add up, and the first error stops the chain.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewPlainWriter(&a), NewPlainWriter(&b))

	n, err := mw.Write(sampleReport())
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if a.String() != b.String() {
		t.Error("both destinations should receive the same output")
	}
	if n != a.Len()+b.Len() {
		t.Errorf("reported %d bytes, want %d", n, a.Len()+b.Len())
	}

	broken := NewMultiWriter(NewPlainWriter(failWriter{}), NewPlainWriter(&a))
	if _, err := broken.Write(sampleReport()); err == nil {
		t.Error("expected the broken destination's error to surface")
	}
}

// failWriter fails every write.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("destination gone")
}

// TestTerminationText covers the human rendering of termination
// reasons.
func TestTerminationText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   model.Termination
		want string
	}{
		{model.TerminationQuota, "Quota"},
		{model.TerminationExhausted, "Exhausted"},
		{model.TerminationError, "Error"},
		{model.Termination(""), "Unknown"},
	}

	for _, tt := range tests {
		if got := terminationText(tt.in); got != tt.want {
			t.Errorf("terminationText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
