package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/flaghunt/internal/model"
)

// YAMLWriter outputs reports in YAML format.
// This format suits configuration-management pipelines and humans who
// want a structured report they can still read without a tool.
type YAMLWriter struct {
	baseWriter
}

// NewYAMLWriter creates a YAMLWriter that outputs to the given writer.
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in YAML format.
func (w *YAMLWriter) Write(report *model.CrawlReport) (int, error) {
	data, err := yaml.Marshal(report)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}
