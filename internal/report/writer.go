package report

import (
	"io"

	"github.com/nao1215/specscrape/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteRun outputs the counters of one crawl run.
	WriteRun(summary *model.Summary) (int, error)

	// WriteStore outputs the aggregated view of a store.
	WriteStore(summary *model.StoreSummary) (int, error)
}

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// NewWriter returns the Writer for format, defaulting to plain text.
func NewWriter(format string, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
