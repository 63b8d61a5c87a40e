package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/specscrape/internal/model"
)

// JSONWriter outputs reports in JSON format for other tools.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs the run counters.
func (w *JSONWriter) WriteRun(s *model.Summary) (int, error) {
	return w.writeJSON(runJSON{
		Summary:        s,
		ElapsedSeconds: s.Elapsed().Seconds(),
	})
}

// WriteStore outputs the store overview.
func (w *JSONWriter) WriteStore(s *model.StoreSummary) (int, error) {
	return w.writeJSON(s)
}

// runJSON adds derived fields to a run summary.
type runJSON struct {
	*model.Summary
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
