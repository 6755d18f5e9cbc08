package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/sitesift/internal/model"
)

// JSONWriter outputs run summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in JSON format.
func (w *JSONWriter) Write(report *model.SiteReport) (int, error) {
	return w.writeJSON(NewJSONSummary(report))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONSummary is the machine-readable run summary.
//
// Design decision: We marshal a flat wrapper built from the report
// rather than the SiteReport itself because this keeps the JSON contract
// independent of internal struct layout, and lets us include derived
// values like table sizes without polluting the core data structure.
type JSONSummary struct {
	// BaseURL is the site root the run started from.
	BaseURL string `json:"base_url"`

	// Mode is the run mode, "crawl" or "scrape".
	Mode string `json:"mode"`

	// StartedAt and FinishedAt bound the run (UTC).
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Stats holds the run counters.
	Stats model.RunStats `json:"stats"`

	// PageTypes counts processed URLs per classified type.
	PageTypes map[string]int `json:"page_types,omitempty"`

	// Speakers, Roundtables and Posts are the aggregated table sizes.
	// Zero in crawl mode.
	Speakers    int `json:"speakers"`
	Roundtables int `json:"roundtables"`
	Posts       int `json:"posts"`

	// TimedOut is true if the run was terminated by its deadline.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error is the message of the error that stopped the run early.
	Error string `json:"error,omitempty"`
}

// NewJSONSummary builds the JSON summary from a run report.
func NewJSONSummary(report *model.SiteReport) *JSONSummary {
	s := &JSONSummary{
		BaseURL:    report.BaseURL,
		Mode:       report.Mode,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Stats:      report.Stats,
		TimedOut:   report.TimedOut,
	}
	if counts := report.TypeCounts(); len(counts) > 0 {
		s.PageTypes = make(map[string]int, len(counts))
		for t, n := range counts {
			s.PageTypes[t.String()] = n
		}
	}
	if ds := report.Dataset; ds != nil {
		s.Speakers = len(ds.Speakers)
		s.Roundtables = len(ds.Roundtables)
		s.Posts = ds.PostTotal()
	}
	if report.Error != nil {
		s.Error = report.Error.Error()
	}
	return s
}
