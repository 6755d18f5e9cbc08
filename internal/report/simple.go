package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/sitesift/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to say are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.SiteReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writePageTypes(&sb, report)
	w.writeDataset(&sb, report)
	w.writeSteps(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SiteReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SITESIFT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:      %s\n", report.BaseURL))
	sb.WriteString(fmt.Sprintf("Mode:      %s\n", report.Mode))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if d := report.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:  %s\n", d.Round(time.Millisecond)))
	}

	switch {
	case report.TimedOut:
		sb.WriteString("Status:    TIMED OUT (partial results)\n")
	case report.Error != nil:
		sb.WriteString(fmt.Sprintf("Status:    ERROR - %s\n", report.Error))
	default:
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounters writes the run counter section.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.SiteReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RUN COUNTERS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	s := report.Stats
	sb.WriteString(fmt.Sprintf("  Pages processed:        %d\n", s.Pages))
	sb.WriteString(fmt.Sprintf("  Fetch errors:           %d\n", s.FetchErrors))
	sb.WriteString(fmt.Sprintf("  Redirects:              %d\n", s.Redirects))
	sb.WriteString(fmt.Sprintf("  Classification misses:  %d\n", s.ClassificationMisses))
	sb.WriteString(fmt.Sprintf("  Extraction gaps:        %d\n", s.ExtractionGaps))
	sb.WriteString(fmt.Sprintf("  Normalization rejects:  %d\n", s.NormalizationRejects))
	sb.WriteString(fmt.Sprintf("  Ambiguous links:        %d\n", s.LinkAmbiguous))
	sb.WriteString(fmt.Sprintf("  Duplicate identities:   %d\n", s.DuplicateIdentities))
	sb.WriteString("\n")
}

// writePageTypes writes how many processed URLs fell into each page type.
func (w *SimpleWriter) writePageTypes(sb *strings.Builder, report *model.SiteReport) {
	counts := report.TypeCounts()
	if len(counts) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGE TYPES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(counts) == 0 {
		sb.WriteString("  No pages classified\n")
	} else {
		for _, t := range sortedTypes(counts) {
			sb.WriteString(fmt.Sprintf("  %-12s %d\n", t.String()+":", counts[t]))
		}
	}
	sb.WriteString("\n")
}

// writeDataset writes the aggregated table sizes.
// Crawl-mode runs have no dataset and skip the section.
func (w *SimpleWriter) writeDataset(sb *strings.Builder, report *model.SiteReport) {
	if report.Dataset == nil {
		if w.showEmpty {
			sb.WriteString("  No dataset (crawl mode)\n\n")
		}
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DATASET\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	ds := report.Dataset
	sb.WriteString(fmt.Sprintf("  Speakers:     %d\n", len(ds.Speakers)))
	sb.WriteString(fmt.Sprintf("  Roundtables:  %d\n", len(ds.Roundtables)))
	sb.WriteString(fmt.Sprintf("  Posts:        %d\n", ds.PostTotal()))

	if w.verbose {
		for _, id := range ds.RoundtableIDs() {
			if n := len(ds.Posts[id]); n > 0 {
				sb.WriteString(fmt.Sprintf("    %s: %d posts\n", id, n))
			}
		}
	}
	sb.WriteString("\n")
}

// writeSteps lists the pipeline steps that ran. Verbose only.
func (w *SimpleWriter) writeSteps(sb *strings.Builder, report *model.SiteReport) {
	if !w.verbose || len(report.PerformedSteps) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PIPELINE STEPS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, step := range report.PerformedSteps {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", step))
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitesift\n")
	sb.WriteString("https://github.com/nao1215/sitesift\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sortedTypes returns the page types present in counts in name order,
// so output is stable across runs.
func sortedTypes(counts map[model.PageType]int) []model.PageType {
	types := make([]model.PageType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
