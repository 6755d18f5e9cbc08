package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitesift/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
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

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(report *model.SiteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCounters(md, report)
	w.writeDataset(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SiteReport) {
	md.H1("Sitesift Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.BaseURL + "`"},
			{"Mode", report.Mode},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Processed", strconv.Itoa(report.Stats.Pages)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.SiteReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.Error != nil {
		return "❌ Error - " + report.Error.Error()
	}
	return "✅ Complete"
}

// writeCounters writes the run counter section with a page-type chart.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, report *model.SiteReport) {
	md.H2("Run Counters")
	md.PlainText("")

	s := report.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Pages processed", strconv.Itoa(s.Pages)},
			{"Fetch errors", strconv.Itoa(s.FetchErrors)},
			{"Redirects", strconv.Itoa(s.Redirects)},
			{"Classification misses", strconv.Itoa(s.ClassificationMisses)},
			{"Extraction gaps", strconv.Itoa(s.ExtractionGaps)},
			{"Normalization rejects", strconv.Itoa(s.NormalizationRejects)},
			{"Ambiguous links", strconv.Itoa(s.LinkAmbiguous)},
			{"Duplicate identities", strconv.Itoa(s.DuplicateIdentities)},
		},
	})
	md.PlainText("")

	if counts := report.TypeCounts(); len(counts) > 0 {
		writeTypeChart(md, counts)
	}
}

// writeTypeChart writes a mermaid pie chart of the page type distribution.
func writeTypeChart(md *markdown.Markdown, counts map[model.PageType]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Type Distribution"),
		piechart.WithShowData(true),
	)

	for _, t := range sortedTypes(counts) {
		chart.LabelAndIntValue(t.String(), uint64(counts[t]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDataset writes the aggregated table sizes.
func (w *MarkdownWriter) writeDataset(md *markdown.Markdown, report *model.SiteReport) {
	if report.Dataset == nil {
		return
	}

	md.H2("Dataset")
	md.PlainText("")
	writeDatasetTable(md, report.Dataset)
	md.PlainText("")
}

// writeDatasetTable writes the table-size summary of a dataset.
func writeDatasetTable(md *markdown.Markdown, ds *model.Dataset) {
	md.Table(markdown.TableSet{
		Header: []string{"Table", "Rows"},
		Rows: [][]string{
			{"Speakers", strconv.Itoa(len(ds.Speakers))},
			{"Roundtables", strconv.Itoa(len(ds.Roundtables))},
			{"Discussion posts", strconv.Itoa(ds.PostTotal())},
		},
	})
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitesift](https://github.com/nao1215/sitesift)*")
}
