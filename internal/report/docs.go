package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/output"
	"github.com/nao1215/sitesift/internal/sitemap"
)

// DocsWriter renders the generated site documents: the web map, the
// speaker directory, and the website rebuild specification.
//
// The documents are derived entirely from the run report, so writing
// them twice for the same report produces identical files.
type DocsWriter struct {
	docs   config.DocsConfig
	scrape config.ScrapeConfig
	logger *slog.Logger
}

// DocsOption configures a DocsWriter.
type DocsOption func(*DocsWriter)

// WithDocsLogger sets the logger used for document generation progress.
func WithDocsLogger(logger *slog.Logger) DocsOption {
	return func(w *DocsWriter) {
		w.logger = logger
	}
}

// NewDocsWriter creates a DocsWriter for the given output locations.
// The scrape configuration supplies the CSV file names the rebuild
// specification refers to.
func NewDocsWriter(docs config.DocsConfig, scrape config.ScrapeConfig, opts ...DocsOption) *DocsWriter {
	w := &DocsWriter{
		docs:   docs,
		scrape: scrape,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteAll writes every document the run produced data for and returns
// the paths written. The web map is always written; the speaker
// directory and the rebuild specification need a dataset and are
// skipped for crawl-mode runs.
func (w *DocsWriter) WriteAll(report *model.SiteReport) ([]string, error) {
	var written []string

	if err := w.WriteWebMap(report); err != nil {
		return written, err
	}
	written = append(written, w.docs.WebMapPath)

	if report.Dataset != nil {
		if err := w.WriteSpeakers(report.Dataset); err != nil {
			return written, err
		}
		written = append(written, w.docs.SpeakersPath)

		if err := w.WriteTechSpec(report); err != nil {
			return written, err
		}
		written = append(written, w.docs.TechSpecPath)
	}

	w.logger.Debug("site documents written", "files", len(written))
	return written, nil
}

// WriteWebMap writes the site map document: run statistics, the page
// type distribution, the URL path outline, and the roundtable
// participant relationships.
func (w *DocsWriter) WriteWebMap(report *model.SiteReport) error {
	return w.writeDoc(w.docs.WebMapPath, func(md *markdown.Markdown) {
		md.H1("Web Map")
		md.PlainText("")

		md.Table(markdown.TableSet{
			Header: []string{"Property", "Value"},
			Rows: [][]string{
				{"Base URL", "`" + report.BaseURL + "`"},
				{"Generated (UTC)", docTime(report).Format(time.RFC3339)},
				{"Mode", report.Mode},
				{"Pages visited", strconv.Itoa(report.Stats.Pages)},
				{"Unique URLs", strconv.Itoa(len(report.SeenURLs))},
				{"Errors", strconv.Itoa(report.Stats.FetchErrors)},
				{"Redirects", strconv.Itoa(report.Stats.Redirects)},
			},
		})
		md.PlainText("")

		if counts := report.TypeCounts(); len(counts) > 0 {
			md.H2("Page Types")
			writeTypeChart(md, counts)
		}

		md.H2("Site Structure (path outline)")
		md.PlainText("")
		md.PlainText(renderOutline(sitemap.Build(report.SeenURLs)))
		md.PlainText("")

		w.writeRelations(md, report)
		writeDocFooter(md)
	})
}

// writeRelations writes the roundtable participant section when the
// linker produced relationships.
func (w *DocsWriter) writeRelations(md *markdown.Markdown, report *model.SiteReport) {
	rel := report.Relations
	if rel == nil || len(rel.RoundtableSpeakers) == 0 {
		return
	}

	md.H2("Roundtable Participants")
	md.PlainText("")

	ids := make([]string, 0, len(rel.RoundtableSpeakers))
	for id := range rel.RoundtableSpeakers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		links := rel.RoundtableSpeakers[id]
		if len(links) == 0 {
			continue
		}
		md.PlainText("### " + id)
		md.PlainText("")
		items := make([]string, 0, len(links))
		for _, l := range links {
			items = append(items, formatLink(l))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

// formatLink renders one participant link as a list item.
func formatLink(l model.ParticipantLink) string {
	if l.Placeholder {
		return l.Name + " (unlinked)"
	}
	if l.Score < 1 {
		return fmt.Sprintf("%s (%s, similarity %.2f)", l.Name, l.SpeakerID, l.Score)
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.SpeakerID)
}

// WriteSpeakers writes the speaker directory document. Each speaker gets
// a section with a stable anchor so other documents can deep-link it.
func (w *DocsWriter) WriteSpeakers(ds *model.Dataset) error {
	return w.writeDoc(w.docs.SpeakersPath, func(md *markdown.Markdown) {
		md.H1("Speakers")
		md.PlainText("")

		for i := range ds.Speakers {
			s := &ds.Speakers[i]
			md.H2(s.Name)
			md.PlainText(`<a id="speaker-` + s.ID + `"></a>`)
			md.PlainText("")

			if s.Bio != "" {
				md.PlainText(s.Bio)
				md.PlainText("")
			}

			items := []string{"Profile: " + s.CanonicalURL}
			if s.Title != "" {
				items = append(items, "Title: "+s.Title)
			}
			if s.Organization != "" {
				items = append(items, "Organization: "+s.Organization)
			}
			if len(s.Roundtables) > 0 {
				items = append(items, "Roundtables: "+strings.Join(s.Roundtables, ", "))
			}
			md.BulletList(items...)
			md.PlainText("")
		}
	})
}

// WriteTechSpec writes the website rebuild specification: the document a
// developer would follow to recreate the site from the CSV tables.
func (w *DocsWriter) WriteTechSpec(report *model.SiteReport) error {
	speakersCSV := filepath.Join(w.scrape.OutputsDir, w.scrape.SpeakersCSV)
	roundtablesCSV := filepath.Join(w.scrape.OutputsDir, w.scrape.RoundtablesCSV)
	discussionsCSV := filepath.Join(w.scrape.OutputsDir, w.scrape.DiscussionsCSV("<roundtable_id>"))

	return w.writeDoc(w.docs.TechSpecPath, func(md *markdown.Markdown) {
		md.H1("Website Rebuild Technical Specification")
		md.PlainText("")
		md.BulletList(
			"Generated (UTC): `"+docTime(report).Format(time.RFC3339)+"`",
			"Source website: `"+report.BaseURL+"`",
		)
		md.PlainText("")

		md.H2("Purpose")
		md.PlainText("")
		md.PlainText("This document describes how to recreate the scraped website from the sitesift outputs:")
		md.PlainText("")
		md.BulletList(
			"`"+speakersCSV+"`",
			"`"+roundtablesCSV+"`",
			"`"+discussionsCSV+"`",
		)
		md.PlainText("")

		md.H2("Recommended Architecture (file-based backend)")
		md.PlainText("")
		md.PlainText("### Option A (recommended): static site generator")
		md.PlainText("")
		md.OrderedList(
			"Convert the CSV tables to JSON artifacts at build time.",
			"Render static HTML from templates, one page per speaker and roundtable.",
			"Deploy to static hosting.",
		)
		md.PlainText("")
		md.PlainText("### Option B: minimal API server + templates")
		md.PlainText("")
		md.OrderedList(
			"Load the CSV tables from disk on startup.",
			"Render HTML server-side, or serve JSON to a thin frontend.",
		)
		md.PlainText("")

		md.H2("Information Architecture")
		md.PlainText("")
		md.BulletList(
			"Speakers directory and detail pages",
			"Roundtables index and detail pages",
			"Discussion thread per roundtable",
		)
		md.PlainText("")

		md.H2("Data Contracts")
		md.PlainText("")
		writeContract(md, filepath.Base(speakersCSV), output.SpeakerColumns,
			"`speaker_id` is the primary key.")
		writeContract(md, filepath.Base(roundtablesCSV), output.RoundtableColumns,
			"`roundtable_id` is the primary key; `speaker_ids` is a comma-separated foreign key list.")
		writeContract(md, filepath.Base(discussionsCSV), output.DiscussionColumns,
			"`discussion_id` is the primary key; `roundtable_id` matches the owning roundtable.")

		md.H2("Referential Integrity")
		md.PlainText("")
		md.BulletList(
			"Every speaker referenced in `speaker_ids` must exist in the speakers table.",
			"Every discussion file must match an existing `roundtable_id`.",
			"Names in `unlinked_participants` are carried verbatim; they reference no speaker row.",
		)
		md.PlainText("")

		if report.Dataset != nil {
			md.H2("Current Dataset")
			md.PlainText("")
			writeDatasetTable(md, report.Dataset)
			md.PlainText("")
		}

		writeDocFooter(md)
	})
}

// writeContract writes one table's column contract.
func writeContract(md *markdown.Markdown, name string, columns []string, keys string) {
	md.PlainText("### " + name)
	md.PlainText("")
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = "`" + c + "`"
	}
	md.PlainText("Columns: " + strings.Join(quoted, ", "))
	md.PlainText("")
	md.PlainText(keys)
	md.PlainText("")
}

// renderOutline renders the path tree as a nested bullet outline.
// Nodes whose page was processed with a known type carry it in
// parentheses.
func renderOutline(tree *sitemap.Tree) string {
	var sb strings.Builder
	tree.Walk(func(depth int, n *sitemap.Node) {
		if depth == 0 {
			if n.Seen {
				sb.WriteString("- `(root)`" + typeSuffix(n) + "\n")
			}
			return
		}
		sb.WriteString(strings.Repeat("  ", depth-1))
		sb.WriteString("- `" + n.Name + "`" + typeSuffix(n) + "\n")
	})
	return strings.TrimRight(sb.String(), "\n")
}

// typeSuffix annotates a processed page with its classified type.
func typeSuffix(n *sitemap.Node) string {
	if !n.Seen || n.Type == model.PageTypeUnknown || n.Type == "" {
		return ""
	}
	return " (" + n.Type.String() + ")"
}

// docTime is the timestamp stamped into generated documents. Reports
// carry their own times so document output stays reproducible.
func docTime(report *model.SiteReport) time.Time {
	if !report.FinishedAt.IsZero() {
		return report.FinishedAt.UTC()
	}
	return report.StartedAt.UTC()
}

// writeDocFooter writes the shared document footer.
func writeDocFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [sitesift](https://github.com/nao1215/sitesift)*")
}

// writeDoc renders a document into path, creating parent directories as
// needed.
func (w *DocsWriter) writeDoc(path string, render func(md *markdown.Markdown)) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create docs directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path comes from the user's own config
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	md := markdown.NewMarkdown(f)
	render(md)
	if err := md.Build(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
