package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
)

// Column orders of the emitted tables. The headers are a stable
// contract: downstream spreadsheets, scripts, and the generated rebuild
// specification key on these names.
var (
	// SpeakerColumns is the speakers.csv header.
	SpeakerColumns = []string{
		"speaker_id", "name", "bio", "title", "organization",
		"profile_url", "headshot_url", "social_links", "roundtable_ids",
		"source_last_seen_utc",
	}

	// RoundtableColumns is the roundtables.csv header.
	RoundtableColumns = []string{
		"roundtable_id", "title", "description", "date", "roundtable_url",
		"speaker_ids", "unlinked_participants", "post_count", "stub",
		"speakers_md_link", "source_last_seen_utc",
	}

	// DiscussionColumns is the per-roundtable discussion table header.
	DiscussionColumns = []string{
		"discussion_id", "roundtable_id", "thread_title", "post_id",
		"author_speaker_id", "author_name", "posted_at", "content_text",
		"permalink", "source_last_seen_utc",
	}
)

// speakersDocLink is the speakers_md_link cell for roundtables that have
// at least one linked speaker. It points at the generated speaker
// directory document.
const speakersDocLink = "./speakers.md"

// Emitter writes dataset snapshots to the configured outputs directory.
//
// Entity tables arrive sorted by ID and discussion tables keep their
// discovery order, so two emissions of the same snapshot are
// byte-identical. Files are written to a temporary name and renamed into
// place: a crash mid-run never leaves a half-written table behind.
type Emitter struct {
	scrape config.ScrapeConfig
	logger *slog.Logger
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used for emission progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// NewEmitter creates an Emitter for the given output configuration.
func NewEmitter(scrape config.ScrapeConfig, opts ...Option) *Emitter {
	e := &Emitter{
		scrape: scrape,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit writes the dataset's CSV tables and returns the paths written.
//
// When the configuration restricts emission to selected roundtables,
// only those roundtables, their discussion tables, and the speakers
// linked to them are written.
func (e *Emitter) Emit(ds *model.Dataset) ([]string, error) {
	keep := e.keepSet()

	var written []string

	path := filepath.Join(e.scrape.OutputsDir, e.scrape.SpeakersCSV)
	if err := writeCSV(path, SpeakerColumns, speakerRows(ds, keep)); err != nil {
		return written, fmt.Errorf("failed to write speakers table: %w", err)
	}
	written = append(written, path)

	path = filepath.Join(e.scrape.OutputsDir, e.scrape.RoundtablesCSV)
	if err := writeCSV(path, RoundtableColumns, roundtableRows(ds, keep)); err != nil {
		return written, fmt.Errorf("failed to write roundtables table: %w", err)
	}
	written = append(written, path)

	for _, id := range ds.RoundtableIDs() {
		if keep != nil && !keep[id] {
			continue
		}
		posts := ds.Posts[id]
		if len(posts) == 0 {
			continue
		}
		path = filepath.Join(e.scrape.OutputsDir, e.scrape.DiscussionsCSV(id))
		if err := writeCSV(path, DiscussionColumns, discussionRows(posts)); err != nil {
			return written, fmt.Errorf("failed to write discussion table for %s: %w", id, err)
		}
		written = append(written, path)
	}

	e.logger.Debug("dataset emitted", "files", len(written), "dir", e.scrape.OutputsDir)
	return written, nil
}

// keepSet returns the roundtable ID filter, or nil when emission is
// unrestricted.
func (e *Emitter) keepSet() map[string]bool {
	if len(e.scrape.OnlyRoundtableIDs) == 0 {
		return nil
	}
	keep := make(map[string]bool, len(e.scrape.OnlyRoundtableIDs))
	for _, id := range e.scrape.OnlyRoundtableIDs {
		keep[id] = true
	}
	return keep
}

// speakerRows renders the speakers table. With a roundtable filter in
// effect, only speakers linked to a kept roundtable appear.
func speakerRows(ds *model.Dataset, keep map[string]bool) [][]string {
	rows := make([][]string, 0, len(ds.Speakers))
	for i := range ds.Speakers {
		s := &ds.Speakers[i]
		if keep != nil && !intersects(s.Roundtables, keep) {
			continue
		}
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.Bio,
			s.Title,
			s.Organization,
			s.CanonicalURL,
			s.HeadshotURL,
			strings.Join(s.SocialLinks, ";"),
			strings.Join(s.Roundtables, ","),
			timestamp(s.LastSeen),
		})
	}
	return rows
}

// roundtableRows renders the roundtables table.
func roundtableRows(ds *model.Dataset, keep map[string]bool) [][]string {
	rows := make([][]string, 0, len(ds.Roundtables))
	for i := range ds.Roundtables {
		r := &ds.Roundtables[i]
		if keep != nil && !keep[r.ID] {
			continue
		}
		docLink := ""
		if len(r.SpeakerIDs) > 0 {
			docLink = speakersDocLink
		}
		rows = append(rows, []string{
			r.ID,
			r.Title,
			r.Description,
			r.Date,
			r.CanonicalURL,
			strings.Join(r.SpeakerIDs, ","),
			strings.Join(r.Unlinked, ";"),
			strconv.Itoa(r.PostCount),
			strconv.FormatBool(r.Stub),
			docLink,
			timestamp(r.LastSeen),
		})
	}
	return rows
}

// discussionRows renders one roundtable's discussion table in
// discovery order.
func discussionRows(posts []model.DiscussionPost) [][]string {
	rows := make([][]string, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		rows = append(rows, []string{
			p.ID,
			p.RoundtableID,
			p.ThreadTitle,
			p.PostID,
			p.AuthorSpeakerID,
			p.AuthorName,
			p.PostedAt,
			p.Content,
			p.Permalink,
			timestamp(p.LastSeen),
		})
	}
	return rows
}

// timestamp renders a source_last_seen_utc cell. The zero time renders
// empty rather than as year one.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// intersects reports whether any element of ids is in the keep set.
func intersects(ids []string, keep map[string]bool) bool {
	for _, id := range ids {
		if keep[id] {
			return true
		}
	}
	return false
}

// writeCSV writes header and rows to path, creating the directory as
// needed. The file is assembled in memory, written to a temporary
// sibling, and renamed over the target so readers never observe a
// partial table.
func writeCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
