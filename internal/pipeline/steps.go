package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/sitesift/internal/aggregate"
	"github.com/nao1215/sitesift/internal/fetch"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/output"
	"github.com/nao1215/sitesift/internal/report"
)

// FetchStep drives the site traversal. It runs the fetch driver over the
// seed URLs; the driver feeds every fetched page into the aggregation
// engine as it goes, so by the time this step returns, the engine holds
// the full run state.
//
// A cancelled traversal is reported as the step's error, but the link
// edges collected up to that point are still recorded: partial output is
// valid output, and the later steps flush whatever was aggregated.
type FetchStep struct {
	// driver performs the traversal and feeds the engine.
	driver *fetch.Driver

	// seeds are the URLs the traversal starts from. Ignored in replay
	// mode, where the driver processes the page cache instead.
	seeds []string
}

// NewFetchStep creates a FetchStep over the given driver and seeds.
func NewFetchStep(driver *fetch.Driver, seeds []string) *FetchStep {
	return &FetchStep{driver: driver, seeds: seeds}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do runs the traversal and records the discovered link graph.
func (s *FetchStep) Do(ctx context.Context, sr *model.SiteReport) error {
	runErr := s.driver.Run(ctx, s.seeds)

	// Record edges even when the run was cut short.
	for from, to := range s.driver.Edges() {
		sr.AddEdges(from, to)
	}

	if runErr != nil {
		return fmt.Errorf("traversal stopped: %w", runErr)
	}
	return nil
}

// MapStep copies the engine's processed-URL map and run counters into
// the report. It runs in both crawl and scrape mode; the site map
// documents are derived from what it records.
type MapStep struct {
	engine *aggregate.Engine
}

// NewMapStep creates a MapStep over the given engine.
func NewMapStep(engine *aggregate.Engine) *MapStep {
	return &MapStep{engine: engine}
}

// Name returns the step name.
func (s *MapStep) Name() string {
	return "sitemap"
}

// Do records the seen URLs and the run counters.
func (s *MapStep) Do(_ context.Context, sr *model.SiteReport) error {
	for url, t := range s.engine.Seen() {
		sr.AddSeen(url, t)
	}
	sr.Stats = s.engine.Stats()
	return nil
}

// SnapshotStep takes the engine's deduplicated entity snapshot and the
// resolved relationship graph. Scrape mode only; crawl mode has no
// dataset to snapshot.
type SnapshotStep struct {
	engine *aggregate.Engine
}

// NewSnapshotStep creates a SnapshotStep over the given engine.
func NewSnapshotStep(engine *aggregate.Engine) *SnapshotStep {
	return &SnapshotStep{engine: engine}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return "snapshot"
}

// Do stores the dataset snapshot and relationship graph in the report.
func (s *SnapshotStep) Do(_ context.Context, sr *model.SiteReport) error {
	sr.Dataset = s.engine.Snapshot()
	sr.Relations = s.engine.Graph()
	return nil
}

// DatasetStep writes the CSV artifacts for the snapshot taken by the
// SnapshotStep. It is a no-op when the report carries no dataset, so the
// same pipeline shape works for crawl-mode runs.
type DatasetStep struct {
	emitter *output.Emitter
}

// NewDatasetStep creates a DatasetStep over the given emitter.
func NewDatasetStep(emitter *output.Emitter) *DatasetStep {
	return &DatasetStep{emitter: emitter}
}

// Name returns the step name.
func (s *DatasetStep) Name() string {
	return "datasets"
}

// Do emits the CSV tables.
func (s *DatasetStep) Do(_ context.Context, sr *model.SiteReport) error {
	if sr.Dataset == nil {
		return nil
	}
	if _, err := s.emitter.Emit(sr.Dataset); err != nil {
		return fmt.Errorf("dataset emission failed: %w", err)
	}
	return nil
}

// DocsStep writes the markdown documents: the web map, and, when the
// report carries a dataset, the speaker directory and the rebuild
// specification.
type DocsStep struct {
	writer *report.DocsWriter
}

// NewDocsStep creates a DocsStep over the given docs writer.
func NewDocsStep(writer *report.DocsWriter) *DocsStep {
	return &DocsStep{writer: writer}
}

// Name returns the step name.
func (s *DocsStep) Name() string {
	return "docs"
}

// Do writes the markdown documents.
func (s *DocsStep) Do(_ context.Context, sr *model.SiteReport) error {
	if _, err := s.writer.WriteAll(sr); err != nil {
		return fmt.Errorf("document generation failed: %w", err)
	}
	return nil
}
