package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesift/internal/aggregate"
	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/log"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/normalize"
	"github.com/nao1215/sitesift/internal/pipeline"
	"github.com/nao1215/sitesift/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Map the site without extracting datasets",
		Long: `Crawl traverses the configured site and classifies every page by URL
pattern, but extracts nothing. It produces docs/web-map.md: run
statistics, the page type distribution, and the URL path outline.

Use crawl to verify the URL patterns and traversal scope before a full
scrape.

Examples:
  # Map the site described by .sitesift
  sitesift crawl

  # Map while filling the page cache for a later offline scrape
  sitesift crawl --cache

  # Emit the run summary as JSON
  sitesift crawl --json`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addRunFlags(cmd)
	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cfg, logger)
}

// runCrawl executes the map-only pipeline: pages are routed and counted
// but never extracted or merged.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	canon, err := normalize.NewCanonicalizer(cfg.File.Site.BaseURL, cfg.Rules.IncludeQueryParams)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", cfg.File.Site.BaseURL, err)
	}

	engine := aggregate.NewEngine(cfg.Rules, canon,
		aggregate.WithLogger(logger),
		aggregate.WithClassifyOnly(),
	)
	driver, cleanup, err := newDriver(cfg, canon, engine, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	docs := report.NewDocsWriter(cfg.File.Docs, cfg.File.Scrape, report.WithDocsLogger(logger))

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewFetchStep(driver, cfg.File.Site.Seeds()),
		pipeline.NewMapStep(engine),
		pipeline.NewDocsStep(docs),
	)

	return executeRun(ctx, cfg, p, model.NewSiteReport(cfg.File.Site.BaseURL, "crawl"))
}
