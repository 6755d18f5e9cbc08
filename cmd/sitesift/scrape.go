package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesift/internal/aggregate"
	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/database"
	"github.com/nao1215/sitesift/internal/fetch"
	"github.com/nao1215/sitesift/internal/log"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/normalize"
	"github.com/nao1215/sitesift/internal/output"
	"github.com/nao1215/sitesift/internal/pipeline"
	"github.com/nao1215/sitesift/internal/report"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract the site into deduplicated CSV datasets and site docs",
		Long: `Scrape traverses the configured site and runs every fetched page through
the classification, extraction, and linking pipeline.

It produces:
- speakers.csv and roundtables.csv, keyed by canonical URL
- discussion_<roundtable_id>.csv, one per roundtable, in discovery order
- docs/web-map.md, docs/speakers.md, and docs/tech-spec-website.md

Examples:
  # Scrape using .sitesift from the current or home directory
  sitesift scrape

  # Use a specific configuration file
  sitesift scrape -c conference.yaml

  # Save fetched pages into the page cache while scraping
  sitesift scrape --cache

  # Re-run extraction offline from the page cache after editing selectors
  sitesift scrape --from-cache

  # Emit the run summary as JSON for tooling
  sitesift scrape --json -o summary.json`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags shared by the scrape and crawl commands.
func addRunFlags(cmd *cobra.Command) {
	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitesift in current or home directory)")

	// Traversal flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-depth", "d", 0,
		"Maximum traversal depth (0 = value from the config file)")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages to fetch (0 = value from the config file)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetch workers")
	cmd.Flags().Duration("fetch-delay", config.DefaultFetchDelay,
		"Minimum delay between requests")

	// Page cache flags
	cmd.Flags().Bool("cache", false,
		"Save fetched pages into the SQLite page cache")
	cmd.Flags().Bool("from-cache", false,
		"Replay pages from the page cache instead of fetching")
	cmd.Flags().Duration("cache-max-age", 0,
		"Serve cached pages younger than this instead of refetching (0 = always refetch)")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory holding the SQLite page cache")

	// Summary flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write run summary to specified file path (creates directories if needed)")
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
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

	return runScrape(ctx, cfg, logger)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM, so an
// interrupted run still flushes what it aggregated.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the rules file.
// The rules file is required: without URL patterns and selector tables
// there is nothing to classify or extract.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.FetchDelay, err = cmd.Flags().GetDuration("fetch-delay")
	if err != nil {
		return nil, err
	}

	cfg.UseCache, err = cmd.Flags().GetBool("cache")
	if err != nil {
		return nil, err
	}

	cfg.FromCache, err = cmd.Flags().GetBool("from-cache")
	if err != nil {
		return nil, err
	}

	cfg.CacheMaxAge, err = cmd.Flags().GetDuration("cache-max-age")
	if err != nil {
		return nil, err
	}

	cfg.CacheDir, err = cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}

	cfg.JSONSummary, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownSummary, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.SummaryFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Locate and load the rules file.
	// If the user explicitly specified a path, error if it is missing;
	// otherwise point them at "sitesift init".
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if explicitConfigPath {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil, fmt.Errorf("%w: run \"sitesift init\" to create a starter %s file",
			config.ErrConfigNotFound, config.DefaultConfigFile)
	}

	cfg.File, err = config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	cfg.Rules, err = config.CompileRules(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", configPath, err)
	}

	return cfg, nil
}

// runScrape executes the full extraction pipeline.
func runScrape(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	canon, err := normalize.NewCanonicalizer(cfg.File.Site.BaseURL, cfg.Rules.IncludeQueryParams)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", cfg.File.Site.BaseURL, err)
	}

	engine := aggregate.NewEngine(cfg.Rules, canon, aggregate.WithLogger(logger))
	driver, cleanup, err := newDriver(cfg, canon, engine, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	emitter := output.NewEmitter(cfg.File.Scrape, output.WithLogger(logger))
	docs := report.NewDocsWriter(cfg.File.Docs, cfg.File.Scrape, report.WithDocsLogger(logger))

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewFetchStep(driver, cfg.File.Site.Seeds()),
		pipeline.NewMapStep(engine),
		pipeline.NewSnapshotStep(engine),
		pipeline.NewDatasetStep(emitter),
		pipeline.NewDocsStep(docs),
	)

	return executeRun(ctx, cfg, p, model.NewSiteReport(cfg.File.Site.BaseURL, "scrape"))
}

// executeRun runs the pipeline, prints progress, and writes the summary.
// The summary is written even when the run ended early: partial output is
// valid output.
func executeRun(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, sr *model.SiteReport) error {
	fmt.Printf("Processing %s...\n", sr.BaseURL)
	startTime := time.Now()

	execErr := p.Execute(ctx, sr)
	sr.FinishedAt = time.Now().UTC()

	if execErr != nil {
		fmt.Fprintf(os.Stderr, "Run ended early: %v\n", execErr)
	} else {
		fmt.Printf("Run completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	}

	if err := outputSummary(cfg, sr); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	return execErr
}

// newDriver builds the fetch driver from the configuration, opening the
// page cache when caching or replay is requested. The returned cleanup
// closes the cache.
func newDriver(cfg *config.Config, canon *normalize.Canonicalizer, engine *aggregate.Engine, logger *slog.Logger) (*fetch.Driver, func(), error) {
	opts := []fetch.Option{
		fetch.WithMaxDepth(cfg.EffectiveMaxDepth()),
		fetch.WithMaxPages(cfg.EffectiveMaxPages()),
		fetch.WithDelay(cfg.FetchDelay),
		fetch.WithWorkers(cfg.Workers),
		fetch.WithUserAgent(cfg.EffectiveUserAgent()),
		fetch.WithMaxBodySize(cfg.EffectiveMaxBodySize()),
		fetch.WithAllowedDomains(cfg.File.Site.AllowedDomains),
		fetch.WithDenyPatterns(cfg.File.Crawl.DenyPatterns),
		fetch.WithLogger(logger),
	}
	if len(cfg.File.Site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(cfg.File.Site.Headers))
	}
	if cfg.File.Site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(cfg.File.Site.Cookie))
	}

	cleanup := func() {}
	if cfg.UseCache || cfg.FromCache {
		cache, err := database.Open(cfg.CacheDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open page cache: %w", err)
		}
		cleanup = func() {
			if err := cache.Close(); err != nil {
				logger.Warn("failed to close page cache", "error", err)
			}
		}
		if cfg.FromCache {
			opts = append(opts, fetch.WithReplay(cache))
		} else {
			opts = append(opts, fetch.WithCache(cache, cfg.CacheMaxAge))
		}
		logger.Debug("page cache opened", "path", cache.Path(), "replay", cfg.FromCache)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	driver, err := fetch.NewDriver(client, canon, engine, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return driver, cleanup, nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, sr *model.SiteReport) error {
	var out *os.File
	if cfg.SummaryFile != "" {
		dir := filepath.Dir(cfg.SummaryFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	} else {
		out = os.Stdout
	}

	// JSON output (machine-readable counters and table sizes)
	if cfg.JSONSummary {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).Write(sr)
		return err
	}

	// Markdown output
	if cfg.MarkdownSummary {
		_, err := report.NewMarkdownWriter(out).Write(sr)
		return err
	}

	// Human-readable summary (default)
	_, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(sr)
	return err
}
