package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/specscrape/internal/config"
	"github.com/nao1215/specscrape/internal/crawler"
	"github.com/nao1215/specscrape/internal/fetcher"
	seclog "github.com/nao1215/specscrape/internal/log"
	"github.com/nao1215/specscrape/internal/metrics"
	"github.com/nao1215/specscrape/internal/model"
	"github.com/nao1215/specscrape/internal/pipeline"
	"github.com/nao1215/specscrape/internal/report"
	"github.com/nao1215/specscrape/internal/store"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [root-url]",
		Short: "Crawl the catalog and append product specifications to the store",
		Long: `Crawl walks the catalog: every brand on the root page, every product on the
brand's paginated listing, then the specification table of every product.
Each product becomes one row appended to the store.

Products whose link is already stored are never fetched again. In the default
"brand" resume mode a brand with any stored product is skipped as a whole.

Examples:
  # Crawl the default catalog into extracted_info.xlsx
  specscrape crawl

  # Crawl into SQLite with two workers and no retry limit
  specscrape crawl -s catalog.db -w 2

  # Short delays and at most three attempts per request
  specscrape crawl --delay-min 1s --delay-max 2s --retry-wait 10s --max-attempts 3

  # Crawl through a SOCKS5 proxy and expose Prometheus metrics
  specscrape crawl --proxy 127.0.0.1:9050 --metrics-addr 127.0.0.1:9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("store", "s", config.DefaultStorePath,
		"Store location: .xlsx file, SQLite file (.db, .sqlite) or postgres:// DSN")

	// Politeness and retry flags
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin,
		"Minimum random delay before every request")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax,
		"Maximum random delay before every request")
	cmd.Flags().Duration("retry-wait", config.DefaultRetryWait,
		"Wait before retrying a failed request")
	cmd.Flags().Float64("retry-multiplier", config.DefaultRetryMultiplier,
		"Growth factor of the retry wait (1 keeps it fixed)")
	cmd.Flags().Duration("retry-max-wait", 0,
		"Upper bound of the grown retry wait (0 = no bound)")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Requests made per URL before giving up (0 = retry forever)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout (0 = none)")
	cmd.Flags().Float64("rate-limit", 0,
		"Combined request cap in requests per second (0 = none)")

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of brands crawled concurrently")
	cmd.Flags().String("resume", config.DefaultResumeMode,
		`Resume mode: "brand" skips stored brands, "product" only stored products`)

	// Transport flags
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().String("user-agent", "",
		"Fixed User-Agent (default: random browser user agent per request)")

	// Observability flags
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g., 127.0.0.1:9090)")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .specscrape in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, os.LookupEnv)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLog)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runCrawl(ctx, cfg, logger)
	if summary != nil {
		if _, werr := report.NewSimpleWriter(cmd.OutOrStdout()).WriteRun(summary); werr != nil {
			logger.Warn("failed to write crawl summary", "error", werr)
		}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl interrupted, rerun to resume: %w", err)
	}
	return err
}

// buildConfig layers defaults, the config file, the environment and the
// command line flags. Only flags that were set explicitly override.
func buildConfig(cmd *cobra.Command, args []string, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	config.LoadDotEnv()
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if flags.Changed("store") {
		if cfg.StorePath, err = flags.GetString("store"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay-min") {
		if cfg.DelayMin, err = flags.GetDuration("delay-min"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay-max") {
		if cfg.DelayMax, err = flags.GetDuration("delay-max"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retry-wait") {
		if cfg.RetryWait, err = flags.GetDuration("retry-wait"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retry-multiplier") {
		if cfg.RetryMultiplier, err = flags.GetFloat64("retry-multiplier"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retry-max-wait") {
		if cfg.RetryMaxWait, err = flags.GetDuration("retry-max-wait"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-attempts") {
		if cfg.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate-limit") {
		if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("resume") {
		if cfg.ResumeMode, err = flags.GetString("resume"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("metrics-addr") {
		if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONLog, err = flags.GetBool("json-log"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) > 0 {
		cfg.RootURL = args[0]
	}

	return cfg, nil
}

// setupLogger creates a structured logger that redacts sensitive values.
func setupLogger(w io.Writer, verbose, jsonLog bool) *slog.Logger {
	if jsonLog {
		return seclog.NewSecureJSONLogger(w, verbose)
	}
	return seclog.NewSecureLogger(w, verbose)
}

// runCrawl wires the store, fetcher, crawler and pipeline and runs one crawl.
// The summary is returned also when the crawl fails after it started.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Summary, error) {
	runID := uuid.NewString()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		addr, err := m.Serve(ctx, cfg.MetricsAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
		logger.Info("serving metrics", "addr", addr.String())
	}

	st, err := store.Open(ctx, cfg.StorePath,
		store.WithRunID(runID),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	f, err := fetcher.New(
		fetcher.WithDelay(cfg.DelayMin, cfg.DelayMax),
		fetcher.WithRetryPolicy(fetcher.RetryPolicy{
			Wait:        cfg.RetryWait,
			Multiplier:  cfg.RetryMultiplier,
			MaxWait:     cfg.RetryMaxWait,
			MaxAttempts: cfg.MaxAttempts,
		}),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithProxy(cfg.Proxy),
		fetcher.WithCookie(cfg.Cookie),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithRateLimit(cfg.RateLimit),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLogger(logger),
		fetcher.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	crawlerOpts := []crawler.Option{
		crawler.WithSelectors(cfg.Selectors),
		crawler.WithLogger(logger),
	}

	p := pipeline.New(
		crawler.NewWalker(f, crawlerOpts...),
		crawler.NewExtractor(f, crawlerOpts...),
		st,
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithResumeMode(cfg.ResumeMode),
		pipeline.WithRunID(runID),
		pipeline.WithMetrics(m),
	)

	return p.Run(ctx, cfg.RootURL)
}
