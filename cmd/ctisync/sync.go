package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/ctisync/internal/config"
	"github.com/nao1215/ctisync/internal/database"
	"github.com/nao1215/ctisync/internal/feed"
	"github.com/nao1215/ctisync/internal/log"
	"github.com/nao1215/ctisync/internal/pipeline"
	"github.com/nao1215/ctisync/internal/publish"
	"github.com/nao1215/ctisync/internal/report"
	"github.com/nao1215/ctisync/internal/store"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the DShield feed and publish observables to the store",
		Long: `Sync runs one full connector pass:

1. Fetch the DShield Intel Feed
2. Extract the deduplicated label vocabulary
3. Publish each IP observable and attach its labels, in feed order
4. Write the JSON artifact and record the run in local history

Publishing is idempotent: labels are looked up before creation, and an
observable creation failure never stops the rest of the feed. Only a
fetch failure (or an empty feed) fails the run.

The store bearer token is read from the OPENCTI_API_KEY environment
variable or the config file; there is deliberately no token flag so the
secret never lands in shell history.

Examples:
  # Full run against the configured store
  ctisync sync

  # Verify the pipeline without touching the store
  ctisync sync --dry-run

  # Custom artifact path and Markdown run report
  ctisync sync -o out/export.json --markdown

  # Use a custom configuration file
  ctisync sync -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runSyncCmd,
	}

	// Store and feed endpoints
	cmd.Flags().String("store-url", "",
		"Knowledge store base URL (default: OPENCTI_API_URL)")
	cmd.Flags().String("feed-url", config.DefaultFeedURL,
		"Threat-intelligence feed endpoint")

	// Run behavior flags
	cmd.Flags().BoolP("dry-run", "t", false,
		"Run the full pipeline against an in-memory store (no external writes)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"HTTP timeout for feed and store requests")
	cmd.Flags().Duration("pacing", config.DefaultPacingDelay,
		"Minimum delay before each label attachment call")
	cmd.Flags().Int("score", config.DefaultScore,
		"Confidence score assigned to created observables (0-100)")
	cmd.Flags().Bool("no-history", false,
		"Skip recording the run in the local history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ctisync in current directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultArtifactFile,
		"Path for the JSON artifact written at the end of the run")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the run report as Markdown instead of plain text")

	return cmd
}

// runSyncCmd executes the sync command.
func runSyncCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildSyncConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runSync(ctx, cfg, logger)
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

// buildSyncConfig creates a Config from the config file, environment, and
// flags, in that order. Flags only override when explicitly set, so env
// deployments keep working when a flag carries a default.
func buildSyncConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, a missing file is not an error.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.ApplyEnv()

	if cmd.Flags().Changed("store-url") {
		if cfg.StoreURL, err = cmd.Flags().GetString("store-url"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("feed-url") {
		if cfg.FeedURL, err = cmd.Flags().GetString("feed-url"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("pacing") {
		if cfg.PacingDelay, err = cmd.Flags().GetDuration("pacing"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("score") {
		if cfg.Score, err = cmd.Flags().GetInt("score"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("output") {
		if cfg.ArtifactFile, err = cmd.Flags().GetString("output"); err != nil {
			return nil, err
		}
	}

	if cfg.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Every record passes through the credential-masking handler so the store
// token can never leak into log output.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := log.NewSecureHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(handler)
}

// runSync executes one connector run.
func runSync(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting sync",
		"feed", cfg.FeedURL,
		"dryRun", cfg.DryRun,
		"saveHistory", cfg.SaveHistory,
	)

	// Open the run-history database if persistence is enabled
	var history pipeline.HistoryStore
	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Best effort cleanup
		history = db
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	var client store.Client
	if cfg.DryRun {
		fmt.Println("Dry run: publishing against an in-memory store.")
		client = store.NewDryRunClient()
	} else {
		client = store.NewHTTPClient(cfg.StoreURL, cfg.StoreToken,
			store.WithHTTPTimeout(cfg.Timeout))
	}

	// Ensure the provenance identity exists before any observable is
	// created; everything published this run is attributed to it.
	extRef, err := client.CreateExternalReference(ctx, config.SourceName, config.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to create external reference: %w", err)
	}
	org, err := client.CreateOrganization(ctx,
		config.OrganizationName, config.OrganizationDescription,
		[]store.ReferenceHandle{extRef})
	if err != nil {
		return fmt.Errorf("failed to create organization identity: %w", err)
	}

	registry := publish.NewRegistry(client, cfg.LabelColor,
		publish.WithRegistryLogger(logger))
	publisher := publish.NewPublisher(client, registry, extRef, org,
		publish.WithScore(cfg.Score),
		publish.WithMarking(config.DefaultMarking),
		publish.WithPacer(publish.NewPacer(cfg.PacingDelay)),
		publish.WithLogger(logger),
	)

	feedClient := feed.NewClient(cfg.FeedURL,
		feed.WithTimeout(cfg.Timeout),
		feed.WithUserAgent("ctisync/"+getVersion()),
	)

	p := pipeline.New([]pipeline.Step{
		pipeline.NewFetchStep(feedClient, logger),
		pipeline.NewExtractStep(logger),
		pipeline.NewPublishStep(publisher, logger),
		pipeline.NewSummarizeStep(cfg.ArtifactFile, history, logger),
	}, pipeline.WithLogger(logger))

	run := pipeline.NewRun(cfg.FeedURL)

	fmt.Printf("Syncing %s...\n", cfg.FeedURL)
	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	return outputRunReport(cfg, run)
}

// outputRunReport prints the run report to stdout in the requested format.
func outputRunReport(cfg *config.Config, run *pipeline.Run) error {
	summary := run.Summary

	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(os.Stdout).Write(summary)
		return err
	}

	elapsed := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond)
	fmt.Printf("Sync completed in %s\n", elapsed)
	fmt.Printf("  labels:      %d\n", len(summary.Labels))
	fmt.Printf("  published:   %d\n", summary.CreatedCount())
	fmt.Printf("  failed:      %d\n", summary.FailedCount())
	if summary.LabelFailureCount() > 0 {
		fmt.Printf("  label fails: %d\n", summary.LabelFailureCount())
	}
	fmt.Printf("  artifact:    %s\n", cfg.ArtifactFile)
	return nil
}
