package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/tracknest/trackersync/internal/config"
	"github.com/tracknest/trackersync/internal/httpclient"
	"github.com/tracknest/trackersync/internal/logger"
	"github.com/tracknest/trackersync/internal/pipeline"
	"github.com/tracknest/trackersync/internal/probe"
	"github.com/tracknest/trackersync/internal/publish"
	"github.com/tracknest/trackersync/internal/report"
	"github.com/tracknest/trackersync/internal/sources"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch, health-check, and publish the tracker lists",
	Long: `Run one full update pass:

- fetch every configured source list concurrently and merge them
- abort if the aggregate falls below the safety floor
- probe each tracker (HTTP announce or UDP connect handshake)
- publish trackers.txt, the best subset, and the patched README

The publish token is read from the configured tokenFile or the
TRACKERSYNC_GITHUB_TOKEN environment variable.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("config", updateCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := updateCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runUpdate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.WithConfigPath(viper.GetString("config")))
	if err != nil {
		return err
	}

	level := logger.LevelFromEnv()
	if viper.GetBool("debug") {
		level = zapcore.DebugLevel
	}
	if err := logger.Initialize(logger.WithLevel(level), logger.WithLogFile(cfg.LogFile)); err != nil {
		return err
	}

	token, err := cfg.Publish.GetToken()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := buildRunner(cfg, token)

	summary, runErr := runner.Run(ctx)

	report.SourceTable(os.Stdout, summary.SourceResults, len(summary.Trackers), summary.FetchElapsed)
	report.BestTable(os.Stdout, summary.Best)
	report.RunSummary(os.Stdout, summary.Elapsed, len(summary.Trackers))

	return runErr
}

func buildRunner(cfg *config.Config, token string) *pipeline.Runner {
	fetcher := sources.NewFetcher(
		httpclient.NewDefaultClient(cfg.Fetch.TimeoutDuration()),
		cfg.Fetch.Retries,
		cfg.Fetch.RetryDelayDuration(),
		cfg.Fetch.Workers,
	)

	prober := probe.NewProber(cfg.Probe.TimeoutDuration(), cfg.Probe.Workers)

	store := publish.NewRESTClient(
		cfg.Publish.APIBaseURL,
		cfg.Publish.Owner,
		cfg.Publish.Repo,
		token,
		cfg.Publish.TimeoutDuration(),
	)
	publisher := publish.NewPublisher(
		store,
		cfg.Publish.TrackersPath,
		cfg.Publish.Retries,
		cfg.Publish.RetryDelayDuration(),
	)

	return pipeline.NewRunner(cfg, fetcher, prober, publisher, store)
}
