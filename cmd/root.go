/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jfmyers9/lastfm-banner/internal/artwork"
	"github.com/jfmyers9/lastfm-banner/internal/banner"
	"github.com/jfmyers9/lastfm-banner/internal/config"
	"github.com/jfmyers9/lastfm-banner/internal/history"
	"github.com/jfmyers9/lastfm-banner/pkg/lastfm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	logFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lastfm-banner",
	Short: "Build a cover art banner from your recent Last.fm listens",
	Long: `lastfm-banner turns your recent Last.fm listening history into a
square collage of album covers.

It fetches your last 200 listens, counts album plays over the most
recent 180, and lays the 25 most played albums out on a 5x5 grid of
240px tiles, most played first. Albums without usable artwork get a
dark placeholder tile. The result is written to assets/banner.jpg.

Credentials are read from the environment:
  LASTFM_API_KEY  Last.fm API key
  LASTFM_USER     Last.fm username`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pipeline, err := newPipeline()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.String())
	return nil
}

// newPipeline wires configuration, logging and the Last.fm client into a
// banner pipeline. Configuration errors surface before any network call.
func newPipeline() (*banner.Pipeline, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := setupLogger(logFile, logLevel)
	opts := banner.DefaultOptions()

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.LastFM.APIKey,
		HTTPClient: &http.Client{Timeout: history.DefaultTimeout},
		Logger:     lastfmLogger{logger.With().Str("component", "lastfm").Logger()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lastfm client: %w", err)
	}

	source := history.NewFetcher(client, cfg.LastFM.User, history.DefaultLimit, logger)
	resolver := artwork.NewResolver(artwork.Config{
		TileSize: opts.TileSize,
		Fallback: opts.Fallback,
		Delay:    artwork.DefaultDelay,
	}, logger)

	logger.Debug().
		Str("version", version).
		Str("user", cfg.LastFM.User).
		Msg("Starting lastfm-banner")

	return banner.New(opts, source, resolver, logger), nil
}

// lastfmLogger adapts zerolog to the lastfm.Logger interface
type lastfmLogger struct {
	zerolog.Logger
}

func (l lastfmLogger) Debugf(format string, args ...interface{}) {
	l.Debug().Msgf(format, args...)
}
