package main

import (
	"context"
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/phiroict/yt-parallel/internal/app"
	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/engine"
	"github.com/phiroict/yt-parallel/internal/infra/config"
	"github.com/phiroict/yt-parallel/internal/infra/logger"
	"github.com/phiroict/yt-parallel/internal/store"
)

var cfgPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yt-parallel",
		Short: "Download a list of videos in parallel and move them to storage",
		Long: `yt-parallel reads one video URL per line, downloads every URL concurrently
with yt-dlp into a folder named after today's date, removes partial downloads
and moves the folder to the storage location for this platform.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runDownloads,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to a YAML config file")
	pf.StringP("debug-level", "d", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-file", "", "also write the log to this file")
	pf.String("history-driver", "", "run history store: sqlite or postgres (empty disables history)")
	pf.String("history-dsn", "", "sqlite file path or postgres connection string")

	f := cmd.Flags()
	f.StringP("location-video-list", "l", "./videolist.txt", "file with one video URL per line")
	f.StringP("video-download-tool", "v", "yt-dlp", "download tool to run for every URL")
	f.StringP("target", "t", "", "destination root, overrides the platform default")
	f.IntP("workers", "w", 0, "maximum concurrent downloads, 0 runs all at once")
	f.String("work-dir", ".", "directory the dated run folder is created in")
	f.Bool("abort-on-spawn-failure", false, "stop the run when the tool cannot be started")

	cmd.AddCommand(newHistoryCmd(), newServeCmd())
	return cmd
}

// bootstrap loads the config and opens the logger used by every subcommand
func bootstrap(cmd *cobra.Command) (*app.Context, error) {
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		return nil, withCode(exitInput, err)
	}

	runID := ksuid.New().String()
	log, err := logger.Open(cfg.Log.Path, cfg.LogLevel(), cfg.Log.IncludeStdout, runID)
	if err != nil {
		return nil, withCode(exitInput, err)
	}

	return app.NewContext(cfg, log, runID), nil
}

func openStore(ctx context.Context, appCtx *app.Context) (app.Store, error) {
	return store.Open(ctx, appCtx.Config.History.Driver, appCtx.Config.History.DSN)
}

func runDownloads(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer appCtx.Logger.Close()

	st, err := openStore(ctx, appCtx)
	if err != nil {
		appCtx.Logger.Warn("Run history unavailable, continuing without it: %v", err)
	} else if st != nil {
		appCtx.Store = st
		defer st.Close()
	}

	runner, err := engine.NewToolRunner(appCtx.Config.Tool)
	if err != nil {
		appCtx.Logger.Error("Download tool %s not found: %v", appCtx.Config.Tool, err)
		return withCode(exitToolAbsent, err)
	}
	appCtx.Logger.Debug("Using download tool at %s", runner.BinaryPath)

	run, err := engine.NewManager(appCtx, runner).Run(ctx)
	if err != nil {
		appCtx.Logger.Error("Run failed: %v", err)
		return err
	}

	if run.Status == domain.RunRelocationFailed {
		appCtx.Logger.Warn("Run %s finished but %s was not moved: %s", run.ID, run.Folder, run.Error)
	}
	if run.Failed > 0 || run.Lost > 0 {
		appCtx.Logger.Warn("%d of %d downloads did not complete", run.Failed+run.Lost, run.Total)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d/%d downloaded, %s\n", run.ID, run.Completed, run.Total, run.Status)
	return nil
}
