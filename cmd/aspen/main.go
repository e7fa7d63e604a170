package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/aspenhq/aspen/internal/app"
	"github.com/aspenhq/aspen/internal/common"
	"github.com/aspenhq/aspen/internal/llm/openai"
	"github.com/aspenhq/aspen/internal/logging"
	"github.com/aspenhq/aspen/internal/paperless"
	"github.com/aspenhq/aspen/internal/prompts"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aspen",
		Short: "AI metadata extraction for paperless-ngx",
		Long: `Aspen drains a paperless-ngx queue tag, asks a language model for
title, correspondent, date, and document type, reconciles the answers
against the known entities, and writes the results and workflow tags back.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aspen %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Process every queued document once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := buildApp()
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Process the queue on a schedule (ASPEN_WATCH minutes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := buildApp()
			if err != nil {
				return err
			}
			return watch(ctx, application)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func buildApp() (*app.App, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logFile, err := logging.Setup(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, err
	}
	if logFile != "" {
		logger.Info("aspen.logging.file", "path", logFile)
	}

	repo := prompts.NewRepository(cfg.Prompts.Dir)
	if err := repo.EnsureDefaults(); err != nil {
		return nil, err
	}

	store := paperless.NewClient(paperless.Config{
		BaseURL: cfg.Paperless.BaseURL,
		Token:   cfg.Paperless.Token,
		Timeout: cfg.Paperless.Timeout,
	}, logger)

	ai := openai.NewClient(openai.Config{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Provider:    cfg.AI.Provider,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	}, logger)

	return app.New(cfg, store, ai, repo, logger), nil
}

// watch runs the queue immediately and then on the configured interval.
// A tick is skipped while a run is still active; ticks never overlap.
func watch(ctx context.Context, application *app.App) error {
	interval := application.Config.Watch.IntervalMinutes
	if interval <= 0 {
		return fmt.Errorf("ASPEN_WATCH must be a positive number of minutes")
	}

	var running sync.Mutex
	runOnce := func() {
		if !running.TryLock() {
			application.Logger.Warn("aspen.watch.tick_skipped", "reason", "previous run still active")
			return
		}
		defer running.Unlock()

		if err := application.Run(ctx); err != nil {
			application.Logger.Error("aspen.watch.run_failed", "error", err)
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("*/%d * * * *", interval), runOnce); err != nil {
		return fmt.Errorf("schedule watch: %w", err)
	}

	runOnce()
	scheduler.Start()

	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	application.Logger.Info("aspen.watch.stopped")
	return nil
}
