package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/archive"
	"github.com/alexanderramin/agriadvisor/internal/cli"
	"github.com/alexanderramin/agriadvisor/internal/config"
	"github.com/alexanderramin/agriadvisor/internal/llm"
	"github.com/alexanderramin/agriadvisor/internal/logging"
	"github.com/alexanderramin/agriadvisor/internal/metrics"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	app.Init = func(configPath string) error {
		cleanup, err := wire(ctx, app, configPath)
		closers = append(closers, cleanup...)
		return err
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// wire loads configuration and fills app with the live dependencies.
func wire(ctx context.Context, app *cli.App, configPath string) ([]func() error, error) {
	var closers []func() error

	cfg, err := config.Load(configPath)
	if err != nil {
		return closers, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return closers, fmt.Errorf("building logger: %w", err)
	}
	closers = append(closers, func() error {
		_ = logger.Sync()
		return nil
	})

	m := metrics.New()

	// Remote tier, only when a provider is usable.
	var remote advisor.Generator
	if cfg.LLM.RemoteEnabled() {
		observers := llm.MultiObserver{m}
		if cfg.LLM.LogCalls {
			observers = append(observers, llm.NewLogObserver(logger))
		}
		client, err := llm.NewClient(ctx, cfg.LLM, observers)
		if err != nil {
			return closers, fmt.Errorf("creating %s client: %w", cfg.LLM.Provider, err)
		}
		remote = advisor.NewRemoteDelegate(client)
		app.RemoteProbe = client.Available
	} else {
		logger.Debug("remote model disabled", zap.String("provider", string(cfg.LLM.Provider)))
	}

	opts := advisor.Options{
		RemoteEnabled: remote != nil,
		ShareSnapshot: cfg.Advisor.ShareSnapshot,
		Logger:        logger,
		Recorder:      m,
	}

	app.Config = cfg
	app.Logger = logger
	app.Metrics = m
	app.NewOrchestrator = func() *advisor.Orchestrator {
		synth := advisor.NewRandomSynthesizer()
		return advisor.NewOrchestrator(remote, advisor.NewResolver(advisor.NewRandomSynthesizer()), synth, opts)
	}

	if cfg.Archive.Enabled {
		a, err := archive.Open(cfg.Archive.Path,
			archive.WithLogger(logger),
			archive.WithSaveHook(m.RecordTranscriptSaved),
		)
		if err != nil {
			// The advisor still works without an archive.
			logger.Warn("transcript archive unavailable", zap.String("path", cfg.Archive.Path), zap.Error(err))
		} else {
			app.Archive = a
			closers = append(closers, a.Close)
		}
	}

	return closers, nil
}
