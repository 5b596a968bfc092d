package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/config"
	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/observability"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/store"
)

// cliAutosaveDelay keeps CLI edits pending until the command flushes them.
const cliAutosaveDelay = time.Hour

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
	printer *observability.Printer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio Studio editor and server",
		Long:          "Portfolio Studio edits, validates and publishes a single-owner portfolio document, and serves it over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Path to TOML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newNormalizeCmd(a),
		newValidateCmd(a),
		newLintCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newSearchCmd(a),
		newMediaCmd(a),
		newDraftCmd(a),
		newPublishCmd(a),
		newResetCmd(a),
		newPalettesCmd(a),
		newHashPasswordCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.out = cmd.OutOrStdout()
	a.printer = observability.NewPrinter(a.out)
	return nil
}

// openStorage opens the configured backend.
func (a *app) openStorage(ctx context.Context) (storage.Storage, error) {
	sc := a.cfg.Storage
	opts := storage.Options{
		Driver:    sc.Driver,
		Dir:       sc.Dir,
		DSN:       sc.DSN,
		RedisURL:  sc.RedisURL,
		KeyPrefix: sc.KeyPrefix,
		Logger:    a.logger.Named("storage"),
	}
	if sc.Driver == storage.DriverSQLite && opts.DSN == "" {
		opts.DSN = filepath.Join(sc.Dir, "portfolio.db")
	}
	return storage.Open(ctx, opts)
}

// openBus connects the configured event bus. The returned function closes it.
func (a *app) openBus(ctx context.Context) (events.Bus, func(), error) {
	if a.cfg.Events.Driver != "redis" {
		bus := events.NewLocalBus()
		return bus, func() { _ = bus.Close() }, nil
	}

	opts, err := redis.ParseURL(a.cfg.Events.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid events redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	bus, err := events.NewRedisBus(ctx, client, a.cfg.Events.Channel, a.logger.Named("events"))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return bus, func() {
		_ = bus.Close()
		_ = client.Close()
	}, nil
}

// session is one CLI editing session over the configured storage.
type session struct {
	store   *store.Store
	storage storage.Storage
	close   func()
}

// openSession loads the editor state. Edits stay pending until flush.
func (a *app) openSession(ctx context.Context) (*session, error) {
	st, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	bus, closeBus, err := a.openBus(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	s := store.New(st, bus,
		store.WithLogger(a.logger.Named("store")),
		store.WithHistoryLimit(a.cfg.Editor.HistoryLimit),
		store.WithAutosaveDelay(cliAutosaveDelay),
		store.WithIdleTimeout(0),
	)
	if err := s.Open(ctx); err != nil {
		closeBus()
		_ = st.Close()
		return nil, err
	}
	return &session{
		store:   s,
		storage: st,
		close: func() {
			_ = s.Close()
			closeBus()
			_ = st.Close()
		},
	}, nil
}

// flush writes pending edits to the active slot, as the editor's autosave would.
func (s *session) flush(ctx context.Context) error {
	return s.store.Flush(ctx)
}
