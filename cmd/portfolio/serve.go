package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/config"
	"github.com/jonathan/portfolio-studio/internal/server"
	"github.com/jonathan/portfolio-studio/internal/server/ratelimit"
	"github.com/jonathan/portfolio-studio/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Start an HTTP server that serves the published portfolio and the authenticated admin editor API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides config)")
	return cmd
}

func (a *app) runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	st, err := a.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	bus, closeBus, err := a.openBus(ctx)
	if err != nil {
		return fmt.Errorf("failed to open event bus: %w", err)
	}
	defer closeBus()

	// srv is assigned before Open starts the idle timer.
	var srv *server.Server
	editor := store.New(st, bus,
		store.WithLogger(a.logger.Named("store")),
		store.WithHistoryLimit(a.cfg.Editor.HistoryLimit),
		store.WithAutosaveDelay(a.cfg.Editor.AutosaveDelay.Std()),
		store.WithIdleTimeout(a.cfg.Editor.IdleTimeout.Std()),
		store.OnIdle(func() { srv.EndSessions() }),
	)
	defer editor.Close()

	srv, err = server.New(server.Config{
		Port:           a.cfg.Server.Port,
		PasswordHash:   a.cfg.Auth.PasswordHash,
		Password:       passwords,
		JWT:            jwtCfg,
		RateLimit:      ratelimit.LoadConfig(),
		ContactTimeout: a.cfg.Contact.Timeout.Std(),
	}, server.Deps{
		Store:   editor,
		Storage: st,
		Bus:     bus,
		Logger:  a.logger.Named("server"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := editor.Open(ctx); err != nil {
		srv.Stop()
		return err
	}

	runErr := srv.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), store.DefaultPersistTimeout)
	defer cancel()
	if err := editor.Flush(flushCtx); err != nil {
		a.logger.Warn("failed to save pending edits on shutdown", zap.Error(err))
	}
	return runErr
}
