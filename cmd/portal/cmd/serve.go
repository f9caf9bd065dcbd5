package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/activitymap"
	"github.com/goliatone/go-portal/repository"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal HTTP server",
	Long:  `Applies pending migrations and starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Debug {
			logger.Debug("configuration", "config", print.MaybePrettyJSON(cfg))
		}

		db, err := repository.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repository.Close(db)

		group, err := portal.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if !group.IsZero() {
			logger.Info("applied migrations", "group", group.ID)
		}

		repos := portal.NewRepositoryManager(db)
		repos.MustValidate()

		storage := repos.Sessions().WithLogger(logger)
		storage.StartGC(ctx, cfg.SessionGCInterval)
		defer storage.Close()

		metrics := portal.NewMetrics()
		sink := portal.MultiActivitySink{
			portal.NewLoggerActivitySink(logger.With("component", "activity")),
			metrics,
		}

		if cfg.ActivityLog != "" {
			f, err := os.OpenFile(cfg.ActivityLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
			if err != nil {
				return fmt.Errorf("failed to open activity log: %w", err)
			}
			defer f.Close()
			sink = append(sink, activitymap.NewWriterSink(f))
		}

		auther := portal.NewAuther(repos.Users()).
			WithLogger(logger).
			WithAdminUsername(cfg.AdminUsername).
			WithActivitySink(sink)

		sessions := portal.NewSessionManager(
			portal.WithSessionStorage(storage),
			portal.WithSessionTTL(cfg.SessionTTL),
			portal.WithSessionCookieSecure(cfg.SessionCookieSecure),
			portal.WithSessionLogger(logger),
		)

		ctrl := portal.NewPortalController(
			portal.WithAuther(auther),
			portal.WithSessions(sessions),
			portal.WithControllerLogger(logger),
			portal.WithDebug(cfg.Debug),
		)

		if cfg.SessionSecret == "" {
			logger.Warn("SESSION_SECRET not set, cookies will not survive a restart")
		}

		app := portal.NewApp(ctrl,
			portal.WithAppLogger(logger),
			portal.WithAppMetrics(metrics),
			portal.WithCookieKey(cfg.CookieKey()),
		)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.Addr)
			errCh <- app.Listen(cfg.Addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}
