package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/metalagman/contentgen/internal/config"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/metalagman/contentgen/internal/db"
	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/metalagman/contentgen/internal/logging"
	"github.com/metalagman/contentgen/internal/settings"
	"github.com/metalagman/contentgen/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(c.serveOptions(c.cfg)...)
			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			select {
			case <-app.Done():
			case <-cmd.Context().Done():
			}
			log.Info().Msg("shutting down")

			stopCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

func (c *cli) serveOptions(cfg config.Config) []fx.Option {
	return []fx.Option{
		fxLogger(),
		fx.Supply(cfg),
		fx.Provide(
			newDatabase,
			db.NewStore,
			newNonceManager,
			newSettings,
			c.newContentService,
			c.newKeyChecker,
			newWebServer,
			newHTTPServer,
		),
		fx.Invoke(func(*http.Server) {}),
	}
}

func fxLogger() fx.Option {
	if !logging.DebugEnabled() {
		return fx.NopLogger
	}
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ConsoleLogger{W: os.Stderr}
	})
}

func newDatabase(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	storeDB, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return storeDB.Close() },
	})
	return storeDB, nil
}

func newWebServer(s *settings.Settings, gen *content.Service, checker *keycheck.Checker) (*web.Server, error) {
	return web.NewServer(s, gen, checker)
}

func newHTTPServer(lc fx.Lifecycle, cfg config.Config, ws *web.Server) *http.Server {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("admin server listening")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("admin server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
