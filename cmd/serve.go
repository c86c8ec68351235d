package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/api"
	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/reconcile"
	"github.com/sells-group/roster-cli/internal/store"
)

var (
	servePort    int
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		var st store.Store
		if !serveNoStore {
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		srv := newServer(cfg, st)
		return serve(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "do not persist runs")
	rootCmd.AddCommand(serveCmd)
}

func newServer(c *config.Config, st store.Store) *http.Server {
	handler := api.New(reconcile.New(c.EngineOptions()...), st, api.Options{
		AllowedOrigins: c.Server.AllowedOrigins,
		RateLimit:      c.Server.RateLimit,
		RateBurst:      c.Server.RateBurst,
		MaxBodyBytes:   int64(c.Server.MaxBodyMB) << 20,
	}).Handler()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
