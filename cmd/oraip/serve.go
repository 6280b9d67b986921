package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpHandler "go.ngs.io/oraip-profiles/internal/http"
	"go.ngs.io/oraip-profiles/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve computed profiles over HTTP",
		Long: `Serve computed profiles over HTTP.

API ENDPOINTS:
  GET /health                   Health check
  GET /v1/basins                List basins
  GET /v1/products              List catalog products
  GET /v1/profiles              Profiles for ?basin=&quantity=[&start=&end=&products=&layers=]
  GET /v1/profiles/diff         Differences from ?ref= (default MMM)
  GET /metrics                  Prometheus metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	f := cmd.Flags()
	f.String("port", "", "listen port")
	f.StringSlice("cors-origins", nil, "allowed CORS origins (default: all)")
	f.StringSlice("products", nil, "default model products (default: the basin roster)")
	f.Int("start", 0, "default first year")
	f.Int("end", 0, "default last year")
	f.Int("workers", 0, "products reduced in parallel")
	f.Bool("cache", false, "reuse and store computed collections")
	f.String("cache-dir", "", "collection cache directory")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	m := metrics.NewCollector("oraip")
	builder, cleanup, err := a.builder(m)
	if err != nil {
		return err
	}
	defer cleanup()

	gin.SetMode(gin.ReleaseMode)
	handler := httpHandler.NewHandler(builder, httpHandler.Defaults{
		StartYear: cfg.Years.Start,
		EndYear:   cfg.Years.End,
		Products:  cfg.Products,
	}, a.logger)
	router := httpHandler.SetupRouter(handler, httpHandler.RouterConfig{
		AllowedOrigins: cfg.Server.CORSOrigins,
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", srv.Addr).Info("Server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
