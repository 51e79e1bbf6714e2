// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/internal/server"
	"github.com/pdiddy/reason-search/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research runs and quick search over HTTP",
	Long: `Serve starts the HTTP API:

  POST /api/research             stream a run as Server-Sent Events
  GET  /api/research/:id/events  replay a recent run's events
  POST /api/search               quick multi-query web search
  GET  /healthz                  liveness
  GET  /metrics                  Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	p, err := buildProviders(cfg, true)
	if err != nil {
		return err
	}
	defer p.Close()

	redisSink, closeRedis, err := newRedisSink(cfg.Stream)
	if err != nil {
		return err
	}
	defer closeRedis()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithRunTimeout(cfg.Server.RunTimeout),
		server.WithProbeConcurrency(cfg.ImageCheck.Concurrency),
	}
	if redisSink != nil {
		opts = append(opts, server.WithRedis(redisSink))
	}

	gin.SetMode(gin.ReleaseMode)
	hub := stream.NewHub(cfg.Stream.HistorySize, 0)
	srv := server.New(newEngine(cfg, p), p.web, p.prober, hub, opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpSrv.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
