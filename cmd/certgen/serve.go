package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvillar/certgen/logging"
	"github.com/lvillar/certgen/server"
	"github.com/lvillar/certgen/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Serve the generation form endpoint, template metadata, downloads, health and metrics.",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides CERTGEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer logging.Sync(a.log)

	for _, dir := range []string{a.cfg.UploadDir, a.cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if a.cfg.Retention > 0 {
		sweeper := storage.NewSweeper(a.cfg.Retention, []string{a.cfg.UploadDir, a.cfg.OutputDir},
			storage.WithSweepLogger(a.log),
			storage.WithSweepMetrics(a.metrics),
		)
		if err := sweeper.Start(a.cfg.SweepSchedule); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sweeper.Stop(stopCtx)
		}()
	}

	addr := a.cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(a.gen, server.Config{
		Addr:           addr,
		UploadDir:      a.cfg.UploadDir,
		CSVTemplate:    a.cfg.CSVTemplate,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		RateLimit:      a.cfg.RateLimit,
		RateBurst:      a.cfg.RateBurst,
	}, server.WithLogger(a.log), server.WithGatherer(prometheus.DefaultGatherer))

	a.log.Info("starting server",
		zap.String("addr", addr),
		zap.String("templates", a.cfg.TemplateDir),
		zap.Bool("s3", a.cfg.S3Enabled()),
	)
	return srv.ListenAndServe(ctx)
}
