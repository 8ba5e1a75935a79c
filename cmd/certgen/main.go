// Command certgen generates one PDF certificate page per roster row.
//
// It runs as an HTTP service (serve), a one-shot CLI (generate), an MCP
// server for AI assistants (mcp), or lists the available templates
// (templates). Configuration comes from CERTGEN_* environment variables and
// an optional .env file; flags override both.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvillar/certgen"
	"github.com/lvillar/certgen/config"
	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/document"
	"github.com/lvillar/certgen/logging"
	"github.com/lvillar/certgen/metrics"
	"github.com/lvillar/certgen/storage"
)

var rootCmd = &cobra.Command{
	Use:           "certgen",
	Short:         "Certificate PDF generator",
	Long:          "certgen turns a CSV roster and a layout template into a single PDF with one certificate page per row.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	storageDir string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Storage root (overrides CERTGEN_STORAGE_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (config.Config, error) {
	getenv := func(key string) string {
		switch {
		case key == "CERTGEN_STORAGE_DIR" && storageDir != "":
			return storageDir
		case key == "LOG_LEVEL" && logLevel != "":
			return logLevel
		}
		return os.Getenv(key)
	}
	return config.FromEnv(getenv)
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.GenerationMetrics
	gen     *certgen.Generator
}

// newApp builds the generator from cfg. reg may be nil, in which case no
// metrics are recorded.
func newApp(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var m *metrics.GenerationMetrics
	cacheOpts := []doctpl.CacheOption{}
	if reg != nil {
		m = metrics.New(reg)
		cacheOpts = append(cacheOpts, doctpl.WithLookupObserver(m.RecordCacheLookup))
	}

	opts := []certgen.Option{
		certgen.WithOutputDir(cfg.OutputDir),
		certgen.WithLoader(doctpl.NewCache(doctpl.NewDirRepository(cfg.TemplateDir, cfg.AssetRoot), cacheOpts...)),
		certgen.WithLogger(log),
		certgen.WithMetrics(m),
		certgen.WithDocumentOptions(
			document.WithFontDir(cfg.FontDir),
			document.WithLogger(log),
		),
	}
	if cfg.S3Enabled() {
		pub, err := storage.NewS3Publisher(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Prefix:       cfg.S3Prefix,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3Endpoint != "",
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, certgen.WithPublisher(pub))
	}

	return &app{cfg: cfg, log: log, metrics: m, gen: certgen.New(opts...)}, nil
}
