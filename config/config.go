// Package config loads the certgen service configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the service configuration. Directory fields left empty are
// derived from StorageDir by Load.
type Config struct {
	Addr        string `validate:"required"`
	StorageDir  string `validate:"required"`
	TemplateDir string `validate:"required"`
	UploadDir   string `validate:"required"`
	OutputDir   string `validate:"required"`
	CSVTemplate string `validate:"required"`
	// AssetRoot is the directory relative banner and background paths in
	// templates are resolved against.
	AssetRoot string
	FontDir   string
	LogLevel  string `validate:"omitempty,oneof=debug trace info warn error"`

	MaxUploadBytes int64   `validate:"gt=0"`
	RateLimit      float64 `validate:"gte=0"` // requests per second per client, 0 disables
	RateBurst      int     `validate:"gte=0"`

	Retention     time.Duration `validate:"gte=0"` // 0 disables the sweeper
	SweepSchedule string

	S3Bucket   string
	S3Region   string `validate:"required_with=S3Bucket"`
	S3Prefix   string
	S3Endpoint string `validate:"omitempty,url"`
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Addr:           ":3000",
		StorageDir:     "storage",
		AssetRoot:      ".",
		LogLevel:       "info",
		MaxUploadBytes: 10 << 20,
		RateLimit:      2,
		RateBurst:      5,
		Retention:      24 * time.Hour,
		SweepSchedule:  "@hourly",
	}
}

// Load reads the optional .env file, then the CERTGEN_* variables over
// Default, and validates the result. Variables already set in the
// environment take precedence over .env.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv over Default.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	e := envReader{getenv: getenv}

	e.str("CERTGEN_ADDR", &c.Addr)
	e.str("CERTGEN_STORAGE_DIR", &c.StorageDir)
	e.str("CERTGEN_TEMPLATE_DIR", &c.TemplateDir)
	e.str("CERTGEN_UPLOAD_DIR", &c.UploadDir)
	e.str("CERTGEN_OUTPUT_DIR", &c.OutputDir)
	e.str("CERTGEN_CSV_TEMPLATE", &c.CSVTemplate)
	e.str("CERTGEN_ASSET_ROOT", &c.AssetRoot)
	e.str("CERTGEN_FONT_DIR", &c.FontDir)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.int64("CERTGEN_MAX_UPLOAD_BYTES", &c.MaxUploadBytes)
	e.float("CERTGEN_RATE_LIMIT", &c.RateLimit)
	e.int("CERTGEN_RATE_BURST", &c.RateBurst)
	e.duration("CERTGEN_RETENTION", &c.Retention)
	e.str("CERTGEN_SWEEP_SCHEDULE", &c.SweepSchedule)
	e.str("CERTGEN_S3_BUCKET", &c.S3Bucket)
	e.str("CERTGEN_S3_REGION", &c.S3Region)
	e.str("CERTGEN_S3_PREFIX", &c.S3Prefix)
	e.str("CERTGEN_S3_ENDPOINT", &c.S3Endpoint)
	if e.err != nil {
		return Config{}, e.err
	}

	c.DeriveDirs()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DeriveDirs fills empty directories from StorageDir.
func (c *Config) DeriveDirs() {
	def := func(p *string, rel ...string) {
		if *p == "" {
			*p = filepath.Join(append([]string{c.StorageDir}, rel...)...)
		}
	}
	def(&c.TemplateDir, "data")
	def(&c.UploadDir, "uploads")
	def(&c.OutputDir, "generated_docs")
	def(&c.CSVTemplate, "templates", "certificate-csv-template.csv")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// S3Enabled reports whether finalized documents are mirrored to S3.
func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }

// envReader parses variables, keeping the first error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v := e.getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) parse(key string, fn func(string) error) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	if err := fn(v); err != nil {
		e.err = fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
}

func (e *envReader) int64(key string, dst *int64) {
	e.parse(key, func(v string) (err error) {
		*dst, err = strconv.ParseInt(v, 10, 64)
		return err
	})
}

func (e *envReader) int(key string, dst *int) {
	e.parse(key, func(v string) (err error) {
		*dst, err = strconv.Atoi(v)
		return err
	})
}

func (e *envReader) float(key string, dst *float64) {
	e.parse(key, func(v string) (err error) {
		*dst, err = strconv.ParseFloat(v, 64)
		return err
	})
}

func (e *envReader) duration(key string, dst *time.Duration) {
	e.parse(key, func(v string) (err error) {
		*dst, err = time.ParseDuration(v)
		return err
	})
}
