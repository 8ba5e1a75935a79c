package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":3000", c.Addr)
	assert.Equal(t, filepath.Join("storage", "data"), c.TemplateDir)
	assert.Equal(t, filepath.Join("storage", "uploads"), c.UploadDir)
	assert.Equal(t, filepath.Join("storage", "generated_docs"), c.OutputDir)
	assert.Equal(t, filepath.Join("storage", "templates", "certificate-csv-template.csv"), c.CSVTemplate)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, c.Retention)
	assert.False(t, c.S3Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	c, err := FromEnv(env(map[string]string{
		"CERTGEN_ADDR":             ":8080",
		"CERTGEN_STORAGE_DIR":      "/srv/certgen",
		"CERTGEN_OUTPUT_DIR":       "/tmp/out",
		"CERTGEN_MAX_UPLOAD_BYTES": "1024",
		"CERTGEN_RATE_LIMIT":       "0.5",
		"CERTGEN_RETENTION":        "90m",
		"CERTGEN_S3_BUCKET":        "docs",
		"CERTGEN_S3_REGION":        "eu-west-1",
		"CERTGEN_S3_ENDPOINT":      "http://localhost:9000",
		"LOG_LEVEL":                "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/srv/certgen/data", c.TemplateDir)
	assert.Equal(t, "/tmp/out", c.OutputDir)
	assert.Equal(t, int64(1024), c.MaxUploadBytes)
	assert.Equal(t, 0.5, c.RateLimit)
	assert.Equal(t, 90*time.Minute, c.Retention)
	assert.True(t, c.S3Enabled())
	assert.Equal(t, "debug", c.LogLevel)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad integer", map[string]string{"CERTGEN_MAX_UPLOAD_BYTES": "lots"}, "CERTGEN_MAX_UPLOAD_BYTES"},
		{"bad duration", map[string]string{"CERTGEN_RETENTION": "a day"}, "CERTGEN_RETENTION"},
		{"zero upload limit", map[string]string{"CERTGEN_MAX_UPLOAD_BYTES": "0"}, "MaxUploadBytes"},
		{"bucket without region", map[string]string{"CERTGEN_S3_BUCKET": "docs"}, "S3Region"},
		{"bad endpoint", map[string]string{"CERTGEN_S3_BUCKET": "docs", "CERTGEN_S3_REGION": "x", "CERTGEN_S3_ENDPOINT": "not a url"}, "S3Endpoint"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LogLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.env))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CERTGEN_ADDR=:4000\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("CERTGEN_ADDR") })

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":4000", c.Addr)
}
