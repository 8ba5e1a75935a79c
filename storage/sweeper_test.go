package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/certgen/metrics"
)

func touch(t *testing.T, p string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
}

func TestSweeperRemovesExpiredFiles(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	uploads, docs := t.TempDir(), t.TempDir()

	touch(t, filepath.Join(uploads, "upload-old.csv"), now.Add(-48*time.Hour))
	touch(t, filepath.Join(uploads, "upload-new.csv"), now.Add(-time.Hour))
	touch(t, filepath.Join(docs, "cert_old.pdf"), now.Add(-25*time.Hour))
	touch(t, filepath.Join(docs, "cert_new.pdf"), now)
	require.NoError(t, os.Mkdir(filepath.Join(docs, "archive"), 0o755))

	m := metrics.New(prometheus.NewRegistry())
	s := NewSweeper(24*time.Hour, []string{uploads, docs, filepath.Join(docs, "missing")},
		WithClock(func() time.Time { return now }), WithSweepMetrics(m))

	n, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoFileExists(t, filepath.Join(uploads, "upload-old.csv"))
	assert.FileExists(t, filepath.Join(uploads, "upload-new.csv"))
	assert.NoFileExists(t, filepath.Join(docs, "cert_old.pdf"))
	assert.FileExists(t, filepath.Join(docs, "cert_new.pdf"))
	assert.DirExists(t, filepath.Join(docs, "archive"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweptFilesTotal))
}

func TestSweeperSchedule(t *testing.T) {
	s := NewSweeper(time.Hour, []string{t.TempDir()})
	assert.Error(t, s.Start("not a schedule"))

	require.NoError(t, s.Start("@every 1h"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
