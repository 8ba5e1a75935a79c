package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/certgen"
	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/metrics"
)

var templates = fstest.MapFS{
	"course.json": {Data: []byte(`{
		"fields": {"courseName": {"size": 20}, "instructorName": {}},
		"build": {"title": "Certificate of Completion"}
	}`)},
	"broken.json": {Data: []byte(`{"fields": 3}`)},
}

type fixture struct {
	srv     *Server
	uploads string
	out     string
}

func newFixture(t *testing.T, mutate ...func(*Config)) fixture {
	t.Helper()
	f := fixture{uploads: t.TempDir(), out: t.TempDir()}
	reg := prometheus.NewRegistry()
	gen := certgen.New(
		certgen.WithOutputDir(f.out),
		certgen.WithLoader(doctpl.NewRepository(templates, "")),
		certgen.WithMetrics(metrics.New(reg)),
	)
	cfg := Config{
		UploadDir:      f.uploads,
		CSVTemplate:    filepath.Join(t.TempDir(), "missing.csv"),
		MaxUploadBytes: 1 << 20,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	f.srv = New(gen, cfg, WithGatherer(reg))
	return f
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func generateRequest(t *testing.T, fields map[string]string, csv string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if csv != "" {
		fw, err := mw.CreateFormFile("csvUpload", "roster.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(csv))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) certgen.Result {
	t.Helper()
	var res certgen.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

const roster = "First,Last\nAda,Lovelace\nAlan,Turing\n"

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(generateRequest(t, map[string]string{
		"filePrefix":     "fall",
		"pdfTemplate":    "course",
		"courseName":     "Go 101",
		"instructorName": "Rob Pike",
	}, roster))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeResult(t, rec)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, strings.HasPrefix(res.Filename, "fall_upload-"), res.Filename)

	assert.FileExists(t, filepath.Join(f.out, res.Filename+".pdf"))
	uploads, err := os.ReadDir(f.uploads)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, strings.TrimPrefix(res.Filename, "fall_")+".csv", uploads[0].Name())

	// The generated document can be downloaded by its filename.
	dl := f.do(httptest.NewRequest(http.MethodGet, "/download/"+res.Filename, nil))
	assert.Equal(t, http.StatusOK, dl.Code)
	assert.True(t, bytes.HasPrefix(dl.Body.Bytes(), []byte("%PDF-")))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), res.Filename+".pdf")
}

func TestGenerateConcurrentUploadsGetDistinctArtifacts(t *testing.T) {
	f := newFixture(t)
	fields := map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}

	first := decodeResult(t, f.do(generateRequest(t, fields, roster)))
	second := decodeResult(t, f.do(generateRequest(t, fields, roster)))
	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.NotEqual(t, first.Filename, second.Filename)
}

func TestGenerateRejections(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		csv    string
		status int
		msg    string
	}{
		{"unknown template", map[string]string{"filePrefix": "cert", "pdfTemplate": "nope"}, roster, 400, "not found"},
		{"malformed template", map[string]string{"filePrefix": "cert", "pdfTemplate": "broken"}, roster, 400, "malformed"},
		{"bad roster", map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}, "First,Last\n\"Ada\n", 400, "line"},
		{"missing prefix", map[string]string{"pdfTemplate": "course"}, roster, 400, "Prefix"},
		{"missing upload", map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}, "", 400, "csvUpload"},
		{"path prefix", map[string]string{"filePrefix": "../x", "pdfTemplate": "course"}, roster, 400, "invalid prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(generateRequest(t, tt.fields, tt.csv))
			assert.Equal(t, tt.status, rec.Code)
			res := decodeResult(t, rec)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.msg)

			out, err := os.ReadDir(f.out)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestGenerateHoneypot(t *testing.T) {
	f := newFixture(t)
	rec := f.do(generateRequest(t, map[string]string{
		"filePrefix":    "cert",
		"pdfTemplate":   "course",
		"preferredName": "bot",
	}, roster))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	uploads, err := os.ReadDir(f.uploads)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestGenerateUploadTooLarge(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxUploadBytes = 64 })
	rec := f.do(generateRequest(t, map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}, strings.Repeat("a,b\n", 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGenerateRateLimit(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RateLimit = 0.001; c.RateBurst = 1 })
	fields := map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}

	assert.Equal(t, http.StatusOK, f.do(generateRequest(t, fields, roster)).Code)
	rec := f.do(generateRequest(t, fields, roster))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestDetails(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{
		"filePrefix":     {"cert"},
		"pdfTemplate":    {"course"},
		"preferredName":  {""},
		"courseName":     {"Go 101", "ignored"},
		"instructorName": {"Rob Pike"},
	}}
	assert.Equal(t, map[string]string{"courseName": "Go 101", "instructorName": "Rob Pike"}, details(form))
}

func TestTemplates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"templates": ["broken", "course"]}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/templates/course", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view templateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Fields, 2)
	assert.Equal(t, "courseName", view.Fields[0].Name)
	assert.Equal(t, 20.0, view.Fields[0].Style.Size)
	assert.Equal(t, "instructorName", view.Fields[1].Name)
	assert.Equal(t, "Certificate of Completion", view.Build.Title)

	assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodGet, "/templates/nope", nil)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(httptest.NewRequest(http.MethodGet, "/templates/broken", nil)).Code)
}

func TestCSVTemplate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/download/csv-template", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First,Last\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificate-csv-template.csv")

	custom := filepath.Join(t.TempDir(), "template.csv")
	require.NoError(t, os.WriteFile(custom, []byte("First,Last,Email\n"), 0o644))
	f = newFixture(t, func(c *Config) { c.CSVTemplate = custom })
	rec = f.do(httptest.NewRequest(http.MethodGet, "/download/csv-template", nil))
	assert.Equal(t, "First,Last,Email\n", rec.Body.String())
}

func TestDownloadNotFound(t *testing.T) {
	f := newFixture(t)
	for _, p := range []string{"/download/missing", "/download/a%5Cb"} {
		assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodGet, p, nil)).Code, p)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	f.do(generateRequest(t, map[string]string{"filePrefix": "cert", "pdfTemplate": "course"}, roster))
	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `certgen_generations_total{status="2xx"} 1`)
}
