package doctpl

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func TestDefaultStyleResolution(t *testing.T) {
	assert.Equal(t, FieldStyle{Family: "Helvetica", Size: 12, Align: AlignCenter, Spacing: 1}, Style{}.Resolve())

	size := 20.0
	align := AlignLeft
	got := Style{Size: &size, Align: &align}.Resolve()
	assert.Equal(t, FieldStyle{Family: "Helvetica", Size: 20, Align: AlignLeft, Spacing: 1}, got)

	zero := 0.0
	assert.Equal(t, 0.0, Style{Spacing: &zero}.Resolve().Spacing)
}

func TestLoadKeepsDeclaredFieldOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"course.json": file(`{
			"fields": {
				"zeta": {"size": 18},
				"alpha": {},
				"instructorName": {"family": "Times-Italic", "align": "right", "spacing": 2},
				"mid": {"spacing": 0}
			},
			"build": {"title": "Certificate of Completion"}
		}`),
	}

	spec, err := NewRepository(fsys, "").Load(context.Background(), "course")
	require.NoError(t, err)

	assert.Equal(t, "course", spec.ID)
	assert.Equal(t, []string{"zeta", "alpha", "instructorName", "mid"}, spec.Fields.Names())
	assert.Equal(t, FieldStyle{Family: "Helvetica", Size: 18, Align: AlignCenter, Spacing: 1}, spec.Fields[0].Style)
	assert.Equal(t, DefaultStyle(), spec.Fields[1].Style)
	assert.Equal(t, FieldStyle{Family: "Times-Italic", Size: 12, Align: AlignRight, Spacing: 2}, spec.Fields[2].Style)
	assert.Equal(t, 0.0, spec.Fields[3].Style.Spacing)
	require.NotNil(t, spec.Build)
	assert.Equal(t, "Certificate of Completion", spec.Build.Title)
	assert.Empty(t, spec.Build.BannerImage)
}

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"workshop.yaml": file("fields:\n  second:\n    size: 14\n  first:\n  instructorName: {}\n"),
	}

	spec, err := NewRepository(fsys, "").Load(context.Background(), "workshop")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first", "instructorName"}, spec.Fields.Names())
	assert.Equal(t, 14.0, spec.Fields[0].Style.Size)
	assert.Equal(t, DefaultStyle(), spec.Fields[1].Style)
	assert.Nil(t, spec.Build)
	assert.Equal(t, Build{}, spec.BuildOrEmpty())
}

func TestLoadFailures(t *testing.T) {
	fsys := fstest.MapFS{
		"syntax.json":     file(`{"fields": {`),
		"badalign.json":   file(`{"fields": {"a": {"align": "justify"}}}`),
		"badsize.json":    file(`{"fields": {"a": {"size": "big"}}}`),
		"array.json":      file(`{"fields": []}`),
		"unknown.json":    file(`{"fields": {"a": {"colour": "red"}}}`),
		"nofields.json":   file(`{"build": {"title": "x"}}`),
		"emptyobj.json":   file(`{"fields": {}}`),
		"nullfields.json": file(`{"fields": null}`),
		"empty.yaml":      file("build:\n  title: x\n"),
		"badbanner.json":  file(`{"fields": {"a": {}}, "build": {"banner-image": "does/not/exist.png"}}`),
		"badcode.json":    file(`{"fields": {"a": {}}, "build": {"code": {"kind": "aztec", "content": "x"}}}`),
		"sub/nested.json": file(`{"fields": {"a": {}}}`),
	}
	repo := NewRepository(fsys, t.TempDir())

	tests := []struct {
		id     string
		reason Reason
	}{
		{"missing", NotFound},
		{"", NotFound},
		{"../etc/passwd", NotFound},
		{"sub/nested", NotFound},
		{"syntax", MalformedSpec},
		{"badalign", MalformedSpec},
		{"badsize", MalformedSpec},
		{"array", MalformedSpec},
		{"unknown", MalformedSpec},
		{"badbanner", MalformedSpec},
		{"badcode", MalformedSpec},
		{"nofields", MissingFields},
		{"emptyobj", MissingFields},
		{"nullfields", MissingFields},
		{"empty", MissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			spec, err := repo.Load(context.Background(), tt.id)
			require.Error(t, err)
			assert.Nil(t, spec)
			assert.True(t, IsReason(err, tt.reason), "want %s, got %v", tt.reason, err)
		})
	}
}

func TestLoadSchemaErrorListsProblems(t *testing.T) {
	fsys := fstest.MapFS{"bad.json": file(`{"fields": {"a": {"align": "up", "size": -1}}}`)}

	_, err := NewRepository(fsys, "").Load(context.Background(), "bad")
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, serr.Problems, 2)
}

func TestLoadResolvesAssetsAgainstRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	writePNG(t, filepath.Join(root, "images", "banner.png"))

	fsys := fstest.MapFS{
		"bannered.json": file(`{"fields": {"a": {}}, "build": {"banner-image": "images/banner.png"}}`),
	}

	spec, err := NewRepository(fsys, root).Load(context.Background(), "bannered")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "images", "banner.png"), spec.Build.BannerImage)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 2))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLoadChecksAssetContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "banner.png"), []byte("not an image"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "frame.pdf"), []byte("garbage"), 0o600))
	writePNG(t, filepath.Join(root, "good.png"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.pdf"), []byte("%PDF-1.4\n"), 0o600))

	fsys := fstest.MapFS{
		"banner.json": file(`{"fields": {"a": {}}, "build": {"banner-image": "banner.png"}}`),
		"frame.json":  file(`{"fields": {"a": {}}, "build": {"background": "frame.pdf"}}`),
		"dir.json":    file(`{"fields": {"a": {}}, "build": {"banner-image": "."}}`),
		"good.json":   file(`{"fields": {"a": {}}, "build": {"banner-image": "good.png", "background": "good.pdf"}}`),
	}
	repo := NewRepository(fsys, root)

	for _, id := range []string{"banner", "frame", "dir"} {
		t.Run(id, func(t *testing.T) {
			_, err := repo.Load(context.Background(), id)
			var terr *TemplateError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, MalformedSpec, terr.Reason)
		})
	}

	spec, err := repo.Load(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "good.pdf"), spec.Build.Background)
}

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"b.json":     file(`{}`),
		"a.yaml":     file(``),
		"a.json":     file(`{}`),
		"notes.txt":  file(``),
		"dir/c.json": file(`{}`),
	}

	ids, err := NewRepository(fsys, "").List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFieldsMarshalKeepsOrder(t *testing.T) {
	fields := Fields{
		{Name: "z", Style: DefaultStyle()},
		{Name: "a", Style: DefaultStyle()},
	}

	data, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"z": {"family": "Helvetica", "size": 12, "align": "center", "spacing": 1},
		"a": {"family": "Helvetica", "size": 12, "align": "center", "spacing": 1}
	}`, string(data))
	assert.Less(t, strings.Index(string(data), `"z"`), strings.Index(string(data), `"a"`))

	var back Fields
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fields, back)
}

func TestFieldsRejectDuplicates(t *testing.T) {
	var f Fields
	assert.Error(t, json.Unmarshal([]byte(`{"a": {}, "a": {}}`), &f))
}
