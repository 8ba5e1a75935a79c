package document

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	// Formats gofpdf cannot embed directly; they are transcoded to PNG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// nativeImageTypes are embedded by gofpdf without conversion.
var nativeImageTypes = map[string]string{
	".jpg":  "JPG",
	".jpeg": "JPG",
	".png":  "PNG",
	".gif":  "GIF",
}

// imageBook registers each image file once per document.
type imageBook struct {
	pdf  *gofpdf.Fpdf
	info map[string]*gofpdf.ImageInfoType
}

func newImageBook(pdf *gofpdf.Fpdf) *imageBook {
	return &imageBook{pdf: pdf, info: make(map[string]*gofpdf.ImageInfoType)}
}

func (b *imageBook) register(path string) (*gofpdf.ImageInfoType, error) {
	if info, ok := b.info[path]; ok {
		return info, nil
	}

	var info *gofpdf.ImageInfoType
	if tp, ok := nativeImageTypes[strings.ToLower(filepath.Ext(path))]; ok {
		info = b.pdf.RegisterImageOptions(path, gofpdf.ImageOptions{ImageType: tp})
	} else {
		data, err := transcode(path)
		if err != nil {
			return nil, err
		}
		info = b.pdf.RegisterImageOptionsReader(path, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	}
	if b.pdf.Err() {
		return nil, b.pdf.Error()
	}
	if info == nil {
		return nil, fmt.Errorf("document: image %s not registered", path)
	}

	b.info[path] = info
	return info, nil
}

// transcode decodes any format registered with package image and re-encodes
// it as PNG.
func transcode(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("document: decode %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("document: transcode %s from %s: %w", path, format, err)
	}
	return buf.Bytes(), nil
}
