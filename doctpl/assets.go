package doctpl

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	// Banner formats accepted by the document writer.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var pdfMagic = []byte("%PDF-")

// resolveAssets makes build asset paths absolute under the asset root and
// checks that each file holds what the template declares it to be.
func (r *Repository) resolveAssets(spec *Spec) error {
	if spec.Build == nil {
		return nil
	}
	b := *spec.Build
	var err error
	if b.BannerImage, err = r.asset("banner-image", b.BannerImage, checkImage); err != nil {
		return err
	}
	if b.Background, err = r.asset("background", b.Background, checkPDF); err != nil {
		return err
	}
	spec.Build = &b
	return nil
}

func (r *Repository) asset(key, p string, check func(io.Reader) error) (string, error) {
	if p == "" {
		return "", nil
	}
	if !filepath.IsAbs(p) && r.assetRoot != "" {
		p = filepath.Join(r.assetRoot, p)
	}
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("build.%s: %w", key, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("build.%s: %w", key, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("build.%s: %s is a directory", key, p)
	}
	if err := check(f); err != nil {
		return "", fmt.Errorf("build.%s: %s: %w", key, p, err)
	}
	return p, nil
}

func checkImage(r io.Reader) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("empty image")
	}
	return nil
}

func checkPDF(r io.Reader) error {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("not a PDF document")
	}
	return nil
}
