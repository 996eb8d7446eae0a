// Package imagesvc adapts full image libraries to the two operations the
// gallery needs from them: reporting dimensions and writing thumbnails.
// Either operation may fail; callers are expected to fall back.
package imagesvc

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/imgsize"
)

// ErrNoEncoder is returned when a thumbnail would need an encoder bild lacks.
var ErrNoEncoder = errors.New("no encoder for output format")

// Decoder reports the dimensions of an image file.
type Decoder interface {
	Dimensions(path string) (imgsize.Size, error)
}

// Thumbnailer writes a copy of src to dst whose longest edge is at most maxEdge.
type Thumbnailer interface {
	Thumbnail(src string, dst string, maxEdge int) (imgsize.Size, error)
}

// Bild decodes through the registered image codecs and resizes with bild.
type Bild struct {
	Quality int
}

// NewBild returns a Bild that encodes JPEG thumbnails at the given quality.
func NewBild(quality int) *Bild {
	return &Bild{Quality: quality}
}

// Dimensions reads only the image header.
func (b *Bild) Dimensions(path string) (imgsize.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return imgsize.Size{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return imgsize.Size{}, fmt.Errorf("unable to decode: %w", err)
	}
	return imgsize.Size{Width: ic.Width, Height: ic.Height}, nil
}

// Thumbnail resizes src with a Lanczos filter and saves it to dst in the
// format implied by dst's extension.
func (b *Bild) Thumbnail(src string, dst string, maxEdge int) (imgsize.Size, error) {
	enc, err := b.encoder(dst)
	if err != nil {
		return imgsize.Size{}, err
	}

	img, err := imgio.Open(src)
	if err != nil {
		return imgsize.Size{}, fmt.Errorf("imgio.Open: %w", err)
	}

	orig := imgsize.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if orig.Width == 0 || orig.Height == 0 {
		return imgsize.Size{}, fmt.Errorf("empty image: %s", orig)
	}

	out := img
	if fit := Fit(orig, maxEdge); fit != orig {
		klog.V(1).Infof("resizing %s from %s to %s", src, orig, fit)
		out = transform.Resize(img, fit.Width, fit.Height, transform.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return imgsize.Size{}, fmt.Errorf("mkdir: %w", err)
	}
	if err := imgio.Save(dst, out, enc); err != nil {
		return imgsize.Size{}, fmt.Errorf("save: %w", err)
	}

	return imgsize.Size{Width: out.Bounds().Dx(), Height: out.Bounds().Dy()}, nil
}

func (b *Bild) encoder(dst string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(dst)) {
	case ".jpg", ".jpeg":
		q := b.Quality
		if q <= 0 {
			q = 90
		}
		return imgio.JPEGEncoder(q), nil
	case ".png":
		return imgio.PNGEncoder(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoEncoder, filepath.Ext(dst))
}

// Fit scales s down so that neither edge exceeds maxEdge, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Fit(s imgsize.Size, maxEdge int) imgsize.Size {
	if maxEdge <= 0 || (s.Width <= maxEdge && s.Height <= maxEdge) {
		return s
	}

	scale := float64(maxEdge) / float64(max(s.Width, s.Height))
	out := imgsize.Size{
		Width:  int(math.Round(float64(s.Width) * scale)),
		Height: int(math.Round(float64(s.Height) * scale)),
	}
	if s.Width >= s.Height {
		out.Width = maxEdge
	} else {
		out.Height = maxEdge
	}
	out.Width = max(out.Width, 1)
	out.Height = max(out.Height, 1)
	return out
}
