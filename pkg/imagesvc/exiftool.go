package imagesvc

import (
	"fmt"

	"github.com/barasher/go-exiftool"

	"github.com/zenryukyo/gallery/pkg/imgsize"
)

// ExifTool reads dimensions through a long running exiftool process.
type ExifTool struct {
	et *exiftool.Exiftool
}

// NewExifTool starts exiftool. It fails if the binary is not installed.
func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Dimensions returns the ImageWidth and ImageHeight tags.
func (e *ExifTool) Dimensions(path string) (imgsize.Size, error) {
	fis := e.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return imgsize.Size{}, fmt.Errorf("no metadata for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return imgsize.Size{}, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	w, err := fi.GetInt("ImageWidth")
	if err != nil {
		return imgsize.Size{}, fmt.Errorf("get ImageWidth: %w", err)
	}
	h, err := fi.GetInt("ImageHeight")
	if err != nil {
		return imgsize.Size{}, fmt.Errorf("get ImageHeight: %w", err)
	}
	if w <= 0 || h <= 0 {
		return imgsize.Size{}, fmt.Errorf("bad dimensions %dx%d", w, h)
	}

	return imgsize.Size{Width: int(w), Height: int(h)}, nil
}

// Close stops the exiftool process.
func (e *ExifTool) Close() error {
	return e.et.Close()
}
