package gallery

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zenryukyo/gallery/pkg/imagesvc"
	"github.com/zenryukyo/gallery/pkg/imgsize/imgsizetest"
	"github.com/zenryukyo/gallery/pkg/resolve"
)

// writeImage encodes a width x height image at path, as JPEG or PNG by extension.
func writeImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 5), uint8(y * 5), 90, 255})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".png") {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, nil)
	}
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func writeBytes(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	c := &Config{Root: t.TempDir(), ThumbSize: 20}
	c.SetDefaults()
	if err := EnsureDirs(c); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return c
}

func bildBuilder(c *Config, thumbs bool) *Builder {
	b := imagesvc.NewBild(c.ThumbQuality)
	r := resolve.New(resolve.NewLibrary("bild", b))
	if !thumbs {
		return NewBuilder(c, r, nil)
	}
	return NewBuilder(c, r, b)
}

func TestBuild(t *testing.T) {
	c := testConfig(t)
	writeImage(t, filepath.Join(c.PhotosDir(), "b_photo.png"), 40, 20)
	writeImage(t, filepath.Join(c.PhotosDir(), "a-shot.jpg"), 40, 10)
	writeBytes(t, filepath.Join(c.PhotosDir(), "notes.txt"), []byte("not a photo"))

	got, err := bildBuilder(c, true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{
		{
			Src: "photos/a-shot.jpg", W: 40, H: 10, Alt: "a shot", Caption: "a shot",
			Thumb: "photos/thumbs/a-shot.jpg", ThumbWidth: 20, ThumbHeight: 5,
		},
		{
			Src: "photos/b_photo.png", W: 40, H: 20, Alt: "b photo", Caption: "b photo",
			Thumb: "photos/thumbs/b_photo.png", ThumbWidth: 20, ThumbHeight: 10,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}

	for _, it := range got {
		if _, err := os.Stat(filepath.Join(c.Root, it.Thumb)); err != nil {
			t.Errorf("thumbnail for %s: %v", it.Src, err)
		}
	}
}

func TestBuild_SkipsUnreadable(t *testing.T) {
	c := testConfig(t)
	c.SkipThumbs = true
	writeBytes(t, filepath.Join(c.PhotosDir(), "a.png"), []byte("garbage"))
	writeBytes(t, filepath.Join(c.PhotosDir(), "b.jpg"), imgsizetest.JPEG(10, 10)[:6])
	writeImage(t, filepath.Join(c.PhotosDir(), "c.png"), 12, 8)

	got, err := bildBuilder(c, true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{{Src: "photos/c.png", W: 12, H: 8, Alt: "c", Caption: "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_HeaderOnlyFallback(t *testing.T) {
	c := testConfig(t)
	writeBytes(t, filepath.Join(c.PhotosDir(), "lossless.jpg"), imgsizetest.LosslessJPEG(100, 77))
	writeBytes(t, filepath.Join(c.PhotosDir(), "raw.webp"), imgsizetest.RawVP8L(100, 77))
	writeBytes(t, filepath.Join(c.PhotosDir(), "wide.webp"), imgsizetest.VP8X(100, 77))

	got, err := bildBuilder(c, true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{
		{Src: "photos/lossless.jpg", W: 100, H: 77, Alt: "lossless", Caption: "lossless"},
		{Src: "photos/raw.webp", W: 100, H: 77, Alt: "raw", Caption: "raw"},
		{Src: "photos/wide.webp", W: 100, H: 77, Alt: "wide", Caption: "wide"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ReusesExistingThumbnail(t *testing.T) {
	c := testConfig(t)
	writeImage(t, filepath.Join(c.PhotosDir(), "a.png"), 40, 20)
	writeImage(t, filepath.Join(c.ThumbsDir(), "a.png"), 10, 5)
	writeImage(t, filepath.Join(c.PhotosDir(), "b.png"), 40, 20)

	got, err := bildBuilder(c, false).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{
		{
			Src: "photos/a.png", W: 40, H: 20, Alt: "a", Caption: "a",
			Thumb: "photos/thumbs/a.png", ThumbWidth: 10, ThumbHeight: 5,
		},
		{Src: "photos/b.png", W: 40, H: 20, Alt: "b", Caption: "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Incremental(t *testing.T) {
	c := testConfig(t)
	c.Incremental = true
	writeImage(t, filepath.Join(c.PhotosDir(), "fresh.png"), 40, 20)
	writeImage(t, filepath.Join(c.ThumbsDir(), "fresh.png"), 7, 7)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(c.ThumbsDir(), "fresh.png"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	writeImage(t, filepath.Join(c.PhotosDir(), "stale.png"), 40, 20)
	writeImage(t, filepath.Join(c.ThumbsDir(), "stale.png"), 7, 7)
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(c.ThumbsDir(), "stale.png"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := bildBuilder(c, true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{
		{
			Src: "photos/fresh.png", W: 40, H: 20, Alt: "fresh", Caption: "fresh",
			Thumb: "photos/thumbs/fresh.png", ThumbWidth: 7, ThumbHeight: 7,
		},
		{
			Src: "photos/stale.png", W: 40, H: 20, Alt: "stale", Caption: "stale",
			Thumb: "photos/thumbs/stale.png", ThumbWidth: 20, ThumbHeight: 10,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Sidecars(t *testing.T) {
	c := testConfig(t)
	c.SkipThumbs = true
	c.Sidecars = true
	writeImage(t, filepath.Join(c.PhotosDir(), "a.png"), 4, 4)
	writeImage(t, filepath.Join(c.PhotosDir(), "b.png"), 4, 4)
	if err := WriteSidecar(filepath.Join(c.PhotosDir(), "a.png"), &Sidecar{Title: "t", Description: "夕焼けの海"}); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	got, err := bildBuilder(c, false).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []*Item{
		{Src: "photos/a.png", W: 4, H: 4, Alt: "a", Caption: "夕焼けの海"},
		{Src: "photos/b.png", W: 4, H: 4, Alt: "b", Caption: "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_WorkersKeepOrder(t *testing.T) {
	c := testConfig(t)
	c.Workers = 4
	c.SkipThumbs = true

	var want []*Item
	for _, name := range []string{"p01", "p02", "p03", "p04", "p05", "p06", "p07", "p08", "p09"} {
		writeImage(t, filepath.Join(c.PhotosDir(), name+".png"), 3, 2)
		want = append(want, &Item{Src: "photos/" + name + ".png", W: 3, H: 2, Alt: name, Caption: name})
	}

	got, err := bildBuilder(c, false).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Empty(t *testing.T) {
	c := testConfig(t)
	got, err := bildBuilder(c, true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Build() = %v, want no items", got)
	}
}

func TestDescribeAlt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photos/sunset_bay.jpg", "sunset bay"},
		{"photos/mt-fuji_2024.webp", "mt fuji 2024"},
		{"photos/plain.png", "plain"},
		{"photos/archive.tar.jpg", "archive.tar"},
	}
	for _, tt := range tests {
		if got := DescribeAlt(tt.in); got != tt.want {
			t.Errorf("DescribeAlt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
