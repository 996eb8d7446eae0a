package resolve

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zenryukyo/gallery/pkg/imagesvc"
	"github.com/zenryukyo/gallery/pkg/imgsize"
	"github.com/zenryukyo/gallery/pkg/imgsize/imgsizetest"
)

type fakeDecoder struct {
	size  imgsize.Size
	err   error
	calls int
}

func (f *fakeDecoder) Dimensions(string) (imgsize.Size, error) {
	f.calls++
	return f.size, f.err
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestResolver_LibraryFirst(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.png", imgsizetest.PNG(100, 50))
	lib := &fakeDecoder{size: imgsize.Size{Width: 7, Height: 9}}

	got, err := New(NewLibrary("fake", lib)).Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if want := (imgsize.Size{Width: 7, Height: 9}); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if lib.calls != 1 {
		t.Errorf("library called %d times, want 1", lib.calls)
	}
}

func TestResolver_FallsBackToManual(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		lib  *fakeDecoder
	}{
		{"library error", &fakeDecoder{err: errors.New("codec not supported")}},
		{"library zero size", &fakeDecoder{}},
	}

	path := writeFile(t, dir, "b.png", imgsizetest.PNG(100, 50))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(NewLibrary("fake", tt.lib)).Dimensions(path)
			if err != nil {
				t.Fatalf("Dimensions: %v", err)
			}
			if want := (imgsize.Size{Width: 100, Height: 50}); got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestResolver_NoLibraries(t *testing.T) {
	dir := t.TempDir()
	r := New()
	if diff := cmp.Diff([]string{"manual"}, r.Sources()); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}

	for name, b := range map[string][]byte{
		"a.jpg":  imgsizetest.JPEG(200, 100),
		"b.png":  imgsizetest.PNG(200, 100),
		"c.webp": imgsizetest.VP8L(200, 100),
	} {
		got, err := r.Dimensions(writeFile(t, dir, name, b))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if want := (imgsize.Size{Width: 200, Height: 100}); got != want {
			t.Errorf("%s: got %s, want %s", name, got, want)
		}
	}
}

func TestResolver_Unavailable(t *testing.T) {
	dir := t.TempDir()
	lib := &fakeDecoder{err: errors.New("backend down")}
	r := New(NewLibrary("fake", lib), nil)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated.png", imgsizetest.PNG(10, 10)[:20], imgsize.ErrTruncatedFile},
		{"mislabelled.webp", imgsizetest.PNG(10, 10), imgsize.ErrUnsupportedFormat},
		{"notes.txt", []byte("hello"), imgsize.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.data)
			_, err := r.Dimensions(path)

			var ue *UnavailableError
			if !errors.As(err, &ue) {
				t.Fatalf("error = %v, want *UnavailableError", err)
			}
			if ue.Path != path {
				t.Errorf("Path = %q, want %q", ue.Path, path)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want cause %v", err, tt.want)
			}
		})
	}
}

// The real library decoders reject these fixtures; the manual parsers must
// still produce identical answers for every WebP layout.
func TestResolver_BildFallback(t *testing.T) {
	dir := t.TempDir()
	r := New(NewLibrary("bild", imagesvc.NewBild(90)))

	want := imgsize.Size{Width: 100, Height: 77}
	for name, b := range map[string][]byte{
		"lossless.jpg": imgsizetest.LosslessJPEG(100, 77),
		"raw.webp":     imgsizetest.RawVP8L(100, 77),
		"vp8x.webp":    imgsizetest.VP8X(100, 77),
		"vp8.webp":     imgsizetest.VP8(100, 77),
		"vp8l.webp":    imgsizetest.VP8L(100, 77),
	} {
		got, err := r.Dimensions(writeFile(t, dir, name, b))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: got %s, want %s", name, got, want)
		}
	}

	img := image.NewGray(image.Rect(0, 0, 13, 17))
	f, err := os.Create(filepath.Join(dir, "real.png"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	got, err := r.Dimensions(f.Name())
	if err != nil {
		t.Fatalf("real.png: %v", err)
	}
	if want := (imgsize.Size{Width: 13, Height: 17}); got != want {
		t.Errorf("real.png: got %s, want %s", got, want)
	}
}
