package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/imagesvc"
	"github.com/zenryukyo/gallery/pkg/imgsize"
	"github.com/zenryukyo/gallery/pkg/resolve"
)

// Builder turns the photos directory into an ordered list of items.
type Builder struct {
	c        *Config
	resolver *resolve.Resolver
	thumbs   imagesvc.Thumbnailer
}

// NewBuilder returns a Builder. thumbs may be nil, in which case existing
// thumbnails are reused but none are generated.
func NewBuilder(c *Config, r *resolve.Resolver, thumbs imagesvc.Thumbnailer) *Builder {
	return &Builder{c: c, resolver: r, thumbs: thumbs}
}

// Build processes every photo independently. A photo whose dimensions cannot
// be determined is logged and left out; the remaining items keep the sorted
// file order.
func (b *Builder) Build() ([]*Item, error) {
	photos, err := listPhotos(b.c.PhotosDir(), b.c.ThumbsDir())
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	klog.Infof("building manifest for %d photo(s) in %s", len(photos), b.c.PhotosDir())

	results := make([]*Item, len(photos))
	var g errgroup.Group
	g.SetLimit(max(b.c.Workers, 1))
	for i, p := range photos {
		g.Go(func() error {
			it, err := b.item(p)
			if err != nil {
				klog.Warningf("skipping %s: %v", p, err)
				return nil
			}
			results[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(results))
	for _, it := range results {
		if it != nil {
			items = append(items, it)
		}
	}
	return items, nil
}

func (b *Builder) item(path string) (*Item, error) {
	src, err := relPath(b.c.Root, path)
	if err != nil {
		return nil, fmt.Errorf("rel: %w", err)
	}

	s, err := b.resolver.Dimensions(path)
	if err != nil {
		return nil, err
	}

	alt := DescribeAlt(path)
	it := &Item{
		Src:     src,
		W:       s.Width,
		H:       s.Height,
		Alt:     alt,
		Caption: alt,
	}

	if b.c.Sidecars {
		sc, err := ReadSidecar(path)
		switch {
		case err == nil && sc.Caption() != "":
			it.Caption = sc.Caption()
		case err != nil && !errors.Is(err, os.ErrNotExist):
			klog.Warningf("unable to read sidecar for %s: %v", path, err)
		}
	}

	if err := b.attachThumb(it, path); err != nil {
		return nil, err
	}
	return it, nil
}

// attachThumb generates a thumbnail, or falls back to one left by a previous run.
func (b *Builder) attachThumb(it *Item, path string) error {
	dst := filepath.Join(b.c.ThumbsDir(), filepath.Base(path))
	rel, err := relPath(b.c.Root, dst)
	if err != nil {
		return fmt.Errorf("rel: %w", err)
	}

	if b.generate(path, dst) {
		ts, err := b.thumbs.Thumbnail(path, dst, b.c.ThumbSize)
		if err == nil {
			setThumb(it, rel, ts)
			return nil
		}
		klog.Warningf("Failed to create thumbnail for %s: %v", filepath.Base(path), err)
	}

	st, err := os.Stat(dst)
	if err != nil || !st.Mode().IsRegular() {
		klog.Warningf("no thumbnail for %s; listing original only", filepath.Base(path))
		return nil
	}

	ts, err := b.resolver.Dimensions(dst)
	if err != nil {
		klog.Warningf("unable to read existing thumbnail %s: %v", dst, err)
		return nil
	}
	klog.V(1).Infof("reusing thumbnail %s (%s)", dst, ts)
	setThumb(it, rel, ts)
	return nil
}

// generate reports whether a new thumbnail should be written to dst.
func (b *Builder) generate(src string, dst string) bool {
	if b.thumbs == nil || b.c.SkipThumbs {
		return false
	}
	if !b.c.Incremental {
		return true
	}

	sst, err := os.Stat(src)
	if err != nil {
		return true
	}
	dst2, err := os.Stat(dst)
	if err != nil {
		return true
	}
	if sst.ModTime().After(dst2.ModTime()) {
		klog.V(1).Infof("updating %s: source newer", dst)
		return true
	}
	return false
}

func setThumb(it *Item, rel string, s imgsize.Size) {
	it.Thumb = rel
	it.ThumbWidth = s.Width
	it.ThumbHeight = s.Height
}
