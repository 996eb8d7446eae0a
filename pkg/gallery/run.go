package gallery

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Result is the outcome of a full gallery run.
type Result struct {
	Items    []*Item
	Manifest []byte
}

// Run performs a full site update: copy originals and the logo, build the
// manifest, then rewrite the inline index regions.
func Run(c *Config, b *Builder) (*Result, error) {
	if err := EnsureDirs(c); err != nil {
		return nil, err
	}

	if !c.SkipCopy {
		sources, err := CollectSources(c.Source, c.PhotosDir())
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		if _, err := CopyPhotos(sources, c.PhotosDir()); err != nil {
			return nil, err
		}
	}

	if err := CopyLogo(c.Logo, c.AssetsDir()); err != nil {
		return nil, err
	}

	items, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if len(items) == 0 {
		klog.Warningf("No photos were found in ./%s to catalogue.", PhotosDirName)
	}

	bs, err := WriteManifest(c, items)
	if err != nil {
		return nil, err
	}

	if err := UpdateIndex(c.Root, items, bs); err != nil {
		return nil, fmt.Errorf("update index: %w", err)
	}
	return &Result{Items: items, Manifest: bs}, nil
}
