package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// MarshalManifest serializes items as an indented JSON array ending in a newline.
func MarshalManifest(items []*Item) ([]byte, error) {
	if items == nil {
		items = []*Item{}
	}

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return b.Bytes(), nil
}

// WriteManifest writes photos/gallery.json and returns its contents.
func WriteManifest(c *Config, items []*Item) ([]byte, error) {
	bs, err := MarshalManifest(items)
	if err != nil {
		return nil, err
	}

	p := filepath.Join(c.PhotosDir(), ManifestName)
	if err := os.WriteFile(p, bs, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	rel, err := relPath(c.Root, p)
	if err != nil {
		rel = p
	}
	klog.Infof("Wrote metadata for %d photo(s) -> %s", len(items), rel)
	return bs, nil
}
