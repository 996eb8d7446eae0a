// Package gallery builds the photo site's gallery manifest, thumbnails and
// inline index markup.
package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory and file names inside the site root.
const (
	PhotosDirName = "photos"
	ThumbsDirName = "thumbs"
	AssetsDirName = "assets"
	LogoName      = "rogo.webp"
	ManifestName  = "gallery.json"
	IndexName     = "index.html"
)

// Config holds configuration for a gallery build.
type Config struct {
	// Root is the site root containing index.html, photos/ and assets/.
	Root string `yaml:"root"`
	// Source is scanned recursively for originals to copy into photos/.
	Source string `yaml:"source"`
	Logo   string `yaml:"logo"`

	ThumbSize    int  `yaml:"thumb_size"`
	ThumbQuality int  `yaml:"thumb_quality"`
	SkipCopy     bool `yaml:"skip_copy"`
	SkipThumbs   bool `yaml:"skip_thumbs"`
	// Incremental reuses thumbnails that are newer than their original.
	Incremental bool `yaml:"incremental"`

	// Sidecars enables Takeout style <photo>.json caption overrides.
	Sidecars bool `yaml:"sidecars"`
	Workers  int  `yaml:"workers"`

	ExifTool  bool `yaml:"exiftool"`
	NoDecoder bool `yaml:"no_decoder"`
}

// SetDefaults fills in unset fields.
func (c *Config) SetDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Source == "" {
		c.Source = c.Root
	}
	if c.Logo == "" {
		c.Logo = filepath.Join(c.Root, AssetsDirName, LogoName)
	}
	if c.ThumbSize == 0 {
		c.ThumbSize = 1200
	}
	if c.ThumbQuality == 0 {
		c.ThumbQuality = 90
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
}

func (c *Config) PhotosDir() string { return filepath.Join(c.Root, PhotosDirName) }
func (c *Config) ThumbsDir() string { return filepath.Join(c.PhotosDir(), ThumbsDirName) }
func (c *Config) AssetsDir() string { return filepath.Join(c.Root, AssetsDirName) }

// LoadConfig reads a YAML config file. Defaults are not applied.
func LoadConfig(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Item is one entry of the gallery manifest. Field order is the JSON key order.
type Item struct {
	Src         string `json:"src"`
	W           int    `json:"w"`
	H           int    `json:"h"`
	Alt         string `json:"alt"`
	Thumb       string `json:"thumb,omitempty"`
	ThumbWidth  int    `json:"thumbWidth,omitempty"`
	ThumbHeight int    `json:"thumbHeight,omitempty"`
	Caption     string `json:"caption,omitempty"`
}

// DescribeAlt derives display text from a file name: the stem with
// underscores and hyphens turned into spaces.
func DescribeAlt(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(stem)
}

// relPath returns path relative to root with forward slashes.
func relPath(root string, path string) (string, error) {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(r), nil
}
