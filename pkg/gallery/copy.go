package gallery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// EnsureDirs creates photos/, photos/thumbs/ and assets/ under the root.
func EnsureDirs(c *Config) error {
	for _, d := range []string{c.PhotosDir(), c.ThumbsDir(), c.AssetsDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	return nil
}

// CopyPhotos copies sources into photosDir by base name, skipping those whose
// copy is already at least as new and the same size. It returns the number copied.
func CopyPhotos(sources []string, photosDir string) (int, error) {
	copied := 0
	for _, src := range sources {
		dst := filepath.Join(photosDir, filepath.Base(src))

		sst, err := os.Stat(src)
		if err != nil {
			return copied, fmt.Errorf("stat: %w", err)
		}

		dst2, err := os.Stat(dst)
		if err == nil && !dst2.ModTime().Before(sst.ModTime()) && dst2.Size() == sst.Size() {
			continue
		}

		klog.V(1).Infof("copying %s -> %s", src, dst)
		if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
			return copied, fmt.Errorf("copy: %w", err)
		}
		copied++
	}

	if copied > 0 {
		klog.Infof("Copied %d photo(s) into %s", copied, filepath.Base(photosDir))
	}
	return copied, nil
}

// CopyLogo copies logo to assetsDir/rogo.webp. A missing logo is only a warning.
func CopyLogo(logo string, assetsDir string) error {
	target := filepath.Join(assetsDir, LogoName)

	lst, err := os.Stat(logo)
	if err != nil {
		klog.Warningf("Logo not found at %s. Skipping copy.", logo)
		return nil
	}

	if tst, err := os.Stat(target); err == nil && os.SameFile(lst, tst) {
		return nil
	}

	if err := copy.Copy(logo, target, copy.Options{PreserveTimes: true}); err != nil {
		return fmt.Errorf("copy logo: %w", err)
	}
	klog.Infof("Copied logo -> %s/%s", filepath.Base(assetsDir), LogoName)
	return nil
}
