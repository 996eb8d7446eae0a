package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/imgsize"
)

// listPhotos returns the supported regular files directly inside dir, sorted
// by full path. skipDir is never descended into or returned.
func listPhotos(dir string, skipDir string) ([]string, error) {
	des, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	found := []string{}
	for _, de := range des {
		path := filepath.Join(dir, de.Name())
		if path == filepath.Clean(skipDir) {
			continue
		}
		if !isRegular(path, de) {
			continue
		}
		if !imgsize.Supported(path) {
			continue
		}
		found = append(found, path)
	}

	sort.Strings(found)
	return found, nil
}

// isRegular follows symlinks the way a stat would.
func isRegular(path string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// CollectSources walks source recursively for originals to copy into
// photosDir, skipping photosDir itself, hidden directories and the logo.
func CollectSources(source string, photosDir string) ([]string, error) {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	absPhotos, err := filepath.Abs(photosDir)
	if err != nil {
		return nil, err
	}

	found := []string{}
	err = godirwalk.Walk(absSource, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			path = filepath.Clean(path)
			if de.IsDir() {
				if path == absPhotos {
					return godirwalk.SkipThis
				}
				if path != absSource && strings.HasPrefix(de.Name(), ".") {
					return godirwalk.SkipThis
				}
				return nil
			}

			if !imgsize.Supported(path) || strings.EqualFold(de.Name(), LogoName) {
				return nil
			}
			if !isRegular(path, de) {
				return nil
			}

			klog.V(1).Infof("found %s", path)
			found = append(found, path)
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("unable to read %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", source, err)
	}

	sort.Strings(found)
	return found, nil
}
