// buildgallery refreshes a static photo site: it copies originals into
// photos/, writes thumbnails and photos/gallery.json, and rewrites the inline
// gallery regions of index.html.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/gallery"
	"github.com/zenryukyo/gallery/pkg/imagesvc"
	"github.com/zenryukyo/gallery/pkg/imgsize"
	"github.com/zenryukyo/gallery/pkg/manage"
	"github.com/zenryukyo/gallery/pkg/resolve"
)

var (
	configPath  = flag.String("config", "", "optional YAML config file; explicitly set flags take precedence")
	rootDir     = flag.String("root", ".", "site root containing index.html")
	sourceDir   = flag.String("source", "", "directory scanned for originals (defaults to --root)")
	logo        = flag.String("logo", "", "logo to copy into assets/ (defaults to <root>/assets/rogo.webp)")
	thumbSize   = flag.Int("thumb-size", 1200, "maximum thumbnail edge in pixels")
	skipCopy    = flag.Bool("skip-copy", false, "do not copy originals into photos/")
	skipThumbs  = flag.Bool("skip-thumbs", false, "do not generate thumbnails; reuse existing ones")
	incremental = flag.Bool("incremental", false, "only regenerate thumbnails older than their original")
	sidecars    = flag.Bool("sidecars", false, "read captions from <photo>.json sidecars")
	workers     = flag.Int("workers", 1, "photos to process in parallel")
	useExifTool = flag.Bool("exiftool", false, "try exiftool before the built-in decoders")
	noDecoder   = flag.Bool("no-decoder", false, "disable the image library; use the manual header parser only")
	watchFlag   = flag.Bool("watch", false, "watch for changes and rebuild")
	listen      = flag.Bool("listen", false, "serve the site via HTTP")
	addr        = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := config()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	var libs []resolve.Source
	if c.ExifTool {
		et, err := imagesvc.NewExifTool()
		if err != nil {
			klog.Warningf("exiftool unavailable: %v", err)
		} else {
			defer func() {
				if err := et.Close(); err != nil {
					klog.Errorf("Failed to close exiftool: %v", err)
				}
			}()
			libs = append(libs, resolve.NewLibrary("exiftool", et))
		}
	}

	var thumbs imagesvc.Thumbnailer
	if !c.NoDecoder {
		b := imagesvc.NewBild(c.ThumbQuality)
		libs = append(libs, resolve.NewLibrary("bild", b))
		thumbs = b
	}

	r := resolve.New(libs...)
	klog.Infof("dimension sources: %s", strings.Join(r.Sources(), ", "))
	b := gallery.NewBuilder(c, r, thumbs)

	res, err := gallery.Run(c, b)
	if err != nil {
		klog.Exitf("build failed: %v", err)
	}
	s := manage.New(c, b, res)

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(c, s); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(s, *addr)
		}()
	}

	wg.Wait()
}

// config merges the optional config file with flags. Flags given on the
// command line win over file values.
func config() (*gallery.Config, error) {
	c := &gallery.Config{}
	if *configPath != "" {
		fc, err := gallery.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		c = fc
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	fromFile := *configPath != ""
	use := func(name string) bool { return !fromFile || set[name] }

	if use("root") {
		c.Root = *rootDir
	}
	if use("source") {
		c.Source = *sourceDir
	}
	if use("logo") {
		c.Logo = *logo
	}
	if use("thumb-size") {
		c.ThumbSize = *thumbSize
	}
	if use("skip-copy") {
		c.SkipCopy = *skipCopy
	}
	if use("skip-thumbs") {
		c.SkipThumbs = *skipThumbs
	}
	if use("incremental") {
		c.Incremental = *incremental
	}
	if use("sidecars") {
		c.Sidecars = *sidecars
	}
	if use("workers") {
		c.Workers = *workers
	}
	if use("exiftool") {
		c.ExifTool = *useExifTool
	}
	if use("no-decoder") {
		c.NoDecoder = *noDecoder
	}

	c.SetDefaults()
	if c.ThumbSize < 1 {
		return nil, fmt.Errorf("thumb size must be positive, got %d", c.ThumbSize)
	}
	return c, nil
}

// serve serves the site root and management endpoints via HTTP.
func serve(s *manage.Server, addr string) {
	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, s.Handler()); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// watch rebuilds when originals or photos change. Events are debounced so that
// a batch copy triggers a single rebuild.
func watch(c *gallery.Config, s *manage.Server) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	dirs := []string{c.PhotosDir()}
	if !c.SkipCopy {
		src, err := filepath.Abs(c.Source)
		if err != nil {
			return err
		}
		photos, err := filepath.Abs(c.PhotosDir())
		if err != nil {
			return err
		}
		if src != photos {
			dirs = append(dirs, c.Source)
		}
	}

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(c, event) {
				continue
			}
			klog.V(1).Infof("event: %s", event)
			if timer == nil {
				timer = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case rebuild <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(500 * time.Millisecond)
			}
		case <-rebuild:
			if _, err := s.Rebuild(); err != nil {
				klog.Errorf("rebuild failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// relevant ignores our own outputs so a rebuild does not retrigger itself.
func relevant(c *gallery.Config, e fsnotify.Event) bool {
	if !(e.Has(fsnotify.Write) || e.Has(fsnotify.Create) || e.Has(fsnotify.Rename) || e.Has(fsnotify.Remove)) {
		return false
	}
	if filepath.Clean(filepath.Dir(e.Name)) == filepath.Clean(c.ThumbsDir()) {
		return false
	}
	if c.Sidecars && strings.HasSuffix(e.Name, ".json") && filepath.Base(e.Name) != gallery.ManifestName {
		return true
	}
	return imgsize.Supported(e.Name)
}
