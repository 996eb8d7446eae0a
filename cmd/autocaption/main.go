// autocaption writes <photo>.json caption sidecars using the Gemini API.
package main

import (
	"context"
	"flag"
	"os"

	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/gallery"
)

var (
	dryRun    = flag.Bool("n", false, "dry-run mode, don't write sidecars")
	overwrite = flag.Bool("o", false, "overwrite existing captions")
	rootDir   = flag.String("root", ".", "site root containing photos/")
	model     = flag.String("model", "gemini-2.5-flash", "Gemini model name")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	key := os.Getenv("GOOGLE_AI_API_KEY")
	if key == "" {
		klog.Exitf("GOOGLE_AI_API_KEY is not set")
	}

	c := &gallery.Config{Root: *rootDir}
	c.SetDefaults()

	ctx := context.Background()
	cp, err := gallery.NewGenAICaptioner(ctx, key, *model)
	if err != nil {
		klog.Exitf("captioner: %v", err)
	}

	n, err := gallery.AutoCaption(ctx, c, cp, *dryRun, *overwrite)
	if err != nil {
		klog.Exitf("autocaption failed: %v", err)
	}
	klog.Infof("autocaption completed. Wrote %d sidecar(s) under %s", n, c.PhotosDir())
}
