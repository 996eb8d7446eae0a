package gallery

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

//go:embed assets/gallery.tmpl
var galleryTmpl string

const (
	galleryStart = "<!-- gallery:start -->"
	galleryEnd   = "<!-- gallery:end -->"
	dataStart    = "<!-- gallery-data:start -->"
	dataEnd      = "<!-- gallery-data:end -->"
)

// figure is the template view of an Item.
type figure struct {
	Index   int
	Src     string
	Alt     string
	Caption string
	Label   string
	Width   int
	Height  int
}

func figureFor(i int, it *Item) figure {
	caption := it.Caption
	if caption == "" {
		caption = it.Alt
	}
	if caption == "" {
		caption = strings.TrimSuffix(path.Base(it.Src), path.Ext(it.Src))
	}

	f := figure{
		Index:   i,
		Src:     it.Src,
		Alt:     it.Alt,
		Caption: caption,
		Label:   caption + "を拡大表示",
		Width:   it.W,
		Height:  it.H,
	}
	if f.Alt == "" {
		f.Alt = caption
	}
	if it.Thumb != "" {
		f.Src = it.Thumb
	}
	if it.ThumbWidth != 0 {
		f.Width = it.ThumbWidth
	}
	if it.ThumbHeight != 0 {
		f.Height = it.ThumbHeight
	}
	return f
}

// RenderMarkup returns the gallery figure lines to place between the gallery markers.
func RenderMarkup(items []*Item) ([]string, error) {
	tmpl, err := template.New("markup").Parse(galleryTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	figures := make([]figure, 0, len(items))
	for i, it := range items {
		figures = append(figures, figureFor(i, it))
	}

	var tpl bytes.Buffer
	if err := tmpl.ExecuteTemplate(&tpl, "gallery", figures); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	return strings.Split(strings.TrimPrefix(tpl.String(), "\n"), "\n"), nil
}

// RenderDataLines wraps the manifest in an inline JSON script block.
func RenderDataLines(manifest []byte) []string {
	text := strings.TrimRight(string(manifest), "\n")
	if text == "" {
		text = "[]"
	}

	lines := []string{`    <script id="gallery-data" type="application/json">`}
	for _, l := range strings.Split(text, "\n") {
		if l == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, "      "+l)
	}
	return append(lines, "    </script>")
}

// UpdateIndex rewrites the marked regions of root/index.html. Missing files or
// markers are logged and skipped.
func UpdateIndex(root string, items []*Item, manifest []byte) error {
	p := filepath.Join(root, IndexName)
	bs, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		klog.Warningf("%s not found; skipping inline gallery update.", IndexName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	lines := splitLines(string(bs))

	markup, err := RenderMarkup(items)
	if err != nil {
		return fmt.Errorf("render markup: %w", err)
	}

	var ok bool
	if lines, ok = replaceBetween(lines, galleryStart, galleryEnd, markup); !ok {
		klog.Warning("Gallery markers not found; skipped inline gallery markup update.")
	}
	if lines, ok = replaceBetween(lines, dataStart, dataEnd, RenderDataLines(manifest)); !ok {
		klog.Warning("Gallery data markers not found; skipped inline JSON update.")
	}

	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	klog.Infof("Updated %s with inline gallery content.", IndexName)
	return nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// replaceBetween swaps the lines strictly between the first lines containing
// start and end markers.
func replaceBetween(lines []string, start string, end string, repl []string) ([]string, bool) {
	si, ei := -1, -1
	for i, l := range lines {
		if si < 0 && strings.Contains(l, start) {
			si = i
		}
		if ei < 0 && strings.Contains(l, end) {
			ei = i
		}
	}
	if si < 0 || ei <= si {
		return lines, false
	}

	out := make([]string, 0, len(lines)-(ei-si-1)+len(repl))
	out = append(out, lines[:si+1]...)
	out = append(out, repl...)
	out = append(out, lines[ei:]...)
	return out, true
}
