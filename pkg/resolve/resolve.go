// Package resolve determines image dimensions by trying an ordered chain of
// sources, ending with the manual container parsers.
package resolve

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/imagesvc"
	"github.com/zenryukyo/gallery/pkg/imgsize"
)

// Source is one way of obtaining dimensions for a file.
type Source interface {
	Name() string
	Dimensions(path string) (imgsize.Size, error)
}

// Library is a Source backed by a full image library.
type Library struct {
	name string
	d    imagesvc.Decoder
}

// NewLibrary wraps d as a Source.
func NewLibrary(name string, d imagesvc.Decoder) *Library {
	return &Library{name: name, d: d}
}

func (l *Library) Name() string { return l.name }

func (l *Library) Dimensions(path string) (imgsize.Size, error) {
	s, err := l.d.Dimensions(path)
	if err != nil {
		return imgsize.Size{}, err
	}
	if s.Width <= 0 || s.Height <= 0 {
		return imgsize.Size{}, fmt.Errorf("%s reported %s", l.name, s)
	}
	return s, nil
}

// Manual is the Source built on the imgsize container parsers.
type Manual struct{}

func (Manual) Name() string { return "manual" }

func (Manual) Dimensions(path string) (imgsize.Size, error) {
	return imgsize.DecodeFile(path)
}

// UnavailableError is returned when no source could report dimensions for Path.
type UnavailableError struct {
	Path  string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("dimensions unavailable for %s: %v", e.Path, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Resolver tries each library source in order, then the manual parsers.
type Resolver struct {
	sources []Source
}

// New returns a Resolver over libs followed by Manual. Passing no libs gives
// a resolver that relies only on the manual parsers.
func New(libs ...Source) *Resolver {
	sources := make([]Source, 0, len(libs)+1)
	for _, l := range libs {
		if l != nil {
			sources = append(sources, l)
		}
	}
	return &Resolver{sources: append(sources, Manual{})}
}

// Sources lists the chain in the order it is tried.
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// Dimensions returns the first answer in the chain. Only the final (manual)
// failure is reported as the cause.
func (r *Resolver) Dimensions(path string) (imgsize.Size, error) {
	var last error
	for i, src := range r.sources {
		s, err := src.Dimensions(path)
		if err == nil {
			klog.V(1).Infof("%s: %s via %s", path, s, src.Name())
			return s, nil
		}
		last = err
		if i < len(r.sources)-1 {
			klog.Warningf("%s failed to read %s: %v. Falling back to %s.", src.Name(), path, err, r.sources[i+1].Name())
		}
	}
	return imgsize.Size{}, &UnavailableError{Path: path, Cause: last}
}
