// Package manage provides HTTP handlers for previewing and rebuilding a gallery site.
package manage

import (
	"net/http"
	"sync"

	"k8s.io/klog/v2"

	"github.com/zenryukyo/gallery/pkg/gallery"
)

// Server serves the site root and the latest build result.
type Server struct {
	c *gallery.Config
	b *gallery.Builder

	mu     sync.Mutex
	result *gallery.Result
}

// New creates a new server. result may be nil until the first rebuild.
func New(c *gallery.Config, b *gallery.Builder, result *gallery.Result) *Server {
	return &Server{c: c, b: b, result: result}
}

// Rebuild runs a full gallery update. Concurrent calls are serialized.
func (s *Server) Rebuild() (*gallery.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := gallery.Run(s.c, s.b)
	if err != nil {
		return nil, err
	}
	s.result = r
	return r, nil
}

// Handler routes the management endpoints and serves the site root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.c.Root)))
	mux.HandleFunc("/_/manifest", s.ManifestHandler())
	mux.HandleFunc("/_/rebuild", s.RebuildHandler())
	return mux
}

// ManifestHandler returns the manifest from the most recent build.
func (s *Server) ManifestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		r := s.result
		s.mu.Unlock()

		if r == nil {
			http.Error(w, "no build yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if _, err := w.Write(r.Manifest); err != nil {
			klog.Errorf("write manifest: %v", err)
		}
	}
}

// RebuildHandler triggers a rebuild and responds with the new manifest.
func (s *Server) RebuildHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		klog.Infof("rebuild requested by %s", req.RemoteAddr)
		r, err := s.Rebuild()
		if err != nil {
			klog.Errorf("rebuild failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if _, err := w.Write(r.Manifest); err != nil {
			klog.Errorf("write manifest: %v", err)
		}
	}
}
