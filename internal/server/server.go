// Package server exposes the photo pipeline over HTTP: a one-shot generate endpoint,
// per-user sessions with retry and reset, and the embedded comparison page.
package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/fpang/auralens/internal/filehandler"
	"github.com/fpang/auralens/internal/session"
)

// Options configures a Server.
type Options struct {
	// Generator runs the image generation for every session.
	Generator session.Generator
	// Store holds sessions. A default store is created when nil.
	Store *session.Store
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Static serves the comparison page. Disabled when false.
	Static bool

	Model             string
	Version           string
	CredentialPresent bool
}

// Server routes HTTP requests to sessions.
type Server struct {
	opts  Options
	store *session.Store
	runs  sync.WaitGroup
}

// New creates a Server.
func New(opts Options) *Server {
	st := opts.Store
	if st == nil {
		st = session.NewStore(opts.Generator, 0, 0)
	}
	return &Server{opts: opts, store: st}
}

// maxBodyBytes caps request bodies: the largest accepted photo plus multipart overhead.
const maxBodyBytes = filehandler.MaxUploadSizeBytes + 1<<20

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger, withCORS, securityHeaders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/generate", s.handleGenerate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/upload", s.handleUpload)
				r.Post("/retry", s.handleRetry)
				r.Post("/reset", s.handleReset)
			})
		})
	})

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	if s.opts.Static {
		r.Handle("/*", staticHandler())
	}

	return gzhttp.GzipHandler(r)
}

// Wait blocks until every background generation started by the server has finished.
func (s *Server) Wait() {
	s.runs.Wait()
}
