// Package server exposes the conversion pipeline over HTTP.
//
// The API accepts dependency documents and returns converted constituency
// documents. When a store is configured, converted trees can also be
// persisted and retrieved by id.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/humsha/educe/pkg/pipeline"
	"github.com/humsha/educe/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	store  store.Store
	log    *log.Logger
}

// NewServer creates and configures the HTTP server. The store may be nil,
// in which case the /api/trees endpoints are not mounted.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/convert", s.handleConvert)

	if s.store != nil {
		r.Post("/api/trees", s.handleSaveTree)
		r.Get("/api/trees", s.handleListTrees)
		r.Get("/api/trees/{docID}", s.handleGetTree)
		r.Delete("/api/trees/{docID}", s.handleDeleteTree)
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
