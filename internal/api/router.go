package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tunes the HTTP surface. Zero values are usable.
type Options struct {
	AllowedOrigins []string
	// StaticDir, when set, is served under / for a built frontend.
	StaticDir      string
	RequestTimeout time.Duration
	Logger         logger.Logger
}

// Server holds the HTTP server dependencies
type Server struct {
	catalog *service.Catalog
	router  chi.Router
	log     logger.Logger
	metrics *metrics
	opts    Options
}

// New creates a new API server
func New(catalog *service.Catalog, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.GetDefault()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:*"}
	}
	s := &Server{
		catalog: catalog,
		router:  chi.NewRouter(),
		log:     opts.Logger,
		metrics: newMetrics(),
		opts:    opts,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.middleware)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.opts.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	// Listing
	s.router.Get("/games", s.handleListGames)
	s.router.Get("/games/{ref}", s.handleGetGame)

	// Sales records
	s.router.Post("/sales", s.handleCreateSale)
	s.router.Put("/sales/{id}", s.handleUpdateSale)

	// Reviews
	s.router.Get("/reviews/{itemRef}", s.handleListReviews)
	s.router.Post("/reviews", s.handleCreateReview)
	s.router.Delete("/reviews/{id}", s.handleDeleteReview)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	if s.opts.StaticDir != "" {
		s.router.Get("/*", frontend(s.opts.StaticDir))
	}
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error kind to its status. Storage
// details stay in the log.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	default:
		logger.FromContext(r.Context()).Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
