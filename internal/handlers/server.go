package handlers

import (
	"context"
	"net/http"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/ahmetzturk/yt-summarizer/internal/application"
	"github.com/ahmetzturk/yt-summarizer/internal/cache"
	"github.com/ahmetzturk/yt-summarizer/internal/config"
	"github.com/ahmetzturk/yt-summarizer/internal/metrics"
	"github.com/ahmetzturk/yt-summarizer/internal/summarizer"
)

// maxBodyBytes caps POST /summarize request bodies
const maxBodyBytes = 1 << 20

// Options configures the HTTP surface
type Options struct {
	CORSAllowedOrigins []string
	RateLimitPerMinute int // zero or negative disables limiting
	RateLimitBurst     int
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	service      *summarizer.Service
	cacheManager *cache.Manager
	metrics      *metrics.Metrics
	limiter      *rate.Limiter
	opts         Options
}

// New creates a server around an already wired service. cacheManager may be nil.
func New(service *summarizer.Service, cacheManager *cache.Manager, m *metrics.Metrics, opts Options) *Server {
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		service:      service,
		cacheManager: cacheManager,
		metrics:      m,
		opts:         opts,
	}

	if opts.RateLimitPerMinute > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RateLimitPerMinute)), burst)
	}

	return s
}

// NewServer wires every collaborator from configuration
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	app, err := application.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return New(app.Service, app.Cache, app.Metrics, Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
	}), nil
}

// CacheManager returns the summary cache, or nil when caching is disabled
func (s *Server) CacheManager() *cache.Manager {
	return s.cacheManager
}

// SetupRoutes configures HTTP routes and wraps them in the middleware chain
func (s *Server) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/summarize", s.rateLimit(http.HandlerFunc(s.summarizeHandler))).Methods(http.MethodPost)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/cache/stats", s.cacheStatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/cache", s.cacheClearHandler).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	origins := s.opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return ghandlers.CORS(
		ghandlers.AllowedOrigins(origins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		ghandlers.ExposedHeaders([]string{"X-Request-ID"}),
	)(r)
}

// Close releases the cache backend
func (s *Server) Close() error {
	if s.cacheManager == nil {
		return nil
	}
	return s.cacheManager.Close()
}
