package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/middleware/ratelimit"
	"milksync/internal/middleware/security"
	"milksync/internal/middleware/trace"
	"milksync/internal/services"
	"milksync/internal/sheets"
)

// DeliverySyncer appends one delivery to the sheet.
type DeliverySyncer interface {
	Sync(ctx context.Context, rec *core.DeliveryRecord) error
}

// SummaryFetcher returns the delivery rows matching a query.
type SummaryFetcher interface {
	FetchSummaries(ctx context.Context, q services.SummaryQuery) ([]core.SheetRow, error)
}

// Config holds the HTTP server settings.
type Config struct {
	Addr string
	// RateLimitPerMinute caps POST requests per client IP; 0 disables it.
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	logger    *applog.Logger
	syncer    DeliverySyncer
	summaries SummaryFetcher
	tokens    sheets.TokenIssuer

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	metrics         *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started          time.Time
	deliveriesSynced atomic.Int64
	syncFailures     atomic.Int64
	summariesFetched atomic.Int64
	tokensIssued     atomic.Int64
	rateLimitHits    atomic.Int64
}

// NewServer wires the routes. The returned server is ready for
// ListenAndServe; call Shutdown to stop it and its background goroutines.
func NewServer(cfg Config, syncer DeliverySyncer, summaries SummaryFetcher, tokens sheets.TokenIssuer) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logger,
		syncer:          syncer,
		summaries:       summaries,
		tokens:          tokens,
		detector:        detector,
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
		metrics:         &appMetrics{started: time.Now()},
	}
	if cfg.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.traceMiddleware.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
		}
		r.Post("/get-access-token", s.handleAccessToken)
		r.Post("/sync-delivery", s.handleSyncDelivery)
		r.Post("/fetch-summaries", s.handleFetchSummaries)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.rateLimitHits.Add(1)
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
