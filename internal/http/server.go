package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energylog/internal/log"
	"energylog/internal/middleware/ratelimit"
	"energylog/internal/middleware/security"
	"energylog/internal/middleware/trace"
	"energylog/internal/services"
	"energylog/internal/share"
)

// Options configures the API server beyond its services.
type Options struct {
	// Location resolves zone-less dates for share payloads and documents.
	Location *time.Location
	// VehicleID prefixes download filenames.
	VehicleID string
	// ShareBaseURL is the page share links point to.
	ShareBaseURL string
	// RateLimitPerMinute bounds writes per client. Zero uses the limiter default.
	RateLimitPerMinute int
	Logger             *log.Logger
	// Now is the clock used for export names and undated form records.
	Now func() time.Time
}

type Server struct {
	http.Server
	records *services.RecordService
	stats   *services.StatsService
	opts    Options
	codec   *share.Codec

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, rs *services.RecordService, ss *services.StatsService, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.ForComponent(log.ComponentHTTP)
	}

	s := &Server{
		records:  rs,
		stats:    ss,
		opts:     opts,
		codec:    share.NewCodec(opts.Location),
		detector: security.NewDetector(opts.Logger.WithComponent(log.ComponentSecurity)),
		logger:   opts.Logger,
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Logger:            opts.Logger.WithComponent(log.ComponentRateLimit),
	})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, opts.Logger)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost, http.MethodPut, http.MethodDelete)

	var h http.Handler = mux
	h = limit(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = recoverMiddleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/records", s.handleListRecords)
	mux.HandleFunc("POST /api/records", s.handleCreateRecord)
	mux.HandleFunc("GET /api/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /api/records/{id}", s.handleReplaceRecord)
	mux.HandleFunc("DELETE /api/records/{id}", s.handleRemoveRecord)
	mux.Handle("GET /api/export", security.NoStore(http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("GET /api/timeline", s.handleTimeline)
	mux.HandleFunc("GET /api/rollups", s.handleRollups)
	mux.HandleFunc("GET /api/years", s.handleYears)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/statistics/quarterly", s.handleQuarterly)
	mux.HandleFunc("GET /api/statistics/cost-curve", s.handleCostCurve)
	mux.HandleFunc("GET /api/statistics/monthly-counts", s.handleMonthlyCounts)

	mux.HandleFunc("GET /api/reports/{year}", s.handleYearlyReport)
	mux.HandleFunc("GET /api/reports/{year}/share", s.handleShare)
	mux.HandleFunc("GET /api/reports/{year}/share.png", s.handleShareQR)
	mux.Handle("GET /api/reports/{year}/export.xlsx", security.NoStore(http.HandlerFunc(s.handleReportXLSX)))
	mux.Handle("GET /api/reports/{year}/export.pdf", security.NoStore(http.HandlerFunc(s.handleReportPDF)))
	mux.HandleFunc("GET /api/shared", s.handleShared)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// recoverMiddleware turns handler panics into a 500.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
				"panic", rec,
				"stack", string(debug.Stack()))
			InternalServerError("internal error").Write(w)
		}()
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reads the collection, so a broken backend fails readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.records.All(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ServiceUnavailableError("record store unavailable").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
