package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetlease/internal/cache"
	"fleetlease/internal/core"
	obs "fleetlease/internal/observability/metrics"
	"fleetlease/internal/store"
	appweb "fleetlease/web"
)

// EventPublisher pushes domain events to the message broker. Optional: a nil
// publisher means mutations complete without notifying anyone.
type EventPublisher interface {
	PublishLesseeRegistered(ctx context.Context, lesseeID, vehicleID string) error
	PublishPaymentRecorded(ctx context.Context, paymentID, lesseeID string, amountCents int64) error
}

type Server struct {
	http.Server
	templates *template.Template

	registrar store.Registrar
	payments  store.PaymentRecorder
	snapshots store.SnapshotReader
	publisher EventPublisher

	rateLimiter *rateLimiter

	// Dashboard snapshots are cheap to compute but requested by several
	// partials per page load, so a short-lived cache absorbs the fan-out.
	dashboardCache *cache.LRU[core.DashboardMetrics]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, registrar store.Registrar, payments store.PaymentRecorder, snapshots store.SnapshotReader, publisher EventPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		registrar:      registrar,
		payments:       payments,
		snapshots:      snapshots,
		publisher:      publisher,
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRU[core.DashboardMetrics](4, time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: obs.HTTPMetricsMiddleware(mux),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/lessees", s.withSecurityHeaders(s.handleRegisterLessee))
	mux.HandleFunc("/payments", s.withSecurityHeaders(s.handleRecordPayment))
	// UI partials
	mux.HandleFunc("/ui/overview", s.withSecurityHeaders(s.handleOverview))
	mux.HandleFunc("/ui/trend", s.withSecurityHeaders(s.handleTrend))
	mux.HandleFunc("/ui/overdue", s.withSecurityHeaders(s.handleOverdue))
	mux.HandleFunc("/ui/categories", s.withSecurityHeaders(s.handleCategories))
	mux.HandleFunc("/ui/payment-status", s.withSecurityHeaders(s.handlePaymentStatus))
	mux.HandleFunc("/ui/fleet", s.withSecurityHeaders(s.handleFleet))

	return s
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Apply rate limiting to mutating requests
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.snapshots.Snapshot(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dashboard returns the current metrics, recomputing from a fresh snapshot on
// cache miss.
func (s *Server) dashboard(ctx context.Context) (core.DashboardMetrics, error) {
	const key = "dashboard"

	if m, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(ctx, "Dashboard cache hit")
		return m, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.snapshots.Snapshot(cctx)
	if err != nil {
		return core.DashboardMetrics{}, err
	}

	start := time.Now()
	m := core.ComputeDashboard(data, time.Now())
	obs.ObserveDashboardCompute(time.Since(start))
	obs.SetOverdue(len(m.Overdue))

	s.dashboardCache.Set(key, m)
	return m, nil
}

func (s *Server) invalidateDashboard() {
	s.dashboardCache.Delete("dashboard")
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
