package daemon

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// WebhookSecretHeader carries the shared secret on webhook calls.
const WebhookSecretHeader = "X-Jellyrename-Webhook-Secret"

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
	maxWebhookBody      = 1 << 20
)

// HistoryReader is the read side of the history store.
type HistoryReader interface {
	RecentRenames(limit int) ([]database.RenameRecord, error)
	RecentFailures(limit int) ([]database.RenameRecord, error)
	RecentPasses(limit int) ([]database.Pass, error)
}

type ServerConfig struct {
	Addr          string
	WebhookSecret string
	// AllowedOrigins for the read-only API. Empty means any origin.
	AllowedOrigins []string
	Handler        *MediaHandler
	Scanner        *scanner.PeriodicScanner
	History        HistoryReader
	Logger         *logging.Logger
}

type Server struct {
	httpServer    *http.Server
	handler       *MediaHandler
	scanner       *scanner.PeriodicScanner
	history       HistoryReader
	startTime     time.Time
	mu            sync.RWMutex
	healthy       bool
	logger        *logging.Logger
	webhookSecret string
	origins       []string
}

type HealthResponse struct {
	Status        string                 `json:"status"`
	Uptime        string                 `json:"uptime"`
	Timestamp     time.Time              `json:"timestamp"`
	ScannerStatus *scanner.ScannerStatus `json:"scanner,omitempty"`
}

type MetricsResponse struct {
	WebhooksReceived int64   `json:"webhooks_received"`
	PassesRun        int64   `json:"passes_run"`
	Renamed          int64   `json:"renamed"`
	Skipped          int64   `json:"skipped"`
	Failed           int64   `json:"failed"`
	Deferred         int64   `json:"deferred"`
	Errors           int64   `json:"errors"`
	PlaybackLocks    int     `json:"playback_locks"`
	DeferredPending  int     `json:"deferred_pending"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	LastPass         string  `json:"last_pass,omitempty"`
}

type PlaybackResponse struct {
	Locks    map[string]jellyfin.PlaybackInfo  `json:"locks"`
	Deferred map[string][]jellyfin.DeferredOp `json:"deferred"`
}

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		handler:       cfg.Handler,
		scanner:       cfg.Scanner,
		history:       cfg.History,
		startTime:     time.Now(),
		healthy:       true,
		logger:        logger,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		origins:       cfg.AllowedOrigins,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Post("/webhooks/jellyfin", s.handleJellyfinWebhook)

		r.Group(func(r chi.Router) {
			origins := s.origins
			if len(origins) == 0 {
				origins = []string{"*"}
			}
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: origins,
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
			r.Get("/history", s.handleHistory)
			r.Get("/passes", s.handlePasses)
			r.Get("/playback", s.handlePlayback)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("server", "Request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("duration", time.Since(start).Round(time.Microsecond)),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) Start() error {
	s.logger.Info("server", "HTTP server starting", logging.F("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	// Check scanner health too
	scannerHealthy := true
	var scannerStatus *scanner.ScannerStatus
	if s.scanner != nil {
		status := s.scanner.Status()
		scannerHealthy = status.Healthy
		scannerStatus = &status
	}

	response := HealthResponse{
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Timestamp:     time.Now(),
		ScannerStatus: scannerStatus,
	}

	switch {
	case healthy && scannerHealthy:
		response.Status = "healthy"
		writeJSON(w, http.StatusOK, response)
	case healthy:
		// Degraded but still serving
		response.Status = "degraded"
		writeJSON(w, http.StatusOK, response)
	default:
		response.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, response)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	if healthy {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.handler == nil {
		writeJSON(w, http.StatusOK, MetricsResponse{UptimeSeconds: time.Since(s.startTime).Seconds()})
		return
	}
	stats := s.handler.Stats()

	response := MetricsResponse{
		WebhooksReceived: stats.WebhooksReceived,
		PassesRun:        stats.PassesRun,
		Renamed:          stats.Renamed,
		Skipped:          stats.Skipped,
		Failed:           stats.Failed,
		Deferred:         stats.Deferred,
		Errors:           stats.Errors,
		UptimeSeconds:    stats.Uptime.Seconds(),
	}
	if locks := s.handler.PlaybackLockManager(); locks != nil {
		response.PlaybackLocks = locks.Count()
	}
	if queue := s.handler.DeferredQueue(); queue != nil {
		response.DeferredPending = queue.Count()
	}
	if !stats.LastPass.IsZero() {
		response.LastPass = stats.LastPass.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleJellyfinWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.validateWebhookSecret(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var event jellyfin.WebhookEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&event); err != nil {
		if s.handler != nil {
			s.handler.stats.RecordError()
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	queued := false
	if s.handler != nil {
		queued = s.handler.HandleJellyfinWebhookEvent(event)
	}

	// Unknown events are accepted so the plugin does not retry them.
	if queued {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateWebhookSecret rejects every call when no secret is configured.
func (s *Server) validateWebhookSecret(r *http.Request) bool {
	if s.webhookSecret == "" {
		return false
	}
	provided := strings.TrimSpace(r.Header.Get(WebhookSecretHeader))
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.webhookSecret)) == 1
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store unavailable")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var records []database.RenameRecord
	if failed, _ := strconv.ParseBool(r.URL.Query().Get("failed")); failed {
		records, err = s.history.RecentFailures(limit)
	} else {
		records, err = s.history.RecentRenames(limit)
	}
	if err != nil {
		s.logger.Error("server", "History query failed", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	if records == nil {
		records = []database.RenameRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store unavailable")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	passes, err := s.history.RecentPasses(limit)
	if err != nil {
		s.logger.Error("server", "Pass query failed", err)
		writeError(w, http.StatusInternalServerError, "pass query failed")
		return
	}
	if passes == nil {
		passes = []database.Pass{}
	}
	writeJSON(w, http.StatusOK, passes)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	resp := PlaybackResponse{
		Locks:    map[string]jellyfin.PlaybackInfo{},
		Deferred: map[string][]jellyfin.DeferredOp{},
	}
	if s.handler != nil {
		if locks := s.handler.PlaybackLockManager(); locks != nil {
			resp.Locks = locks.GetAllLocks()
		}
		if queue := s.handler.DeferredQueue(); queue != nil {
			resp.Deferred = queue.GetAll()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
