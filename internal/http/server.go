package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/kv"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	"expenses/internal/session"
	"expenses/internal/sheets"
)

// Server serves the expense JSON API.
type Server struct {
	http.Server

	expenses *services.ExpenseService
	session  *session.Session
	prefs    kv.Store
	exporter sheets.RecordExporter
	logger   *log.Logger
	now      func() time.Time
	started  time.Time

	summaryCache *cache.LRUCache[core.PeriodSummary]
	chartCache   *cache.LRUCache[core.ChartSeries]
	cacheManager *cache.Manager

	// viewMu orders cache fills against purges; viewGen counts purges.
	viewMu  sync.Mutex
	viewGen uint64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// Options wires the server to the application services. Expenses and Prefs
// are required; Exporter is nil when Sheets export is not configured.
type Options struct {
	Addr      string
	Expenses  *services.ExpenseService
	Session   *session.Session
	Prefs     kv.Store
	Exporter  sheets.RecordExporter
	Logger    *log.Logger
	Now       func() time.Time
	RateLimit ratelimit.Config
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Call Shutdown to stop it along with its background goroutines.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(opts.Expenses, logger)
	}

	s := &Server{
		expenses:     opts.Expenses,
		session:      sess,
		prefs:        opts.Prefs,
		exporter:     opts.Exporter,
		logger:       logger.WithComponent(log.ComponentHTTP),
		now:          now,
		started:      now(),
		summaryCache: cache.NewLRUCache[core.PeriodSummary](100, 5*time.Minute),
		chartCache:   cache.NewLRUCache[core.ChartSeries](4, 5*time.Minute),
		cacheManager: cache.NewManager(logger),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		detector:     security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(time.Minute)
	s.expenses.OnChange(s.invalidateViews)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleSubmitExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("POST /api/expenses/{id}/edit", s.handleBeginEdit)
	mux.HandleFunc("GET /api/edit", s.handleEditing)
	mux.HandleFunc("DELETE /api/edit", s.handleCancelEdit)
	mux.HandleFunc("POST /api/expenses/{id}/delete", s.handleStageDelete)
	mux.HandleFunc("POST /api/deletions/confirm", s.handleConfirmDelete)
	mux.HandleFunc("POST /api/deletions/cancel", s.handleCancelDelete)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/distribution", s.handleDistribution)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/export/sheets", s.handleExportSheets)
	mux.HandleFunc("GET /api/theme", s.handleTheme)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	var handler http.Handler = mux
	handler = security.NoStore(handler)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	handler = s.rejectSuspicious(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// invalidateViews drops derived views after every write.
func (s *Server) invalidateViews() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.viewGen++
	s.summaryCache.Purge()
	s.chartCache.Purge()
}

// viewGeneration must be read before the records a view is computed from.
func (s *Server) viewGeneration() uint64 {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.viewGen
}

// storeView runs set only if no write happened since gen was read, so a view
// computed from older records never lands in the cache after a purge.
func (s *Server) storeView(gen uint64, set func()) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if s.viewGen != gen {
		return false
	}
	set()
	return true
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
			BadRequestError("request rejected").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})

	return shutdownErr
}
