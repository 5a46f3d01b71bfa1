package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/prefs"
)

// healthChecker is implemented by KV backends that can verify their
// connection, e.g. the SQLite store.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if hc, ok := s.prefs.(healthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	if s.exporter != nil {
		checks["sheets"] = "configured"
	} else {
		checks["sheets"] = "not_configured"
	}

	checks["cache"] = map[string]any{
		"summary_entries": s.summaryCache.Size(),
		"chart_entries":   s.chartCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"records":   len(s.expenses.All()),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and cache counters in plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	summaryHits, summaryMisses := s.summaryCache.Stats()
	chartHits, chartMisses := s.chartCache.Stats()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP expenses_records Current number of expense records\n")
	fmt.Fprintf(w, "# TYPE expenses_records gauge\n")
	fmt.Fprintf(w, "expenses_records %d\n\n", len(s.expenses.All()))

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total{cache=\"summary\"} %d\n", summaryHits)
	fmt.Fprintf(w, "cache_hits_total{cache=\"chart\"} %d\n\n", chartHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total{cache=\"summary\"} %d\n", summaryMisses)
	fmt.Fprintf(w, "cache_misses_total{cache=\"chart\"} %d\n\n", chartMisses)

	fmt.Fprintf(w, "# HELP rate_limit_rejections_total Requests refused by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejections_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejections_total %d\n\n", s.limiter.Rejected())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.detector.SuspiciousCount())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", s.now().Sub(s.started).Seconds())
}

type summaryResponse struct {
	core.PeriodSummary
	TopCategoryName string `json:"topCategoryName,omitempty"`
	TopCategoryIcon string `json:"topCategoryIcon,omitempty"`
}

// handleSummary reports the period containing ?year=&month= (default: now).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query(), s.now())
	key := fmt.Sprintf("%04d-%02d", params.Year, params.Month)

	summary, ok := s.summaryCache.Get(key)
	if !ok {
		gen := s.viewGeneration()
		summary = aggregate.Period(s.expenses.All(), params.Time())
		s.storeView(gen, func() { s.summaryCache.Set(key, summary) })
	}

	resp := summaryResponse{PeriodSummary: summary}
	if summary.TopCategory != nil {
		resp.TopCategoryName = summary.TopCategory.Category.DisplayName()
		resp.TopCategoryIcon = summary.TopCategory.Category.Icon()
	}
	NewResponse().JSON(resp).Write(w)
}

type distributionEntry struct {
	core.CategoryAmount
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	Percentage string `json:"percentage"`
	Tooltip    string `json:"tooltip"`
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist := aggregate.Distribution(s.expenses.All())
	total := aggregate.Total(dist)

	entries := make([]distributionEntry, 0, len(dist))
	for _, d := range dist {
		entries = append(entries, distributionEntry{
			CategoryAmount: d,
			Icon:           d.Category.Icon(),
			Color:          d.Category.Color(),
			Percentage:     aggregate.Share(d.Amount, total).StringFixed(1),
			Tooltip:        aggregate.TooltipLabel(d, total),
		})
	}
	NewResponse().JSON(map[string]any{
		"total":      total,
		"categories": entries,
	}).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	theme := s.theme(r.Context())

	series, ok := s.chartCache.Get(string(theme))
	if !ok {
		gen := s.viewGeneration()
		series = aggregate.Chart(s.expenses.All(), theme)
		s.storeView(gen, func() { s.chartCache.Set(string(theme), series) })
	}
	NewResponse().JSON(series).Write(w)
}

// theme falls back to light when the preference cannot be read.
func (s *Server) theme(ctx context.Context) core.Theme {
	t, err := prefs.Theme(ctx, s.prefs)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Theme preference unavailable", log.FieldError, err.Error())
	}
	return t
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := export.CSV(s.expenses.All())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	NewResponse().
		Body("text/csv; charset=utf-8", []byte(body)).
		Attachment(export.FileName(s.now())).
		Write(w)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		ServiceUnavailableError("Google Sheets export is not configured").Write(w)
		return
	}

	records := s.expenses.All()
	ref, err := s.exporter.Export(r.Context(), records)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	NewResponse().JSON(map[string]any{
		"ref":   ref,
		"count": len(records),
	}).Write(w)
}

type themeResponse struct {
	Theme     core.Theme `json:"theme"`
	Dark      bool       `json:"dark"`
	TextColor string     `json:"textColor"`
}

func newThemeResponse(t core.Theme) themeResponse {
	return themeResponse{Theme: t, Dark: t == core.ThemeDark, TextColor: t.TextColor()}
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := prefs.Theme(r.Context(), s.prefs)
	if err != nil {
		writeError(w, r, "theme", err)
		return
	}
	NewResponse().JSON(newThemeResponse(t)).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := prefs.ToggleTheme(r.Context(), s.prefs)
	if err != nil {
		writeError(w, r, "theme", err)
		return
	}
	NewResponse().JSON(newThemeResponse(t)).Write(w)
}
