package http

import (
	"fmt"
	"net/http"
	"time"
)

const greeting = "Welcome to the Temporary Signing Service!"

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(greeting))
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	})
}

// handleReady reports whether every collaborator is wired. It does not call
// the spreadsheet so health checks do not spend API quota.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	check := func(name string, ok bool) {
		if ok {
			checks[name] = "ok"
			return
		}
		checks[name] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}
	check("sync", s.syncer != nil)
	check("summaries", s.summaries != nil)
	check("tokens", s.tokens != nil)

	resp := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}
	if s.rateLimiter != nil {
		resp["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}
	}
	writeJSON(w, r, httpStatus, resp)
}

// handleMetrics provides counters in Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	activeClients := 0
	if s.rateLimiter != nil {
		activeClients = s.rateLimiter.ActiveClients()
	}

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", s.traceMiddleware.TotalRequests())
	writeMetric(w, "deliveries_synced_total", "counter", "Deliveries appended to the sheet", s.metrics.deliveriesSynced.Load())
	writeMetric(w, "delivery_sync_failures_total", "counter", "Delivery syncs that failed", s.metrics.syncFailures.Load())
	writeMetric(w, "summaries_fetched_total", "counter", "Successful summary queries", s.metrics.summariesFetched.Load())
	writeMetric(w, "access_tokens_issued_total", "counter", "Access tokens handed out", s.metrics.tokensIssued.Load())
	writeMetric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", s.metrics.rateLimitHits.Load())
	writeMetric(w, "suspicious_requests_total", "counter", "Suspicious requests detected", s.detector.SuspiciousRequests())
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", int64(activeClients))
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.metrics.started).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
