package http

import (
	"net/http"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.tracer.Metrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_requests":      m.TotalRequests,
		"last_latency_us":     m.LastLatencyUs,
		"active_clients":      s.limiter.ActiveClients(),
		"event_subscribers":   s.vehicleFeed.Subscribers() + s.transactionFeed.Subscribers(),
		"stats_cache_entries": s.statsCache.Size(),
		"chart_cache_entries": s.chartCache.Size(),
	})
}
