package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/pmkscan/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the /healthz response body.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Interface string `json:"interface,omitempty"`
	Uptime    string `json:"uptime"`
}

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/cache", s.handleCache).Methods(http.MethodGet)
	r.HandleFunc("/api/cache/{bssid}", s.handleCacheEntry).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{
		Status:  "ok",
		Service: telemetry.ServiceName,
		Version: telemetry.ServiceVersion,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if s.State != nil {
		h.Interface = s.State.Interface()
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	cache := map[string]string{}
	if s.State != nil {
		cache = s.State.Cache(r.Context())
	}
	writeJSON(w, http.StatusOK, cache)
}

func (s *Server) handleCacheEntry(w http.ResponseWriter, r *http.Request) {
	bssid := mux.Vars(r)["bssid"]
	if s.State == nil {
		http.Error(w, "no active scanner", http.StatusNotFound)
		return
	}
	ssid, ok := s.State.Cache(r.Context())[bssid]
	if !ok {
		http.Error(w, "bssid not observed", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"bssid": bssid, "ssid": ssid})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write JSON response", "error", err)
	}
}
