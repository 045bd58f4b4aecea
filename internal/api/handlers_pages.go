package api

import (
	"bytes"
	"log"
	"net/http"
	"strings"

	"github.com/lox/weather8/internal/probe"
)

type indexData struct {
	City      string
	Available bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := indexData{
		City:      strings.TrimSpace(r.URL.Query().Get("city")),
		Available: s.weather != nil,
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.Printf("api: render index: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

type HealthStatus struct {
	Status       string        `json:"status"`
	Service      bool          `json:"weather_service"`
	CacheEntries int           `json:"cache_entries"`
	Probe        *probe.Status `json:"probe,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "ok",
		Service: s.weather != nil,
	}

	if s.weather == nil {
		health.Status = "error"
	} else {
		health.CacheEntries = len(s.weather.CacheStatus().Entries)
	}

	if s.prober != nil {
		st := s.prober.Status()
		if !st.LastRun.IsZero() {
			health.Probe = &st
			if !st.OK && health.Status == "ok" {
				health.Status = "degraded"
			}
		}
	}

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
