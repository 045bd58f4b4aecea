package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lox/weather8/internal/dashboard"
	"github.com/lox/weather8/internal/normalize"
	"github.com/lox/weather8/internal/store"
	"github.com/lox/weather8/internal/weatherapi"
)

const (
	msgUnavailable  = "Weather service is not available"
	msgUnexpected   = "An unexpected error occurred. Please try again."
	msgAuth         = "Weather service authentication error. Please try again later."
	msgNetwork      = "Unable to connect to weather service. Please check your internet connection."
	fetchListLimit  = 50
	maxFetchListLen = 500
)

type response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Cached  bool `json:"cached"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any, cached bool) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: data, Cached: cached})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeWeatherError maps a dashboard failure onto a status and a message fit
// for end users. subject names what was requested, e.g. "City 'Lagos'".
func writeWeatherError(w http.ResponseWriter, r *http.Request, subject string, err error) {
	var dpe *normalize.DataProcessingError
	var apiErr *weatherapi.Error

	switch {
	case errors.Is(err, dashboard.ErrCityRequired):
		writeError(w, http.StatusBadRequest, "City parameter is required")
	case errors.Is(err, dashboard.ErrQueryRequired):
		writeError(w, http.StatusBadRequest, "Query parameter is required")
	case errors.Is(err, dashboard.ErrInvalidCoordinates):
		writeError(w, http.StatusBadRequest, "Invalid coordinates: "+err.Error())
	case errors.Is(err, weatherapi.ErrCityNotFound):
		writeError(w, http.StatusNotFound, subject+" not found. Please check the spelling and try again.")
	case errors.Is(err, weatherapi.ErrAPIKey):
		writeError(w, http.StatusUnauthorized, msgAuth)
	case errors.Is(err, weatherapi.ErrNetwork):
		writeError(w, http.StatusServiceUnavailable, msgNetwork)
	case errors.As(err, &dpe):
		log.Printf("api: %s %s: %v id=%s", r.Method, r.URL.Path, err, RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgUnexpected)
	case errors.As(err, &apiErr):
		writeError(w, http.StatusInternalServerError, "Weather service error: "+apiErr.Message)
	default:
		log.Printf("api: %s %s: unexpected error: %v id=%s", r.Method, r.URL.Path, err, RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgUnexpected)
	}
}

func (s *Server) available(w http.ResponseWriter) bool {
	if s.weather == nil {
		writeError(w, http.StatusInternalServerError, msgUnavailable)
		return false
	}
	return true
}

func (s *Server) handleAPICurrent(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "City parameter is required")
		return
	}
	if !s.available(w) {
		return
	}
	rec, cached, err := s.weather.Current(r.Context(), city)
	if err != nil {
		writeWeatherError(w, r, fmt.Sprintf("City '%s'", city), err)
		return
	}
	writeData(w, rec, cached)
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "City parameter is required")
		return
	}
	if !s.available(w) {
		return
	}
	rec, cached, err := s.weather.Forecast(r.Context(), city)
	if err != nil {
		writeWeatherError(w, r, fmt.Sprintf("City '%s'", city), err)
		return
	}
	writeData(w, rec, cached)
}

func (s *Server) handleAPICoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		writeError(w, http.StatusBadRequest, "lat and lon parameters must be numbers")
		return
	}
	if !s.available(w) {
		return
	}
	rec, cached, err := s.weather.ByCoordinates(r.Context(), lat, lon)
	if err != nil {
		writeWeatherError(w, r, "Location "+weatherapi.CoordinateQuery(lat, lon), err)
		return
	}
	writeData(w, rec, cached)
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	if !s.available(w) {
		return
	}
	cities, cached, err := s.weather.SearchCities(r.Context(), query)
	if err != nil {
		writeWeatherError(w, r, fmt.Sprintf("City '%s'", query), err)
		return
	}
	writeData(w, cities, cached)
}

type cacheEntryInfo struct {
	Timestamp  string  `json:"timestamp"`
	Valid      bool    `json:"valid"`
	AgeMinutes float64 `json:"age_minutes"`
}

type cacheStatusResponse struct {
	Entries         int                       `json:"cache_entries"`
	Details         map[string]cacheEntryInfo `json:"cache_details"`
	DurationMinutes float64                   `json:"cache_duration_minutes"`
}

func (s *Server) handleAPICacheStatus(w http.ResponseWriter, r *http.Request) {
	if !s.available(w) {
		return
	}
	st := s.weather.CacheStatus()
	resp := cacheStatusResponse{
		Entries:         len(st.Entries),
		Details:         make(map[string]cacheEntryInfo, len(st.Entries)),
		DurationMinutes: st.TTL.Minutes(),
	}
	for _, e := range st.Entries {
		resp.Details[e.Key] = cacheEntryInfo{
			Timestamp:  e.StoredAt.Format(time.RFC3339),
			Valid:      e.Valid,
			AgeMinutes: e.Age.Minutes(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type fetchRunView struct {
	StartedAt    time.Time `json:"started_at"`
	Endpoint     string    `json:"endpoint"`
	Query        string    `json:"query"`
	HTTPStatus   *int64    `json:"http_status"`
	DurationMS   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

type fetchSummaryView struct {
	Endpoint      string  `json:"endpoint"`
	TotalRuns     int     `json:"total_runs"`
	FailedRuns    int     `json:"failed_runs"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	LastStartedAt string  `json:"last_started_at,omitempty"`
}

type fetchesResponse struct {
	Runs      []fetchRunView     `json:"runs"`
	Summaries []fetchSummaryView `json:"summaries"`
}

func (s *Server) handleAPIFetches(w http.ResponseWriter, r *http.Request) {
	resp := fetchesResponse{Runs: []fetchRunView{}, Summaries: []fetchSummaryView{}}
	if s.store == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	limit := fetchListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxFetchListLen)
	}

	runs, err := s.store.RecentFetchRuns(limit)
	if err != nil {
		log.Printf("api: recent fetch runs: %v", err)
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}
	summaries, err := s.store.FetchSummaries()
	if err != nil {
		log.Printf("api: fetch summaries: %v", err)
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	for _, run := range runs {
		resp.Runs = append(resp.Runs, toFetchRunView(run))
	}
	for _, sum := range summaries {
		resp.Summaries = append(resp.Summaries, fetchSummaryView{
			Endpoint:      sum.Endpoint,
			TotalRuns:     sum.TotalRuns,
			FailedRuns:    sum.FailedRuns,
			AvgDurationMS: sum.AvgDurationMS,
			LastStartedAt: sum.LastStartedAt.String,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toFetchRunView(run store.FetchRun) fetchRunView {
	v := fetchRunView{
		StartedAt:    run.StartedAt,
		Endpoint:     run.Endpoint,
		Query:        run.Query,
		DurationMS:   run.DurationMS,
		Success:      run.Success,
		ErrorKind:    run.ErrorKind.String,
		ErrorMessage: run.ErrorMessage.String,
	}
	if run.HTTPStatus.Valid {
		status := run.HTTPStatus.Int64
		v.HTTPStatus = &status
	}
	return v
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
