package api

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/lox/weather8/internal/dashboard"
	"github.com/lox/weather8/internal/probe"
	"github.com/lox/weather8/internal/store"
)

type Server struct {
	weather *dashboard.Service
	store   *store.Store
	prober  *probe.Prober
	port    string
	tmpl    *template.Template
	limiter *rate.Limiter
}

// NewServer builds the HTTP front end. weather may be nil when the provider
// client could not be configured; weather endpoints then answer 500.
func NewServer(weather *dashboard.Service, store *store.Store, prober *probe.Prober, port string) *Server {
	return &Server{
		weather: weather,
		store:   store,
		prober:  prober,
		port:    port,
		tmpl:    newTemplates(),
	}
}

// SetRateLimit throttles /api/ requests to rps with the given burst. An rps of
// zero or less removes the limit.
func (s *Server) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/weather/current", s.handleAPICurrent)
	apiMux.HandleFunc("/api/weather/forecast", s.handleAPIForecast)
	apiMux.HandleFunc("/api/weather/coordinates", s.handleAPICoordinates)
	apiMux.HandleFunc("/api/cities/search", s.handleAPISearch)
	apiMux.HandleFunc("/api/cache/status", s.handleAPICacheStatus)
	apiMux.HandleFunc("/api/fetches", s.handleAPIFetches)
	apiMux.HandleFunc("/api/", s.handleAPINotFound)
	mux.Handle("/api/", s.rateLimit(apiMux))

	return requestID(accessLog(mux))
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
