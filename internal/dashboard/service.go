// Package dashboard serves normalized weather for the web front end, consulting
// the shared cache before calling the provider.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/lox/weather8/internal/cache"
	"github.com/lox/weather8/internal/metrics"
	"github.com/lox/weather8/internal/models"
	"github.com/lox/weather8/internal/normalize"
	"github.com/lox/weather8/internal/weatherapi"
)

// Cache key kinds.
const (
	KindCurrent  = "current"
	KindForecast = "forecast"
	KindCoords   = "coords"
	KindSearch   = "search"
)

var (
	ErrCityRequired       = errors.New("city parameter is required")
	ErrQueryRequired      = errors.New("query parameter is required")
	ErrInvalidCoordinates = errors.New("latitude must be within ±90 and longitude within ±180")
)

// Provider is the subset of weatherapi.Client the service needs.
type Provider interface {
	GetCurrentWeather(ctx context.Context, city string) (json.RawMessage, error)
	GetForecast(ctx context.Context, city string, days int) (json.RawMessage, error)
	GetWeatherByCoordinates(ctx context.Context, lat, lon float64) (json.RawMessage, error)
	SearchCities(ctx context.Context, query string) (json.RawMessage, error)
}

type Service struct {
	provider     Provider
	cache        *cache.Cache[any]
	forecastDays int
}

// NewService wires a provider to a cache. A forecastDays value outside the
// provider window is replaced with weatherapi.DefaultForecastDays.
func NewService(provider Provider, c *cache.Cache[any], forecastDays int) *Service {
	return &Service{
		provider:     provider,
		cache:        c,
		forecastDays: weatherapi.ClampDays(forecastDays),
	}
}

// Current returns current conditions for city. The bool reports a cache hit.
func (s *Service) Current(ctx context.Context, city string) (*models.WeatherRecord, bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, false, ErrCityRequired
	}
	return cached(s, KindCurrent, cache.Key(KindCurrent, city),
		func() (json.RawMessage, error) { return s.provider.GetCurrentWeather(ctx, city) },
		normalize.ToWeatherRecord,
		normalize.ValidateWeatherRecord,
	)
}

// Forecast returns the configured number of forecast days for city.
func (s *Service) Forecast(ctx context.Context, city string) (*models.ForecastRecord, bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, false, ErrCityRequired
	}
	return cached(s, KindForecast, cache.Key(KindForecast, city),
		func() (json.RawMessage, error) { return s.provider.GetForecast(ctx, city, s.forecastDays) },
		normalize.ToForecastRecord,
		normalize.ValidateForecastRecord,
	)
}

// ByCoordinates returns current conditions for a lat,lon pair.
func (s *Service) ByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherRecord, bool, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false, ErrInvalidCoordinates
	}
	return cached(s, KindCoords, cache.Key(KindCoords, weatherapi.CoordinateQuery(lat, lon)),
		func() (json.RawMessage, error) { return s.provider.GetWeatherByCoordinates(ctx, lat, lon) },
		normalize.ToWeatherRecord,
		normalize.ValidateWeatherRecord,
	)
}

// SearchCities returns locations matching query.
func (s *Service) SearchCities(ctx context.Context, query string) ([]models.City, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, ErrQueryRequired
	}
	return cached(s, KindSearch, cache.Key(KindSearch, query),
		func() (json.RawMessage, error) { return s.provider.SearchCities(ctx, query) },
		normalize.ToCities,
		nil,
	)
}

// CacheStatus reports the shared cache contents.
func (s *Service) CacheStatus() cache.Status {
	return s.cache.Status()
}

// cached serves key from the cache or fetches, decodes and stores it. Records
// that fail complete are returned but not stored, so the next request refetches.
func cached[T any](
	s *Service,
	kind, key string,
	fetch func() (json.RawMessage, error),
	decode func([]byte) (T, error),
	complete func(T) bool,
) (T, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		if rec, ok := v.(T); ok {
			metrics.CacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
			return rec, true, nil
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()

	var zero T
	raw, err := fetch()
	if err != nil {
		return zero, false, err
	}

	rec, err := decode(raw)
	if err != nil {
		return zero, false, err
	}

	if complete != nil && !complete(rec) {
		log.Printf("dashboard: incomplete %s record for %q, not caching", kind, key)
		metrics.IncompleteRecordsTotal.WithLabelValues(kind).Inc()
		return rec, false, nil
	}

	s.cache.Set(key, rec)
	metrics.CacheEntries.Set(float64(s.cache.Len()))
	return rec, false, nil
}
