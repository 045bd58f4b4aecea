// Package config holds the command-line and environment settings shared by
// the weather8 commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/lox/weather8/internal/cache"
	"github.com/lox/weather8/internal/weatherapi"
)

// Weather configures the provider client.
type Weather struct {
	APIKey  string        `name:"api-key" env:"WEATHER_API_KEY" help:"WeatherAPI.com API key."`
	BaseURL string        `name:"base-url" env:"WEATHER_API_BASE_URL" default:"https://api.weatherapi.com/v1" help:"Provider base URL."`
	Timeout time.Duration `name:"timeout" env:"WEATHER_API_TIMEOUT" default:"10s" help:"Per-request timeout."`
}

func (w Weather) ClientConfig() weatherapi.Config {
	return weatherapi.Config{
		APIKey:  strings.TrimSpace(w.APIKey),
		BaseURL: strings.TrimSpace(w.BaseURL),
		Timeout: w.Timeout,
	}
}

// Server configures the dashboard process.
type Server struct {
	Port          string        `name:"port" env:"PORT" default:"5000" help:"HTTP listen port." validate:"required,numeric"`
	CacheTTL      time.Duration `name:"cache-ttl" env:"CACHE_TTL" default:"10m" help:"How long responses stay fresh." validate:"gte=0"`
	ForecastDays  int           `name:"forecast-days" env:"FORECAST_DAYS" default:"5" help:"Days requested for the forecast panel (1-10)."`
	ProbeInterval time.Duration `name:"probe-interval" env:"PROBE_INTERVAL" default:"5m" help:"Provider health check interval, 0 disables." validate:"gte=0"`
	RateLimit     float64       `name:"rate-limit" env:"RATE_LIMIT" default:"0" help:"API requests per second, 0 disables." validate:"gte=0"`
	RateBurst     int           `name:"rate-burst" env:"RATE_BURST" default:"10" help:"API burst size." validate:"gte=0"`
}

var validate = validator.New()

// Check reports out-of-range settings.
func (s *Server) Check() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s", strings.ToLower(fe.Field())))
		}
		return errors.New(strings.Join(msgs, ", "))
	}
	return nil
}

// EffectiveCacheTTL is the TTL the cache will actually use.
func (s *Server) EffectiveCacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return cache.DefaultTTL
	}
	return s.CacheTTL
}

// LoadDotEnv loads variables from the given files, or ./.env when none are
// named. Variables already set in the environment win. A missing default
// file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) > 0 {
		return godotenv.Load(paths...)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
