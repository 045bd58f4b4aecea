package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lox/weather8/internal/api"
	"github.com/lox/weather8/internal/cache"
	"github.com/lox/weather8/internal/config"
	"github.com/lox/weather8/internal/dashboard"
	"github.com/lox/weather8/internal/normalize"
	"github.com/lox/weather8/internal/probe"
	"github.com/lox/weather8/internal/store"
	"github.com/lox/weather8/internal/weatherapi"
)

type ServeCmd struct {
	config.Server `embed:""`
}

func (c *ServeCmd) Run(w *config.Weather) error {
	if err := c.Server.Check(); err != nil {
		return err
	}

	db, err := store.OpenMemory()
	if err != nil {
		return fmt.Errorf("open fetch log: %w", err)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if days := weatherapi.ClampDays(c.ForecastDays); days != c.ForecastDays {
		log.Printf("serve: forecast days %d out of range, using %d", c.ForecastDays, days)
	}

	var (
		svc    *dashboard.Service
		prober *probe.Prober
	)
	client, err := weatherapi.New(w.ClientConfig(), weatherapi.WithObserver(st.RecordFetch))
	if err != nil {
		log.Printf("serve: weather service disabled: %v", err)
	} else {
		svc = dashboard.NewService(client, cache.New[any](c.EffectiveCacheTTL()), c.ForecastDays)
		prober = probe.New(client, c.ProbeInterval)
		if err := prober.Start(); err != nil {
			return fmt.Errorf("start probe: %w", err)
		}
		defer prober.Stop()
	}

	server := api.NewServer(svc, st, prober, c.Port)
	server.SetRateLimit(c.RateLimit, c.RateBurst)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s (cache ttl %s)", c.Port, c.EffectiveCacheTTL())
	return server.Run(ctx)
}

type CurrentCmd struct {
	City string `arg:"" help:"City name."`
}

func (c *CurrentCmd) Run(w *config.Weather) error {
	client, err := weatherapi.New(w.ClientConfig())
	if err != nil {
		return err
	}
	raw, err := client.GetCurrentWeather(context.Background(), c.City)
	if err != nil {
		return err
	}
	rec, err := normalize.ToWeatherRecord(raw)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

type ForecastCmd struct {
	City string `arg:"" help:"City name."`
	Days int    `default:"5" help:"Number of days (1-10, others fall back to 5)."`
}

func (c *ForecastCmd) Run(w *config.Weather) error {
	client, err := weatherapi.New(w.ClientConfig())
	if err != nil {
		return err
	}
	raw, err := client.GetForecast(context.Background(), c.City, c.Days)
	if err != nil {
		return err
	}
	rec, err := normalize.ToForecastRecord(raw)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

type CoordsCmd struct {
	Lat float64 `arg:"" help:"Latitude. Put -- before negative values."`
	Lon float64 `arg:"" help:"Longitude."`
}

func (c *CoordsCmd) Run(w *config.Weather) error {
	client, err := weatherapi.New(w.ClientConfig())
	if err != nil {
		return err
	}
	raw, err := client.GetWeatherByCoordinates(context.Background(), c.Lat, c.Lon)
	if err != nil {
		return err
	}
	rec, err := normalize.ToWeatherRecord(raw)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

type SearchCmd struct {
	Query string `arg:"" help:"Partial city name."`
}

func (c *SearchCmd) Run(w *config.Weather) error {
	client, err := weatherapi.New(w.ClientConfig())
	if err != nil {
		return err
	}
	raw, err := client.SearchCities(context.Background(), c.Query)
	if err != nil {
		return err
	}
	cities, err := normalize.ToCities(raw)
	if err != nil {
		return err
	}
	return printJSON(cities)
}

type ProbeCmd struct {
	Wait    bool          `help:"Retry transient failures until the provider answers."`
	MaxWait time.Duration `default:"2m" help:"Give up waiting after this long."`
}

func (c *ProbeCmd) Run(w *config.Weather) error {
	client, err := weatherapi.New(w.ClientConfig())
	if err != nil {
		return err
	}

	ctx := context.Background()
	if c.Wait {
		err = waitForProvider(ctx, client, c.MaxWait)
	} else {
		err = client.Ping(ctx)
	}
	if err != nil {
		kind, _ := weatherapi.KindOf(err)
		return fmt.Errorf("provider check failed (%s): %w", kind, err)
	}
	fmt.Println("ok")
	return nil
}

type CacheKeyCmd struct {
	Kind string `arg:"" enum:"current,forecast,coords,search" help:"Request kind: current, forecast, coords or search."`
	City string `arg:"" help:"City, lat,lon pair or search query."`
}

func (c *CacheKeyCmd) Run() error {
	fmt.Println(cache.Key(c.Kind, c.City))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
