package main

import (
	"log"

	"github.com/alecthomas/kong"

	"github.com/lox/weather8/internal/config"
)

type CLI struct {
	config.Weather `embed:""`

	Serve    ServeCmd    `cmd:"" default:"withargs" help:"Run the dashboard web server."`
	Current  CurrentCmd  `cmd:"" help:"Print current conditions for a city."`
	Forecast ForecastCmd `cmd:"" help:"Print the forecast for a city."`
	Coords   CoordsCmd   `cmd:"" help:"Print current conditions for a latitude/longitude."`
	Search   SearchCmd   `cmd:"" help:"Search for cities by name."`
	Probe    ProbeCmd    `cmd:"" help:"Check the provider is reachable with the configured key."`
	CacheKey CacheKeyCmd `cmd:"" name:"cache-key" help:"Print the cache key a request would use."`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("weather8"),
		kong.Description("Weather dashboard backed by WeatherAPI.com."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Weather))
}
