package models

// Location identifies the place a record describes.
type Location struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	LocalTime string `json:"local_time"`
}

type CurrentWeather struct {
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition"`
	Icon         string  `json:"icon"`
	Humidity     int     `json:"humidity"` // percent, 0-100
	WindKph      float64 `json:"wind_kph"`
	WindDir      string  `json:"wind_dir"`
	FeelsLikeC   float64 `json:"feels_like_c"`
	UV           float64 `json:"uv"`
	VisibilityKm float64 `json:"visibility_km"`
	LastUpdated  string  `json:"last_updated"`
}

type ForecastDay struct {
	Date         string  `json:"date"`
	MaxTempC     float64 `json:"max_temp_c"`
	MinTempC     float64 `json:"min_temp_c"`
	MaxTempF     float64 `json:"max_temp_f"`
	MinTempF     float64 `json:"min_temp_f"`
	Condition    string  `json:"condition"`
	Icon         string  `json:"icon"`
	ChanceOfRain int     `json:"chance_of_rain"`
	AvgHumidity  int     `json:"avg_humidity"`
}

// WeatherRecord is the normalized current conditions for one location.
type WeatherRecord struct {
	Location    Location       `json:"location"`
	Current     CurrentWeather `json:"current"`
	LastUpdated string         `json:"last_updated"`
}

// ForecastRecord holds forecast days in provider order.
type ForecastRecord struct {
	Location Location      `json:"location"`
	Days     []ForecastDay `json:"forecast"`
}

// City is a single match from a city name search.
type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	URL     string  `json:"url"`
}
