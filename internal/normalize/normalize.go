// Package normalize turns raw WeatherAPI payloads into models records.
//
// Every field lookup is total: a missing or wrongly typed value becomes the
// zero value for its type ("Unknown" for condition text). Only a payload that
// is not a JSON object at all (or not an array, for search) is an error.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/lox/weather8/internal/models"
)

// UnknownCondition is used when the provider omits condition text.
const UnknownCondition = "Unknown"

var errInvalidJSON = errors.New("invalid JSON")

// DataProcessingError wraps any failure to map a payload.
type DataProcessingError struct {
	Op  string // "current weather", "forecast", "city search"
	Err error
}

func (e *DataProcessingError) Error() string {
	return fmt.Sprintf("process %s data: %v", e.Op, e.Err)
}

func (e *DataProcessingError) Unwrap() error { return e.Err }

// ToWeatherRecord maps a current.json payload.
func ToWeatherRecord(raw []byte) (*models.WeatherRecord, error) {
	root, err := parse("current weather", raw, true)
	if err != nil {
		return nil, err
	}

	current := root.Get("current")
	return &models.WeatherRecord{
		Location: location(root.Get("location")),
		Current: models.CurrentWeather{
			TemperatureC: num(current, "temp_c"),
			TemperatureF: num(current, "temp_f"),
			Condition:    str(current, "condition.text", UnknownCondition),
			Icon:         str(current, "condition.icon", ""),
			Humidity:     integer(current, "humidity"),
			WindKph:      num(current, "wind_kph"),
			WindDir:      str(current, "wind_dir", ""),
			FeelsLikeC:   num(current, "feelslike_c"),
			UV:           num(current, "uv"),
			VisibilityKm: num(current, "vis_km"),
			LastUpdated:  str(current, "last_updated", ""),
		},
		LastUpdated: str(current, "last_updated", ""),
	}, nil
}

// ToForecastRecord maps a forecast.json payload, keeping days in provider order.
func ToForecastRecord(raw []byte) (*models.ForecastRecord, error) {
	root, err := parse("forecast", raw, true)
	if err != nil {
		return nil, err
	}

	rec := &models.ForecastRecord{
		Location: location(root.Get("location")),
		Days:     []models.ForecastDay{},
	}

	days := root.Get("forecast.forecastday")
	if !days.IsArray() {
		return rec, nil
	}
	for _, d := range days.Array() {
		day := d.Get("day")
		rec.Days = append(rec.Days, models.ForecastDay{
			Date:         str(d, "date", ""),
			MaxTempC:     num(day, "maxtemp_c"),
			MinTempC:     num(day, "mintemp_c"),
			MaxTempF:     num(day, "maxtemp_f"),
			MinTempF:     num(day, "mintemp_f"),
			Condition:    str(day, "condition.text", UnknownCondition),
			Icon:         str(day, "condition.icon", ""),
			ChanceOfRain: integer(day, "daily_chance_of_rain"),
			AvgHumidity:  integer(day, "avghumidity"),
		})
	}
	return rec, nil
}

// ToCities maps a search.json payload.
func ToCities(raw []byte) ([]models.City, error) {
	root, err := parse("city search", raw, false)
	if err != nil {
		return nil, err
	}

	cities := []models.City{}
	for _, c := range root.Array() {
		cities = append(cities, models.City{
			ID:      int64(num(c, "id")),
			Name:    str(c, "name", ""),
			Region:  str(c, "region", ""),
			Country: str(c, "country", ""),
			Lat:     num(c, "lat"),
			Lon:     num(c, "lon"),
			URL:     str(c, "url", ""),
		})
	}
	return cities, nil
}

// ValidateWeatherRecord reports whether rec has a location name, a usable
// temperature and condition text.
func ValidateWeatherRecord(rec *models.WeatherRecord) bool {
	if rec == nil {
		return false
	}
	return rec.Location.Name != "" &&
		finite(rec.Current.TemperatureC) &&
		rec.Current.Condition != ""
}

// ValidateForecastRecord reports whether rec has a location name and at least
// one day, every day carrying a date, a usable temperature and condition text.
func ValidateForecastRecord(rec *models.ForecastRecord) bool {
	if rec == nil || rec.Location.Name == "" || len(rec.Days) == 0 {
		return false
	}
	for _, d := range rec.Days {
		if d.Date == "" || !finite(d.MaxTempC) || d.Condition == "" {
			return false
		}
	}
	return true
}

func location(r gjson.Result) models.Location {
	return models.Location{
		Name:      str(r, "name", ""),
		Country:   str(r, "country", ""),
		Region:    str(r, "region", ""),
		LocalTime: str(r, "localtime", ""),
	}
}

// parse checks raw is valid JSON of the expected shape.
func parse(op string, raw []byte, object bool) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &DataProcessingError{Op: op, Err: errInvalidJSON}
	}
	root := gjson.ParseBytes(raw)
	ok, want := root.IsObject(), "an object"
	if !object {
		ok, want = root.IsArray(), "an array"
	}
	if !ok {
		return gjson.Result{}, &DataProcessingError{
			Op:  op,
			Err: fmt.Errorf("payload is %s, want %s", describe(root), want),
		}
	}
	return root, nil
}

func describe(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "an object"
	case r.IsArray():
		return "an array"
	case r.Type == gjson.Null:
		return "null"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "a boolean"
	case r.Type == gjson.Number:
		return "a number"
	default:
		return "a string"
	}
}

func str(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return def
	}
	return v.Str
}

func num(r gjson.Result, path string) float64 {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return 0
	}
	return v.Num
}

func integer(r gjson.Result, path string) int {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return 0
	}
	return int(v.Int())
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
