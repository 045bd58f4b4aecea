package normalize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"

	"github.com/lox/weather8/internal/models"
)

const fullCurrent = `{
	"location": {"name": "Lagos", "country": "Nigeria", "region": "Lagos", "localtime": "2024-01-01 12:00"},
	"current": {
		"temp_c": 28.0, "temp_f": 82.4,
		"condition": {"text": "Sunny", "icon": "//sunny.png"},
		"humidity": 65, "wind_kph": 15.0, "wind_dir": "SW",
		"feelslike_c": 30.0, "uv": 7.0, "vis_km": 10.0,
		"last_updated": "2024-01-01 12:00"
	}
}`

const fullForecast = `{
	"location": {"name": "Lagos", "country": "Nigeria", "region": "Lagos"},
	"forecast": {"forecastday": [
		{"date": "2024-01-01", "day": {"maxtemp_c": 30.0, "mintemp_c": 22.0, "maxtemp_f": 86.0, "mintemp_f": 71.6,
			"condition": {"text": "Sunny", "icon": "//sunny.png"}, "daily_chance_of_rain": 10, "avghumidity": 60}},
		{"date": "2024-01-02", "day": {"maxtemp_c": 29.0, "mintemp_c": 23.0,
			"condition": {"text": "Patchy rain possible", "icon": "//rain.png"}, "daily_chance_of_rain": 80, "avghumidity": 78}},
		{"date": "2023-12-31", "day": {"maxtemp_c": 31.0, "condition": {"text": "Cloudy"}}}
	]}
}`

func TestToWeatherRecord_Full(t *testing.T) {
	rec, err := ToWeatherRecord([]byte(fullCurrent))
	require.NoError(t, err)

	assert.Equal(t, models.Location{Name: "Lagos", Country: "Nigeria", Region: "Lagos", LocalTime: "2024-01-01 12:00"}, rec.Location)
	assert.Equal(t, models.CurrentWeather{
		TemperatureC: 28.0,
		TemperatureF: 82.4,
		Condition:    "Sunny",
		Icon:         "//sunny.png",
		Humidity:     65,
		WindKph:      15.0,
		WindDir:      "SW",
		FeelsLikeC:   30.0,
		UV:           7.0,
		VisibilityKm: 10.0,
		LastUpdated:  "2024-01-01 12:00",
	}, rec.Current)
	assert.Equal(t, "2024-01-01 12:00", rec.LastUpdated)
	assert.True(t, ValidateWeatherRecord(rec))
}

func TestToWeatherRecord_LagosScenario(t *testing.T) {
	raw := `{"location":{"name":"Lagos","country":"Nigeria","region":"Lagos"},"current":{"temp_c":28.0,"condition":{"text":"Sunny"},"humidity":65}}`

	rec, err := ToWeatherRecord([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Lagos", rec.Location.Name)
	assert.Equal(t, 28.0, rec.Current.TemperatureC)
	assert.Equal(t, "Sunny", rec.Current.Condition)
	assert.Equal(t, 0.0, rec.Current.TemperatureF)
	assert.Equal(t, 65, rec.Current.Humidity)
	assert.Equal(t, "", rec.Location.LocalTime)
}

func TestToWeatherRecord_MissingFields(t *testing.T) {
	paths := []string{
		"current.temp_f",
		"current.humidity",
		"current.condition.icon",
		"current.wind_dir",
		"current.uv",
		"current.vis_km",
		"current.last_updated",
		"location.localtime",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			raw, err := sjson.DeleteBytes([]byte(fullCurrent), path)
			require.NoError(t, err)

			rec, err := ToWeatherRecord(raw)
			require.NoError(t, err)
			assert.Equal(t, "Lagos", rec.Location.Name)
			assert.Equal(t, 28.0, rec.Current.TemperatureC)
		})
	}
}

func TestToWeatherRecord_Totality(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"location": null, "current": null}`,
		`{"location": "Lagos", "current": 42}`,
		`{"current": {"condition": "Sunny", "temp_c": "hot", "humidity": "65"}}`,
		`{"current": {"condition": {"text": 7}}}`,
	}

	for _, p := range payloads {
		rec, err := ToWeatherRecord([]byte(p))
		require.NoError(t, err, "payload %s", p)
		assert.Equal(t, models.Location{}, rec.Location, "payload %s", p)
		assert.Equal(t, models.CurrentWeather{Condition: UnknownCondition}, rec.Current, "payload %s", p)
		assert.False(t, ValidateWeatherRecord(rec), "payload %s", p)
	}
}

func TestToWeatherRecord_WrongTypeField(t *testing.T) {
	raw, err := sjson.SetBytes([]byte(fullCurrent), "current.temp_f", "82.4")
	require.NoError(t, err)

	rec, err := ToWeatherRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Current.TemperatureF)
	assert.Equal(t, 28.0, rec.Current.TemperatureC)
}

func TestNotAnObject(t *testing.T) {
	payloads := []string{``, `not json`, `[]`, `[{"location": {}}]`, `"Lagos"`, `42`, `null`, `true`}

	for _, p := range payloads {
		_, err := ToWeatherRecord([]byte(p))
		var dpe *DataProcessingError
		require.True(t, errors.As(err, &dpe), "payload %q: %v", p, err)
		assert.Equal(t, "current weather", dpe.Op)

		_, err = ToForecastRecord([]byte(p))
		require.True(t, errors.As(err, &dpe), "payload %q: %v", p, err)
		assert.Equal(t, "forecast", dpe.Op)
	}
}

func TestToForecastRecord(t *testing.T) {
	rec, err := ToForecastRecord([]byte(fullForecast))
	require.NoError(t, err)

	assert.Equal(t, "Lagos", rec.Location.Name)
	require.Len(t, rec.Days, 3)

	// Provider order is kept even when dates are not sorted.
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2023-12-31"},
		[]string{rec.Days[0].Date, rec.Days[1].Date, rec.Days[2].Date})

	assert.Equal(t, models.ForecastDay{
		Date:         "2024-01-01",
		MaxTempC:     30.0,
		MinTempC:     22.0,
		MaxTempF:     86.0,
		MinTempF:     71.6,
		Condition:    "Sunny",
		Icon:         "//sunny.png",
		ChanceOfRain: 10,
		AvgHumidity:  60,
	}, rec.Days[0])

	assert.Equal(t, 0.0, rec.Days[1].MaxTempF)
	assert.Equal(t, 80, rec.Days[1].ChanceOfRain)
	assert.Equal(t, 0, rec.Days[2].AvgHumidity)
	assert.True(t, ValidateForecastRecord(rec))
}

func TestToForecastRecord_NoDays(t *testing.T) {
	payloads := []string{
		`{"location": {"name": "Lagos"}}`,
		`{"location": {"name": "Lagos"}, "forecast": {}}`,
		`{"location": {"name": "Lagos"}, "forecast": {"forecastday": {}}}`,
		`{"location": {"name": "Lagos"}, "forecast": {"forecastday": []}}`,
	}

	for _, p := range payloads {
		rec, err := ToForecastRecord([]byte(p))
		require.NoError(t, err, "payload %s", p)
		assert.NotNil(t, rec.Days)
		assert.Empty(t, rec.Days)
		assert.False(t, ValidateForecastRecord(rec))
	}
}

func TestToForecastRecord_MalformedDay(t *testing.T) {
	rec, err := ToForecastRecord([]byte(`{"location": {"name": "Lagos"}, "forecast": {"forecastday": [42, {"date": "2024-01-01"}]}}`))
	require.NoError(t, err)
	require.Len(t, rec.Days, 2)
	assert.Equal(t, models.ForecastDay{Condition: UnknownCondition}, rec.Days[0])
	assert.Equal(t, "2024-01-01", rec.Days[1].Date)
	assert.False(t, ValidateForecastRecord(rec))
}

func TestToCities(t *testing.T) {
	raw := `[
		{"id": 2801268, "name": "London", "region": "City of London, Greater London", "country": "United Kingdom", "lat": 51.52, "lon": -0.11, "url": "london-city-of-london-greater-london-united-kingdom"},
		{"name": "Londrina"}
	]`

	cities, err := ToCities([]byte(raw))
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, int64(2801268), cities[0].ID)
	assert.Equal(t, 51.52, cities[0].Lat)
	assert.Equal(t, "Londrina", cities[1].Name)
	assert.Equal(t, "", cities[1].Country)

	empty, err := ToCities([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, err = ToCities([]byte(`{"error": {}}`))
	var dpe *DataProcessingError
	assert.ErrorAs(t, err, &dpe)
}

func TestValidateWeatherRecord(t *testing.T) {
	valid := models.WeatherRecord{
		Location: models.Location{Name: "Lagos"},
		Current:  models.CurrentWeather{TemperatureC: 28, Condition: "Sunny"},
	}

	tests := []struct {
		name   string
		modify func(r *models.WeatherRecord)
		want   bool
	}{
		{"complete", func(r *models.WeatherRecord) {}, true},
		{"zero temperature is present", func(r *models.WeatherRecord) { r.Current.TemperatureC = 0 }, true},
		{"no location name", func(r *models.WeatherRecord) { r.Location.Name = "" }, false},
		{"no condition", func(r *models.WeatherRecord) { r.Current.Condition = "" }, false},
		{"NaN temperature", func(r *models.WeatherRecord) { r.Current.TemperatureC = math.NaN() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.modify(&rec)
			assert.Equal(t, tt.want, ValidateWeatherRecord(&rec))
		})
	}

	assert.False(t, ValidateWeatherRecord(nil))
}

func TestValidateForecastRecord(t *testing.T) {
	day := models.ForecastDay{Date: "2024-01-01", MaxTempC: 30, Condition: "Sunny"}

	tests := []struct {
		name string
		rec  *models.ForecastRecord
		want bool
	}{
		{"nil", nil, false},
		{"complete", &models.ForecastRecord{Location: models.Location{Name: "Lagos"}, Days: []models.ForecastDay{day, day}}, true},
		{"no days", &models.ForecastRecord{Location: models.Location{Name: "Lagos"}}, false},
		{"no name", &models.ForecastRecord{Days: []models.ForecastDay{day}}, false},
		{"day without date", &models.ForecastRecord{Location: models.Location{Name: "Lagos"}, Days: []models.ForecastDay{day, {MaxTempC: 1, Condition: "Sunny"}}}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateForecastRecord(tt.rec), tt.name)
	}
}
