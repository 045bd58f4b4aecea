package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/lox/weather8/internal/httputil"
	"github.com/lox/weather8/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.weatherapi.com/v1"

	// ReferenceCity is queried by Ping and TestConnection.
	ReferenceCity = "London"

	MinForecastDays     = 1
	MaxForecastDays     = 10
	DefaultForecastDays = 5

	cityNotFoundPhrase = "No matching location found"

	endpointCurrent  = "current.json"
	endpointForecast = "forecast.json"
	endpointSearch   = "search.json"
)

// Config holds the provider credentials and endpoint.
type Config struct {
	APIKey  string        `validate:"required"`
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// FetchResult describes one provider call for auditing.
type FetchResult struct {
	Endpoint     string
	Query        string
	HTTPStatus   int
	ResponseSize int
	Duration     time.Duration
	Err          error
}

// Client talks to WeatherAPI.com. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	observer   func(FetchResult)
}

type Option func(*Client)

// WithHTTPClient replaces the default client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver registers fn to be called after every provider call.
func WithObserver(fn func(FetchResult)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// New validates cfg and returns a Client. A missing key or base URL is a
// KindConfiguration error.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, configError(err)
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httputil.NewClient(cfg.Timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func configError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindConfiguration, Message: "invalid configuration", Err: err}
	}

	var problems []string
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "required":
			problems = append(problems, "missing "+fieldName(fe.Field()))
		default:
			problems = append(problems, "invalid "+fieldName(fe.Field()))
		}
	}
	return &Error{Kind: KindConfiguration, Message: strings.Join(problems, ", ")}
}

func fieldName(field string) string {
	switch field {
	case "APIKey":
		return "api key"
	case "BaseURL":
		return "base url"
	default:
		return strings.ToLower(field)
	}
}

// GetCurrentWeather returns the raw current conditions payload for city.
func (c *Client) GetCurrentWeather(ctx context.Context, city string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("aqi", "no")
	return c.do(ctx, endpointCurrent, params)
}

// GetForecast returns the raw forecast payload. days outside
// [MinForecastDays, MaxForecastDays] is replaced by DefaultForecastDays.
func (c *Client) GetForecast(ctx context.Context, city string, days int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("days", strconv.Itoa(ClampDays(days)))
	params.Set("aqi", "no")
	params.Set("alerts", "no")
	return c.do(ctx, endpointForecast, params)
}

// GetWeatherByCoordinates returns current conditions for a lat,lon pair.
func (c *Client) GetWeatherByCoordinates(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", CoordinateQuery(lat, lon))
	params.Set("aqi", "no")
	return c.do(ctx, endpointCurrent, params)
}

// SearchCities returns the raw list of locations matching query.
func (c *Client) SearchCities(ctx context.Context, query string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", query)
	return c.do(ctx, endpointSearch, params)
}

// Ping fetches current conditions for ReferenceCity and returns the classified error, if any.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetCurrentWeather(ctx, ReferenceCity)
	return err
}

// TestConnection reports whether the provider answered a known-good request.
func (c *Client) TestConnection(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

// ClampDays maps an out of range day count to DefaultForecastDays.
func ClampDays(days int) int {
	if days < MinForecastDays || days > MaxForecastDays {
		return DefaultForecastDays
	}
	return days
}

// CoordinateQuery formats a coordinate pair as the provider's "lat,lon" query.
func CoordinateQuery(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	start := time.Now()
	result := FetchResult{
		Endpoint: endpoint,
		Query:    params.Get("q"),
	}

	body, status, err := c.fetch(ctx, endpoint, params)

	result.HTTPStatus = status
	result.ResponseSize = len(body)
	result.Duration = time.Since(start)
	result.Err = err

	outcome := "ok"
	if kind, ok := KindOf(err); ok {
		outcome = kind.String()
	}
	metrics.ProviderCallsTotal.WithLabelValues(endpoint, outcome).Inc()
	metrics.ProviderLatency.WithLabelValues(endpoint).Observe(result.Duration.Seconds())

	if c.observer != nil {
		c.observer(result)
	}

	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, int, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", c.apiKey)

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, transportError(err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the key.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.baseURL + "/" + endpoint
		}
		return nil, 0, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, transportError(err)
	}

	if err := statusError(resp.StatusCode, body); err != nil {
		return body, resp.StatusCode, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return body, resp.StatusCode, &Error{Kind: KindAPI, Message: "invalid JSON response", Err: err}
	}
	return raw, resp.StatusCode, nil
}

// statusError maps a non-200 status to the error taxonomy.
func statusError(status int, body []byte) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		msg := "Bad request"
		if m := gjson.GetBytes(body, "error.message"); m.Type == gjson.String {
			msg = m.Str
		}
		if strings.Contains(msg, cityNotFoundPhrase) {
			return &Error{Kind: KindCityNotFound, StatusCode: status, Message: msg}
		}
		return &Error{Kind: KindAPI, StatusCode: status, Message: "bad request: " + msg}
	case http.StatusUnauthorized:
		return &Error{Kind: KindAPIKey, StatusCode: status, Message: "invalid API key"}
	case http.StatusForbidden:
		return &Error{Kind: KindAPIKey, StatusCode: status, Message: "API key quota exceeded or access denied"}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindAPI, StatusCode: status, Message: "rate limit exceeded"}
	default:
		return &Error{Kind: KindAPI, StatusCode: status, Message: "API request failed"}
	}
}

// transportError classifies a failure that happened before a status was read.
func transportError(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindNetwork, Message: "request timed out", Err: err}
	case isConnectError(err):
		return &Error{Kind: KindNetwork, Message: "unable to connect to weather service", Err: err}
	default:
		return &Error{Kind: KindNetwork, Message: "network error", Err: err}
	}
}

func isConnectError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
