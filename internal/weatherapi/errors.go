package weatherapi

import (
	"errors"
	"fmt"
)

// Kind classifies a client failure so callers can choose what to tell the user.
type Kind int

const (
	// KindAPI is the catch-all for unexpected statuses and malformed bodies.
	KindAPI Kind = iota
	// KindConfiguration means the client could not be constructed.
	KindConfiguration
	// KindNetwork covers transport failures: refused connections, DNS, timeouts.
	KindNetwork
	// KindCityNotFound means the provider could not resolve the query.
	KindCityNotFound
	// KindAPIKey means the key is invalid, over quota or denied.
	KindAPIKey
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNetwork:
		return "network"
	case KindCityNotFound:
		return "city_not_found"
	case KindAPIKey:
		return "api_key"
	default:
		return "api"
	}
}

// Sentinels for errors.Is. Every *Error matches exactly one of these.
var (
	ErrConfiguration = errors.New("weatherapi: configuration error")
	ErrNetwork       = errors.New("weatherapi: network error")
	ErrCityNotFound  = errors.New("weatherapi: city not found")
	ErrAPIKey        = errors.New("weatherapi: api key error")
	ErrAPI           = errors.New("weatherapi: api error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindNetwork:
		return ErrNetwork
	case KindCityNotFound:
		return ErrCityNotFound
	case KindAPIKey:
		return ErrAPIKey
	default:
		return ErrAPI
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 when no response was received
	Message    string // provider message or a short description of the failure
	Err        error  // underlying transport or decode error, if any
}

func (e *Error) Error() string {
	msg := "weatherapi: " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf reports the Kind of err if it is, or wraps, an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindAPI, false
}
