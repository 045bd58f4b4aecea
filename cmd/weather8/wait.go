package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/weather8/internal/probe"
	"github.com/lox/weather8/internal/weatherapi"
)

// waitForProvider pings until it succeeds or maxElapsed passes. Errors that
// retrying cannot fix stop immediately.
func waitForProvider(ctx context.Context, p probe.Pinger, maxElapsed time.Duration) error {
	return waitForProviderWith(ctx, p, newBackOff(maxElapsed))
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return bo
}

func waitForProviderWith(ctx context.Context, p probe.Pinger, bo backoff.BackOff) error {
	operation := func() error {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		log.Printf("probe: %v, retrying in %s", err, next.Round(time.Millisecond))
	}
	return backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify)
}

func permanent(err error) bool {
	return errors.Is(err, weatherapi.ErrAPIKey) ||
		errors.Is(err, weatherapi.ErrCityNotFound) ||
		errors.Is(err, weatherapi.ErrConfiguration)
}
