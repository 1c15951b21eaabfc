package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	SchemeHttps = "https"

	defaultTimeout           = time.Second * 30
	defaultRequestsPerMinute = 60
	consecutiveFailuresTrip  = 3
	breakerOpenFor           = time.Minute
	maxErrorBodyBytes        = 512
)

// Connection performs a GET against endpoint, filling in scheme and host
type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

// StatusError is a feed answering with anything but 200
type StatusError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsUpstream tells whether err came from a feed, either a bad status or an open breaker
func IsUpstream(err error) bool {
	var se *StatusError
	return errors.As(err, &se) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

type ClientOptions struct {
	Name              string
	Scheme            string
	Host              string
	Timeout           time.Duration
	RequestsPerMinute int
}

type ClientHost struct {
	client  *http.Client
	scheme  string
	host    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

type Client struct {
	Connection Connection
	ApiKey     string
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	if err := conn.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	target := *endpoint
	target.Scheme = conn.scheme
	target.Host = conn.host

	res, err := conn.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("error building request: %w", err)
		}

		response, err := conn.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error requesting %s: %w", target.Path, err)
		}

		if response.StatusCode != http.StatusOK {
			defer response.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
			return nil, &StatusError{
				StatusCode: response.StatusCode,
				Endpoint:   target.Path,
				Body:       string(body),
			}
		}

		return response, nil
	})
	if err != nil {
		return nil, err
	}

	return res.(*http.Response), nil
}

func ClientFactory(opts ClientOptions, apiKey string) *Client {
	if opts.Scheme == "" {
		opts.Scheme = SchemeHttps
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = defaultRequestsPerMinute
	}

	clientHost := &ClientHost{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		scheme:  opts.Scheme,
		host:    opts.Host,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		breaker: newBreaker(opts.Name),
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailuresTrip
		},
		// client errors are the caller's fault and say nothing about the feed's health
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("feed", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}
