package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
)

func testClient(t *testing.T, server *httptest.Server, requestsPerMinute int) *Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	return ClientFactory(ClientOptions{
		Name:              t.Name(),
		Scheme:            u.Scheme,
		Host:              u.Host,
		RequestsPerMinute: requestsPerMinute,
	}, "test-key")
}

func Test_Connection_FillsSchemeAndHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex.AssertAreEqual(t, "path", "/query", r.URL.Path)
		ex.AssertAreEqual(t, "symbol", "IBM", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := testClient(t, server, 60_000)
	endpoint := &url.URL{Path: "query", RawQuery: "symbol=IBM"}

	res, err := c.Connection.Request(context.Background(), endpoint)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "body", "ok", string(body))

	// the caller's url is left untouched
	ex.AssertAreEqual(t, "scheme", "", endpoint.Scheme)
}

func Test_Connection_NonOkIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := testClient(t, server, 60_000)
	_, err := c.Connection.Request(context.Background(), &url.URL{Path: "/svc/search"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	ex.AssertAreEqual(t, "status", http.StatusUnauthorized, se.StatusCode)
	ex.AssertAreEqual(t, "endpoint", "/svc/search", se.Endpoint)
	assert.True(t, strings.Contains(se.Body, "bad api key"))
	assert.True(t, IsUpstream(err))
}

func Test_Connection_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(t, server, 60_000)
	for range consecutiveFailuresTrip {
		_, err := c.Connection.Request(context.Background(), &url.URL{Path: "/"})
		require.Error(t, err)
	}

	_, err := c.Connection.Request(context.Background(), &url.URL{Path: "/"})
	require.True(t, errors.Is(err, gobreaker.ErrOpenState), "expected open breaker, got %v", err)
	ex.AssertAreEqual(t, "hits", int32(consecutiveFailuresTrip), hits.Load())
	assert.True(t, IsUpstream(err))
}

func Test_Connection_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := testClient(t, server, 60_000)
	for range consecutiveFailuresTrip + 2 {
		_, err := c.Connection.Request(context.Background(), &url.URL{Path: "/"})
		var se *StatusError
		require.ErrorAs(t, err, &se)
	}
	ex.AssertAreEqual(t, "hits", int32(consecutiveFailuresTrip+2), hits.Load())
}

func Test_Connection_RateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// one request a minute, the second must wait far longer than the deadline
	c := testClient(t, server, 1)

	res, err := c.Connection.Request(context.Background(), &url.URL{Path: "/"})
	require.NoError(t, err)
	res.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Connection.Request(ctx, &url.URL{Path: "/"})
	require.Error(t, err)
	assert.False(t, IsUpstream(err))
}
