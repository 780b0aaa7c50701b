package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig(retries int) Config {
	return Config{
		Timeout:         time.Second,
		MaxRetries:      retries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    2 * time.Millisecond,
		MaxConnsPerHost: 4,
	}
}

// --- Retry transport ---

func TestRetryTransport_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"q":1}`, string(body), "body must be replayed on retry")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(fastConfig(3))
	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"q":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryTransport_GivesUpAndReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := New(fastConfig(2)).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryTransport_NoRetryOnClientErrorOrNotImplemented(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusNotImplemented} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		resp, err := New(fastConfig(3)).Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		srv.Close()

		assert.Equal(t, int32(1), calls.Load(), "status %d", status)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(errors.New("plain")))
	assert.False(t, isRetryableError(fmt.Errorf("op: %w", context.Canceled)))
	assert.True(t, isRetryableError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
}

// --- Breaker transport ---

func TestBreakerTransport_OpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(strings.NewReader("")), Request: r}, nil
	})

	cfg := DefaultCircuitBreakerConfig("test-open")
	cfg.MinRequests = 2
	bt := NewBreakerTransport(next, cfg, testLogger())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "http://search/_search", nil)
		resp, err := bt.RoundTrip(req)
		require.NoError(t, err, "5xx responses reach the caller")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateOpen, bt.State())

	_, err := bt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://search/_search", nil))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerTransport_SuccessKeepsClosed(t *testing.T) {
	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody, Request: r}, nil
	})
	cfg := DefaultCircuitBreakerConfig("test-closed")
	cfg.MinRequests = 1
	bt := NewBreakerTransport(next, cfg, testLogger())

	for i := 0; i < 3; i++ {
		resp, err := bt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://search/x", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, bt.State())
}

// --- Error mapping ---

func respWith(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	t.Run("elasticsearch not found", func(t *testing.T) {
		err := ParseResponseError(respWith(404, `{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`), "search")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("envelope bad request", func(t *testing.T) {
		err := ParseResponseError(respWith(400, `{"error":{"code":"INVALID_INPUT","message":"bad sort"}}`), "catalog")
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "catalog: bad sort", appErr.Message)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		err := ParseResponseError(respWith(503, `overloaded`), "search")
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
	})

	t.Run("unmapped status", func(t *testing.T) {
		err := ParseResponseError(respWith(418, `teapot`), "search")
		assert.ErrorContains(t, err, "418")
	})
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
