package govtravel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSettings returns fast settings for local test servers
func testSettings() Settings {
	settings := DefaultSettings()
	settings.Timeout = 5 * time.Second
	settings.Retries = 2
	settings.BackoffStep = time.Millisecond

	return settings
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("page fetched", func(t *testing.T) {
		t.Parallel()

		var userAgent atomic.Value

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent.Store(r.Header.Get("User-Agent"))

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body><table></table></body></html>"))
		}))
		t.Cleanup(server.Close)

		page, err := NewFetcher(testSettings()).Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "<html><body><table></table></body></html>", page)
		assert.Equal(t, DefaultUserAgent, userAgent.Load())
	})

	t.Run("page decoded to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>Montr\xe9al</p>"))
		}))
		t.Cleanup(server.Close)

		page, err := NewFetcher(testSettings()).Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "<p>Montréal</p>", page)
	})

	t.Run("transient statuses retried", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			_, _ = w.Write([]byte("ok"))
		}))
		t.Cleanup(server.Close)

		page, err := NewFetcher(testSettings()).Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "ok", page)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)

			w.WriteHeader(http.StatusTooManyRequests)
		}))
		t.Cleanup(server.Close)

		settings := testSettings()
		settings.Retries = 1

		_, err := NewFetcher(settings).Fetch(context.Background(), server.URL)

		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("permanent status", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)

			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(server.Close)

		_, err := NewFetcher(testSettings()).Fetch(context.Background(), server.URL)

		assert.ErrorIs(t, err, ErrPermanentStatus)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("connection errors retried", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL

		// Nothing listens on the address anymore
		server.Close()

		_, err := NewFetcher(testSettings()).Fetch(context.Background(), url)

		assert.ErrorIs(t, err, ErrRetriesExhausted)
	})

	t.Run("ctx canceled", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(server.Close)

		settings := testSettings()
		settings.BackoffStep = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		t.Cleanup(cancel)

		_, err := NewFetcher(settings).Fetch(ctx, server.URL)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestFetcher_isTransientStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{429, 500, 502, 503, 504} {
		assert.True(t, isTransientStatus(status), "status %d", status)
	}

	for _, status := range []int{200, 400, 403, 404, 501} {
		assert.False(t, isTransientStatus(status), "status %d", status)
	}
}
