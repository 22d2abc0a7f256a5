package govtravel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

var (
	// ErrPermanentStatus is returned for error statuses that are not worth retrying
	ErrPermanentStatus = errors.New("permanent status")

	// ErrRetriesExhausted is returned when every fetch attempt failed transiently
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// PageFetcher fetches the raw markup of a single page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type FetcherOption func(f *Fetcher)

// WithFetcherLogger specifies the logger for the fetcher
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// Fetcher is the polite page fetcher. Page fetches are spaced out
// by the configured pause, and transient failures are retried
// with a linearly increasing backoff
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	retries int
	step    time.Duration
}

// NewFetcher creates a new page fetcher from the scrape settings
func NewFetcher(settings Settings, opts ...FetcherOption) *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", settings.UserAgent)
	client.SetTimeout(settings.Timeout)

	limit := rate.Inf
	if settings.Pause > 0 {
		limit = rate.Every(settings.Pause)
	}

	f := &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		retries: max(settings.Retries, 0),
		step:    settings.BackoffStep,
	}

	// Apply the options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch fetches the page markup, decoded to UTF-8
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	// Politeness delay between successive pages
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("unable to wait for fetch slot: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * f.step

			f.logger.Warn(
				"retrying page fetch",
				"url", url,
				"attempt", attempt,
				"wait", wait.String(),
				"err", lastErr,
			)

			if !sleepCtx(ctx, wait) {
				return "", ctx.Err()
			}
		}

		res, err := f.client.R().
			SetContext(ctx).
			Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			// Network error or timeout
			lastErr = err

			continue
		}

		status := res.StatusCode()

		switch {
		case isTransientStatus(status):
			lastErr = fmt.Errorf("transient status %d", status)

			continue
		case status >= http.StatusBadRequest:
			return "", fmt.Errorf("%w: %d for %s", ErrPermanentStatus, status, url)
		}

		page, err := decodePage(res)
		if err != nil {
			return "", fmt.Errorf("unable to decode page %s: %w", url, err)
		}

		f.logger.Debug(
			"fetched page",
			"url", url,
			"status", status,
			"size", len(page),
		)

		return page, nil
	}

	return "", fmt.Errorf("%w for %s: %w", ErrRetriesExhausted, url, lastErr)
}

// isTransientStatus returns a flag indicating if the status is worth a retry
func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// decodePage converts the response body to UTF-8,
// based on the declared or sniffed encoding
func decodePage(res *resty.Response) (string, error) {
	r, err := charset.NewReader(
		bytes.NewReader(res.Body()),
		res.Header().Get("Content-Type"),
	)
	if err != nil {
		return "", err
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// sleepCtx waits for d, or returns false early if ctx is done
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
