package govtravel

import (
	"context"
	"sync"
)

type fetchDelegate func(context.Context, string) (string, error)

type mockFetcher struct {
	fetchFn fetchDelegate

	mu      sync.Mutex
	fetched []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()

	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}

	return "", nil
}

// pages returns a fetch delegate serving the given pages,
// and an empty page for any other URL
func pages(byURL map[string]string) fetchDelegate {
	return func(_ context.Context, url string) (string, error) {
		return byURL[url], nil
	}
}
