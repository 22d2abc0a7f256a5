package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/travelrates/storage/mock"
	"github.com/sig-0/travelrates/storage/types"
)

const testProviderName = "test-provider"

func strPtr(s string) *string {
	return &s
}

// namedProvider creates a mock provider with the given harvest
func namedProvider(name string, harvestFn harvestDelegate) *mockProvider {
	return &mockProvider{
		nameFn: func() string {
			return name
		},
		intervalFn: func() time.Duration {
			return time.Hour
		},
		harvestFn: harvestFn,
	}
}

func internationalHarvest() *types.Harvest {
	return &types.Harvest{
		Source: types.SourceConfig{Name: types.SourceInternational},
		Tables: []*types.RawTable{
			{Index: 0, Title: strPtr("Albania - Currency: Euro (EUR)")},
			{Index: 1, Title: strPtr("Argentina - Currency: Argentine Peso (ARS)")},
		},
		Rates: []*types.RateEntry{
			{Country: strPtr("Albania"), RateType: "breakfast", RateAmount: 25},
			{Country: strPtr("Albania"), RateType: "lunch", RateAmount: 30},
		},
		ExchangeRates: []*types.ExchangeRateEntry{{Currency: "EUR", RateToCAD: 1.45}},
	}
}

func TestOrchestrator_New(t *testing.T) {
	t.Parallel()

	t.Run("default orchestrator", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NotNil(t, o)

		assert.NotNil(t, o.storage)
		assert.NotNil(t, o.logger)
		assert.Equal(t, time.Second, o.queryInterval)
		assert.Equal(t, 10*time.Minute, o.retryDelay)
	})

	t.Run("custom intervals", func(t *testing.T) {
		t.Parallel()

		o := New(
			&mock.Storage{},
			WithQueryInterval(time.Minute),
			WithRetryDelay(time.Second),
		)

		require.NotNil(t, o)
		assert.Equal(t, time.Minute, o.queryInterval)
		assert.Equal(t, time.Second, o.retryDelay)
	})
}

func TestOrchestrator_RunOnce(t *testing.T) {
	t.Parallel()

	t.Run("harvests saved in order", func(t *testing.T) {
		t.Parallel()

		var (
			order []string

			storage = &mock.Storage{
				SaveRawTablesFn: func(_ context.Context, source types.SourceConfig, _ []*types.RawTable) error {
					order = append(order, source.Name.String())

					return nil
				},
			}

			providers = []Provider{
				namedProvider("international", func(_ context.Context) (*types.Harvest, error) {
					return internationalHarvest(), nil
				}),
				namedProvider("domestic", func(_ context.Context) (*types.Harvest, error) {
					return &types.Harvest{
						Source: types.SourceConfig{Name: types.SourceDomestic},
						Tables: []*types.RawTable{{Index: 0}},
					}, nil
				}),
			}
		)

		summaries := New(storage).RunOnce(context.Background(), providers...)

		require.Len(t, summaries, 2)

		assert.Equal(t, Summary{
			Source:        "international",
			Tables:        2,
			Rates:         2,
			ExchangeRates: 1,
		}, summaries[0])
		assert.Equal(t, Summary{Source: "domestic", Tables: 1}, summaries[1])

		assert.Equal(t, []string{"international", "domestic"}, order)
		assert.False(t, AllFailed(summaries))
	})

	t.Run("failing source is isolated", func(t *testing.T) {
		t.Parallel()

		var (
			fetchErr = errors.New("503 for every attempt")

			harvested atomic.Int32

			providers = []Provider{
				namedProvider("international", func(_ context.Context) (*types.Harvest, error) {
					return nil, fetchErr
				}),
				namedProvider("domestic", func(_ context.Context) (*types.Harvest, error) {
					harvested.Add(1)

					return &types.Harvest{}, nil
				}),
			}
		)

		summaries := New(&mock.Storage{}).RunOnce(context.Background(), providers...)

		require.Len(t, summaries, 2)

		assert.ErrorIs(t, summaries[0].Err, fetchErr)
		assert.True(t, summaries[0].Failed())
		assert.False(t, summaries[1].Failed())

		assert.Equal(t, int32(1), harvested.Load())
		assert.False(t, AllFailed(summaries))
	})

	t.Run("save failure", func(t *testing.T) {
		t.Parallel()

		var (
			saveErr = errors.New("database is locked")

			storage = &mock.Storage{
				SaveRateEntriesFn: func(_ context.Context, _ []*types.RateEntry) error {
					return saveErr
				},
			}

			provider = namedProvider(testProviderName, func(_ context.Context) (*types.Harvest, error) {
				return internationalHarvest(), nil
			})
		)

		summaries := New(storage).RunOnce(context.Background(), provider)

		require.Len(t, summaries, 1)

		assert.ErrorIs(t, summaries[0].Err, saveErr)
		assert.Equal(t, 2, summaries[0].Rates)
		assert.True(t, AllFailed(summaries))
	})

	t.Run("ctx canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		var (
			harvested atomic.Int32

			providers = []Provider{
				namedProvider("international", func(_ context.Context) (*types.Harvest, error) {
					harvested.Add(1)
					cancel()

					return nil, context.Canceled
				}),
				namedProvider("domestic", func(_ context.Context) (*types.Harvest, error) {
					harvested.Add(1)

					return &types.Harvest{}, nil
				}),
			}
		)

		summaries := New(&mock.Storage{}).RunOnce(ctx, providers...)

		require.Len(t, summaries, 2)

		assert.Equal(t, int32(1), harvested.Load())
		assert.ErrorIs(t, summaries[1].Err, context.Canceled)
		assert.True(t, AllFailed(summaries))
	})

	t.Run("missing countries logged", func(t *testing.T) {
		t.Parallel()

		var (
			logs bytes.Buffer

			provider = namedProvider("international", func(_ context.Context) (*types.Harvest, error) {
				return internationalHarvest(), nil
			})

			o = New(
				&mock.Storage{},
				WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
			)
		)

		summaries := o.RunOnce(context.Background(), provider)

		require.Len(t, summaries, 1)
		require.False(t, summaries[0].Failed())

		assert.Contains(t, logs.String(), "countries without rate entries")
		assert.Contains(t, logs.String(), "argentina")
	})
}

func TestOrchestrator_Register(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		assert.ErrorIs(t, o.Register(nil), errInvalidProvider)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		var (
			o = New(&mock.Storage{})

			provider = namedProvider("", nil)
		)

		assert.ErrorIs(t, o.Register(provider), errInvalidProvider)
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()

		for _, interval := range []time.Duration{0, -time.Hour} {
			var (
				o = New(&mock.Storage{})

				provider = &mockProvider{
					nameFn: func() string {
						return testProviderName
					},
					intervalFn: func() time.Duration {
						return interval
					},
				}
			)

			assert.ErrorIs(t, o.Register(provider), errInvalidInterval)
		}
	})

	t.Run("schedule provider", func(t *testing.T) {
		t.Parallel()

		var (
			o = New(&mock.Storage{})

			provider = namedProvider(testProviderName, nil)
		)

		require.NoError(t, o.Register(provider))
		assert.Equal(t, 1, o.q.Len())

		// The scheduled time should be in the past or now (immediate)
		scheduled := o.q.Index(0)
		assert.True(t, scheduled.at.Before(time.Now().Add(time.Second)))
	})
}

func TestOrchestrator_Start(t *testing.T) {
	t.Parallel()

	t.Run("ctx canceled", func(t *testing.T) {
		t.Parallel()

		var (
			o     = New(&mock.Storage{}, WithQueryInterval(time.Millisecond*10))
			errCh = make(chan error, 1)
		)

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("orchestrator did not shut down in time")
		}
	})

	t.Run("reschedule provider (success)", func(t *testing.T) {
		t.Parallel()

		var (
			harvestCount atomic.Int32
			harvestDone  = make(chan struct{})
			savedCount   atomic.Int32
		)

		var (
			storage = &mock.Storage{
				SaveRateEntriesFn: func(_ context.Context, _ []*types.RateEntry) error {
					savedCount.Add(1)

					return nil
				},
			}

			o = New(storage, WithQueryInterval(time.Millisecond*10))

			provider = &mockProvider{
				nameFn: func() string {
					return testProviderName
				},
				intervalFn: func() time.Duration {
					return time.Millisecond * 50
				},
				harvestFn: func(_ context.Context) (*types.Harvest, error) {
					if harvestCount.Add(1) == 2 {
						close(harvestDone)
					}

					return internationalHarvest(), nil
				},
			}
			errCh = make(chan error, 1)
		)

		require.NoError(t, o.Register(provider))

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		select {
		case <-harvestDone:
			// Success
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for reschedule")
		}

		cancel()
		require.NoError(t, <-errCh)

		assert.GreaterOrEqual(t, harvestCount.Load(), int32(2))
		assert.GreaterOrEqual(t, savedCount.Load(), int32(1))
	})

	t.Run("retries on harvest error", func(t *testing.T) {
		t.Parallel()

		var (
			harvestCount atomic.Int32
			retryDone    = make(chan struct{})
		)

		var (
			provider = namedProvider(testProviderName, func(_ context.Context) (*types.Harvest, error) {
				if harvestCount.Add(1) == 2 {
					close(retryDone)
				}

				return nil, errors.New("harvest error")
			})

			o = New(
				&mock.Storage{},
				WithQueryInterval(time.Millisecond*10),
				WithRetryDelay(time.Millisecond*20),
			)

			errCh = make(chan error, 1)
		)

		require.NoError(t, o.Register(provider))

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		select {
		case <-retryDone:
			// Success
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for retry")
		}

		cancel()
		require.NoError(t, <-errCh)

		assert.GreaterOrEqual(t, harvestCount.Load(), int32(2))
	})

	t.Run("harvests never overlap", func(t *testing.T) {
		t.Parallel()

		var (
			running    atomic.Int32
			overlapped atomic.Bool
			harvests   atomic.Int32
			allDone    = make(chan struct{})
			errCh      = make(chan error, 1)

			harvestFn = func(_ context.Context) (*types.Harvest, error) {
				if running.Add(1) > 1 {
					overlapped.Store(true)
				}

				time.Sleep(5 * time.Millisecond)
				running.Add(-1)

				if harvests.Add(1) == 3 {
					close(allDone)
				}

				return &types.Harvest{}, nil
			}

			o = New(&mock.Storage{}, WithQueryInterval(time.Millisecond*10))
		)

		for _, name := range []string{"international", "domestic", "accommodations"} {
			require.NoError(t, o.Register(namedProvider(name, harvestFn)))
		}

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		select {
		case <-allDone:
			// Success
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for providers")
		}

		cancel()
		require.NoError(t, <-errCh)

		assert.False(t, overlapped.Load())
	})
}

func TestSummary_Render(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	RenderSummaries(&out, []Summary{
		{Source: "international", Tables: 190, Rates: 4200},
		{Source: "domestic", Err: errors.New("unable to harvest domestic: 404")},
	})

	rendered := out.String()

	assert.Contains(t, rendered, "international")
	assert.Contains(t, rendered, "4200")
	assert.Contains(t, rendered, "failed: unable to harvest domestic: 404")
	assert.Contains(t, rendered, "ok")

	assert.False(t, AllFailed(nil))
}
