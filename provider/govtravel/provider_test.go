package govtravel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/travelrates/provider/currencies"
	"github.com/sig-0/travelrates/storage/types"
)

const (
	albaniaPage = `<h2>Albania - Currency: Euro (EUR)</h2>
<table>
  <tr><th>City</th><th>Breakfast</th><th>Lunch</th><th>Dinner</th><th>Incidental Amount</th></tr>
  <tr><td>Tirana</td><td>$25.00</td><td>$30</td><td>$40</td><td>$15</td></tr>
</table>`

	letterCPage = `<h2>Chad - Currency: CFA Franc (XAF)</h2>
<table>
  <tr><th>City</th><th>Lunch</th></tr>
  <tr><td>N'Djamena</td><td>12,500</td></tr>
</table>
<h2>Chile - Currency: Peso (CLP)</h2>
<table>
  <tr><th>City</th><th>Lunch</th></tr>
  <tr><td>Santiago</td><td>20,000</td></tr>
</table>`
)

func internationalSource() types.SourceConfig {
	return types.SourceConfig{
		Name:               types.SourceInternational,
		URL:                testBaseURL,
		AlphabetNavigation: true,
	}
}

func TestProvider_Metadata(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Interval = time.Hour

	p := NewProvider(internationalSource(), settings, &mockFetcher{})

	assert.Equal(t, "international", p.Name())
	assert.Equal(t, time.Hour, p.Interval())
	assert.Equal(t, internationalSource(), p.Source())
}

func TestProvider_Harvest(t *testing.T) {
	t.Parallel()

	t.Run("alphabet pages", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			fetchFn: pages(map[string]string{
				testBaseURL:    navigationPage,
				letterURL("A"): albaniaPage,
				letterURL("B"): "<p>No countries start with B</p>",
				letterURL("C"): letterCPage,
			}),
		}

		harvest, err := NewProvider(internationalSource(), testSettings(), fetcher).Harvest(context.Background())
		require.NoError(t, err)

		// Table indexes continue across the letter pages
		require.Len(t, harvest.Tables, 3)

		for i, table := range harvest.Tables {
			assert.Equal(t, i, table.Index)
		}

		assert.Equal(t, "Chile - Currency: Peso (CLP)", *harvest.Tables[2].Title)

		require.Len(t, harvest.Rates, 6)

		chile := harvest.Rates[5]

		assert.Equal(t, 2, chile.TableIndex)
		assert.Equal(t, "Chile", *chile.Country)
		assert.Equal(t, "Santiago", *chile.City)
		assert.Equal(t, types.Currency("CLP"), *chile.Currency)
		assert.Equal(t, 20000.0, chile.RateAmount)

		for _, rate := range harvest.Rates[:4] {
			assert.Equal(t, "Albania", *rate.Country)
			assert.Equal(t, currencies.EUR, *rate.Currency)
		}

		assert.Empty(t, harvest.Accommodations)
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			fetchFn: func(_ context.Context, url string) (string, error) {
				return "", fmt.Errorf("%w: 404 for %s", ErrPermanentStatus, url)
			},
		}

		source := types.SourceConfig{
			Name: types.SourceDomestic,
			URL:  testBaseURL,
		}

		harvest, err := NewProvider(source, testSettings(), fetcher).Harvest(context.Background())

		assert.Nil(t, harvest)
		assert.ErrorIs(t, err, ErrPermanentStatus)
	})

	t.Run("custom paginator", func(t *testing.T) {
		t.Parallel()

		var (
			fetcher = &mockFetcher{
				fetchFn: pages(map[string]string{
					testBaseURL: albaniaPage,
				}),
			}

			source = types.SourceConfig{
				Name: types.SourceAccommodations,
				URL:  testBaseURL,
			}
		)

		p := NewProvider(source, testSettings(), fetcher, WithPaginator(singlePaginator{}))

		harvest, err := p.Harvest(context.Background())
		require.NoError(t, err)

		assert.Len(t, harvest.Tables, 1)
		assert.Len(t, harvest.Rates, 4)

		// The tables still run through the accommodation classifier
		require.Len(t, harvest.Accommodations, 1)
		assert.Equal(t, "Tirana", *harvest.Accommodations[0].City)
	})

	t.Run("ctx canceled during table pause", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			fetchFn: pages(map[string]string{
				testBaseURL: albaniaPage,
			}),
		}

		settings := testSettings()
		settings.Pause = time.Hour

		source := types.SourceConfig{
			Name: types.SourceDomestic,
			URL:  testBaseURL,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		t.Cleanup(cancel)

		_, err := NewProvider(source, settings, fetcher).Harvest(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestProvider_NewProviders(t *testing.T) {
	t.Parallel()

	var (
		sources  = DefaultSources()
		settings = DefaultSettings()
	)

	providers := NewProviders(sources, settings, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Len(t, providers, len(sources))

	for i, p := range providers {
		assert.Equal(t, sources[i], p.Source())
		assert.Equal(t, DefaultInterval, p.Interval())

		// Every source shares the same polite fetcher
		assert.Same(t, providers[0].fetcher, p.fetcher)
	}

	_, isAlphabet := providers[0].paginator.(*alphabetPaginator)
	assert.True(t, isAlphabet)

	_, isSingle := providers[1].paginator.(singlePaginator)
	assert.True(t, isSingle)
}
