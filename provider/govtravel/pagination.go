package govtravel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/travelrates/storage/types"
)

// Page is a single fetched source page
type Page struct {
	URL    string
	Markup string
}

// Paginator walks the pages of a single source, in order
type Paginator interface {
	// Paginate fetches every page of the source, handing each to visit
	Paginate(ctx context.Context, fetcher PageFetcher, baseURL string, visit func(Page) error) error
}

// NewPaginator selects the pagination strategy for the source
func NewPaginator(source types.SourceConfig, logger *slog.Logger) Paginator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if source.AlphabetNavigation {
		return &alphabetPaginator{
			logger: logger,
		}
	}

	return singlePaginator{}
}

// singlePaginator serves sources that fit on one page
type singlePaginator struct{}

func (singlePaginator) Paginate(
	ctx context.Context,
	fetcher PageFetcher,
	baseURL string,
	visit func(Page) error,
) error {
	markup, err := fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("unable to fetch page: %w", err)
	}

	return visit(Page{
		URL:    baseURL,
		Markup: markup,
	})
}

// letters is the alphabet navigation index
const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// alphabetPaginator serves sources that split their tables across
// one page per letter. The letter pages are discovered from the
// base page navigation, which also carries the directive revision
type alphabetPaginator struct {
	logger *slog.Logger
}

func (a *alphabetPaginator) Paginate(
	ctx context.Context,
	fetcher PageFetcher,
	baseURL string,
	visit func(Page) error,
) error {
	markup, err := fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("unable to fetch base page: %w", err)
	}

	nav, err := discoverNavigation(baseURL, markup)
	if err != nil {
		return fmt.Errorf("unable to discover letter pages: %w", err)
	}

	if nav == nil {
		a.logger.Warn(
			"no alphabet navigation found, using the base page",
			"url", baseURL,
		)

		return visit(Page{
			URL:    baseURL,
			Markup: markup,
		})
	}

	a.logger.Info(
		"discovered alphabet navigation",
		"url", baseURL,
		"letter_key", nav.letterKey,
		"revision", nav.revision(),
	)

	for _, letterURL := range nav.urls() {
		letterMarkup, err := fetcher.Fetch(ctx, letterURL)
		if err != nil {
			return fmt.Errorf("unable to fetch letter page: %w", err)
		}

		if err := visit(Page{
			URL:    letterURL,
			Markup: letterMarkup,
		}); err != nil {
			return err
		}
	}

	return nil
}

// navigation is the letter navigation scheme found on the base page
type navigation struct {
	template  *url.URL // resolved letter link, any letter
	letterKey string   // query parameter holding the letter
}

// discoverNavigation finds the letter navigation scheme on the base page.
// A nil navigation is returned if the page has none
func discoverNavigation(baseURL, markup string) (*navigation, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse base URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	var nav *navigation

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		letter := strings.ToUpper(strings.TrimSpace(sel.Text()))
		if len(letter) != 1 || !strings.Contains(letters, letter) {
			return true
		}

		href, _ := sel.Attr("href")

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}

		for key, values := range link.Query() {
			for _, value := range values {
				if strings.EqualFold(value, letter) {
					nav = &navigation{
						template:  base.ResolveReference(link),
						letterKey: key,
					}

					return false
				}
			}
		}

		return true
	})

	return nav, nil
}

// urls builds the A-Z page URLs
func (n *navigation) urls() []string {
	urls := make([]string, 0, len(letters))

	for _, letter := range letters {
		query := n.template.Query()
		query.Set(n.letterKey, string(letter))

		letterURL := *n.template
		letterURL.RawQuery = query.Encode()
		letterURL.Fragment = ""

		urls = append(urls, letterURL.String())
	}

	return urls
}

// revision returns the navigation query parameters other than the
// letter itself, which pin the directive revision being served
func (n *navigation) revision() string {
	query := n.template.Query()
	query.Del(n.letterKey)

	return query.Encode()
}
