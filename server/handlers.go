package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/types"
)

var (
	errUnableToFetchRates          = errors.New("unable to fetch rates")
	errUnableToFetchExchangeRates  = errors.New("unable to fetch exchange rates")
	errUnableToFetchAccommodations = errors.New("unable to fetch accommodations")
	errUnableToFetchSources        = errors.New("unable to fetch sources")
	errUnableToFetchCountries      = errors.New("unable to fetch countries")

	errInvalidLimit    = errors.New("invalid limit")
	errInvalidOffset   = errors.New("invalid offset")
	errInvalidSource   = errors.New("invalid source")
	errInvalidCurrency = errors.New("invalid currency (must be 3 letters A-Z)")
)

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateEntries(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.ExchangeRates(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch exchange rates",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchExchangeRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Accommodations(w http.ResponseWriter, r *http.Request) {
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.Accommodations(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch accommodations",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchAccommodations,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListSources(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch sources",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchSources,
		)

		return
	}

	resp := &SourcesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Countries(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListCountries(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch countries",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchCountries,
		)

		return
	}

	resp := &CountriesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseEntryQuery parses the shared entry filters and pagination
func parseEntryQuery(values url.Values) (*types.EntryQuery, error) {
	limit, offset, err := parseLimitOffset(values.Get("limit"), values.Get("offset"))
	if err != nil {
		return nil, err
	}

	source, err := parseSource(values.Get("source"))
	if err != nil {
		return nil, err
	}

	currency, err := parseCurrency(values.Get("currency"))
	if err != nil {
		return nil, err
	}

	return &types.EntryQuery{
		Source:   source,
		Country:  optionalText(values.Get("country")),
		City:     optionalText(values.Get("city")),
		Currency: currency,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := storage.DefaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = storage.DefaultLimit
	}

	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseSource(sourceRaw string) (*types.Source, error) {
	v := strings.ToLower(strings.TrimSpace(sourceRaw))
	if v == "" {
		return nil, nil //nolint:nilnil // no filter
	}

	src := types.Source(v)

	switch src {
	case types.SourceInternational, types.SourceDomestic, types.SourceAccommodations:
		return &src, nil
	default:
		return nil, errInvalidSource
	}
}

func parseCurrency(v string) (*types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if s == "" {
		return nil, nil //nolint:nilnil // no filter
	}

	if len(s) != 3 {
		return nil, errInvalidCurrency
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return nil, errInvalidCurrency
		}
	}

	c := types.Currency(s)

	return &c, nil
}

// optionalText returns the trimmed value, if any
func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
