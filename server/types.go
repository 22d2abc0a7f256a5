package server

import "github.com/sig-0/travelrates/storage/types"

type SourcesResponse struct {
	Results []types.Source `json:"results"`
}

type CountriesResponse struct {
	Results []string `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
