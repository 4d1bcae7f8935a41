package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// listEnvelope is the body of a CDA list response. Resources are found under
// an endpoint specific key.
type listEnvelope struct {
	CV    int64             `json:"cv"`
	Rels  []storyblok.Story `json:"rels"`
	Links json.RawMessage   `json:"links"`
}

func queryOf(params *storyblok.QueryParams) url.Values {
	if params == nil {
		return nil
	}

	return params.ToValues()
}

// listResources fetches one page of a list endpoint.
func listResources[T any](
	ctx context.Context,
	httpClient *http.Client,
	path string,
	params *storyblok.QueryParams,
	key string,
) (*storyblok.ListResponse[T], error) {
	resp, err := httpClient.Get(ctx, path, queryOf(params))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", key, err)
	}

	result, err := decodeList[T](resp, key, requestedPage(params))
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", key, err)
	}

	return result, nil
}

func decodeList[T any](resp *http.Response, key string, page int) (*storyblok.ListResponse[T], error) {
	var fields map[string]json.RawMessage

	err := json.Unmarshal(resp.Body, &fields)
	if err != nil {
		return nil, err
	}

	resources := make([]T, 0)

	if raw, ok := fields[key]; ok {
		err = json.Unmarshal(raw, &resources)
		if err != nil {
			return nil, err
		}
	}

	var envelope listEnvelope

	err = json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, err
	}

	result := &storyblok.ListResponse[T]{
		Pagination: paginationFromHeaders(resp, page, len(resources)),
		Resources:  resources,
		CV:         envelope.CV,
		Rels:       envelope.Rels,
	}

	// Story lists carry linked stories as an array.
	if len(envelope.Links) > 0 && envelope.Links[0] == '[' {
		_ = json.Unmarshal(envelope.Links, &result.Links)
	}

	return result, nil
}

// paginationFromHeaders reads the Total and Per-Page headers. Endpoints
// without them are treated as a single page.
func paginationFromHeaders(resp *http.Response, page, count int) storyblok.Pagination {
	pagination := storyblok.Pagination{Page: page}

	if resp.Headers != nil {
		pagination.Total, _ = strconv.Atoi(resp.Headers.Get(constants.HeaderTotal))
		pagination.PerPage, _ = strconv.Atoi(resp.Headers.Get(constants.HeaderPerPage))
	}

	if pagination.Total == 0 && pagination.PerPage == 0 {
		pagination.Total = count
		pagination.PerPage = count
	}

	return pagination
}

func requestedPage(params *storyblok.QueryParams) int {
	if params != nil && params.Page > 0 {
		return params.Page
	}

	return 1
}

func fetchAllOptions() *storyblok.PaginationOptions {
	return &storyblok.PaginationOptions{
		Concurrency: constants.DefaultConcurrencyLimit,
	}
}
