package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// DatasourcesClient implements storyblok.DatasourcesClient.
type DatasourcesClient struct {
	httpClient *http.Client
}

// NewDatasourcesClient creates a new datasources client.
func NewDatasourcesClient(httpClient *http.Client) *DatasourcesClient {
	return &DatasourcesClient{
		httpClient: httpClient,
	}
}

// List implements storyblok.DatasourcesClient.List.
func (c *DatasourcesClient) List(ctx context.Context, params *storyblok.QueryParams) (*storyblok.ListResponse[storyblok.Datasource], error) {
	return c.ListWithPath(ctx, constants.APIPathDatasources, params)
}

// ListWithPath implements storyblok.PaginationClient.
func (c *DatasourcesClient) ListWithPath(
	ctx context.Context,
	path string,
	params *storyblok.QueryParams,
) (*storyblok.ListResponse[storyblok.Datasource], error) {
	return listResources[storyblok.Datasource](ctx, c.httpClient, path, params, "datasources")
}

// All implements storyblok.DatasourcesClient.All.
func (c *DatasourcesClient) All(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.Datasource, error) {
	return storyblok.FetchAllPages[storyblok.Datasource](ctx, c, constants.APIPathDatasources, params, fetchAllOptions())
}

// DatasourceEntriesClient implements storyblok.DatasourceEntriesClient.
type DatasourceEntriesClient struct {
	httpClient *http.Client
}

// NewDatasourceEntriesClient creates a new datasource entries client.
func NewDatasourceEntriesClient(httpClient *http.Client) *DatasourceEntriesClient {
	return &DatasourceEntriesClient{
		httpClient: httpClient,
	}
}

// List implements storyblok.DatasourceEntriesClient.List.
func (c *DatasourceEntriesClient) List(
	ctx context.Context,
	params *storyblok.QueryParams,
) (*storyblok.ListResponse[storyblok.DatasourceEntry], error) {
	return c.ListWithPath(ctx, constants.APIPathDatasourceEntries, params)
}

// ListWithPath implements storyblok.PaginationClient.
func (c *DatasourceEntriesClient) ListWithPath(
	ctx context.Context,
	path string,
	params *storyblok.QueryParams,
) (*storyblok.ListResponse[storyblok.DatasourceEntry], error) {
	if params == nil || params.Datasource == "" {
		return nil, storyblok.ErrDatasourceRequired
	}

	return listResources[storyblok.DatasourceEntry](ctx, c.httpClient, path, params, "datasource_entries")
}

// All implements storyblok.DatasourceEntriesClient.All.
func (c *DatasourceEntriesClient) All(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.DatasourceEntry, error) {
	if params == nil || params.Datasource == "" {
		return nil, storyblok.ErrDatasourceRequired
	}

	return storyblok.FetchAllPages[storyblok.DatasourceEntry](ctx, c, constants.APIPathDatasourceEntries, params, fetchAllOptions())
}
