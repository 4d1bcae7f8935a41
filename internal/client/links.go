package client

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// LinksClient implements storyblok.LinksClient.
type LinksClient struct {
	httpClient *http.Client
}

// NewLinksClient creates a new links client.
func NewLinksClient(httpClient *http.Client) *LinksClient {
	return &LinksClient{
		httpClient: httpClient,
	}
}

// List implements storyblok.LinksClient.List.
func (c *LinksClient) List(ctx context.Context, params *storyblok.QueryParams) (*storyblok.ListResponse[storyblok.LinkEntry], error) {
	return c.ListWithPath(ctx, constants.APIPathLinks, params)
}

// ListWithPath implements storyblok.PaginationClient. The links endpoint
// answers with an object keyed by uuid; it only reports totals when
// paginated=1 is sent, so it is always sent.
func (c *LinksClient) ListWithPath(
	ctx context.Context,
	path string,
	params *storyblok.QueryParams,
) (*storyblok.ListResponse[storyblok.LinkEntry], error) {
	query := params.Clone()
	query.Paginated = true

	resp, err := c.httpClient.Get(ctx, path, query.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}

	var body struct {
		Links map[string]storyblok.LinkEntry `json:"links"`
		CV    int64                          `json:"cv"`
	}

	err = json.Unmarshal(resp.Body, &body)
	if err != nil {
		return nil, fmt.Errorf("parsing links list response: %w", err)
	}

	links := make([]storyblok.LinkEntry, 0, len(body.Links))
	for _, link := range body.Links {
		links = append(links, link)
	}

	slices.SortFunc(links, func(a, b storyblok.LinkEntry) int {
		return cmp.Compare(a.Slug, b.Slug)
	})

	return &storyblok.ListResponse[storyblok.LinkEntry]{
		Pagination: paginationFromHeaders(resp, requestedPage(params), len(links)),
		Resources:  links,
		CV:         body.CV,
	}, nil
}

// All implements storyblok.LinksClient.All.
func (c *LinksClient) All(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.LinkEntry, error) {
	return storyblok.FetchAllPages[storyblok.LinkEntry](ctx, c, constants.APIPathLinks, params, fetchAllOptions())
}

// Tree implements storyblok.LinksClient.Tree.
func (c *LinksClient) Tree(ctx context.Context, params *storyblok.QueryParams) ([]*storyblok.LinkNode, error) {
	links, err := c.All(ctx, params)
	if err != nil {
		return nil, err
	}

	return storyblok.BuildLinkTree(links), nil
}
