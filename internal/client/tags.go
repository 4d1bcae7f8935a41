package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// TagsClient implements storyblok.TagsClient.
type TagsClient struct {
	httpClient *http.Client
}

// NewTagsClient creates a new tags client.
func NewTagsClient(httpClient *http.Client) *TagsClient {
	return &TagsClient{
		httpClient: httpClient,
	}
}

// List implements storyblok.TagsClient.List. Tags are not paginated.
func (c *TagsClient) List(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.Tag, error) {
	resp, err := listResources[storyblok.Tag](ctx, c.httpClient, constants.APIPathTags, params, "tags")
	if err != nil {
		return nil, err
	}

	return resp.Resources, nil
}
