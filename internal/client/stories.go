package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// StoriesClient implements storyblok.StoriesClient.
type StoriesClient struct {
	httpClient *http.Client
}

// NewStoriesClient creates a new stories client.
func NewStoriesClient(httpClient *http.Client) *StoriesClient {
	return &StoriesClient{
		httpClient: httpClient,
	}
}

// Get implements storyblok.StoriesClient.Get.
func (c *StoriesClient) Get(ctx context.Context, slug string, params *storyblok.QueryParams) (*storyblok.StoryResponse, error) {
	slug = strings.TrimLeft(slug, "/")
	if slug == "" {
		return nil, storyblok.ErrSlugRequired
	}

	return c.get(ctx, slug, params)
}

// GetByID implements storyblok.StoriesClient.GetByID.
func (c *StoriesClient) GetByID(ctx context.Context, id int64, params *storyblok.QueryParams) (*storyblok.StoryResponse, error) {
	return c.get(ctx, strconv.FormatInt(id, 10), params)
}

// GetByUUID implements storyblok.StoriesClient.GetByUUID. The path
// interceptor adds find_by=uuid.
func (c *StoriesClient) GetByUUID(ctx context.Context, uuid string, params *storyblok.QueryParams) (*storyblok.StoryResponse, error) {
	if uuid == "" {
		return nil, storyblok.ErrSlugRequired
	}

	return c.get(ctx, uuid, params)
}

func (c *StoriesClient) get(ctx context.Context, identifier string, params *storyblok.QueryParams) (*storyblok.StoryResponse, error) {
	path := constants.APIPathStories + "/" + identifier

	resp, err := c.httpClient.Get(ctx, path, queryOf(params))
	if err != nil {
		return nil, fmt.Errorf("getting story %s: %w", identifier, err)
	}

	var story storyblok.StoryResponse

	err = json.Unmarshal(resp.Body, &story)
	if err != nil {
		return nil, fmt.Errorf("parsing story response: %w", err)
	}

	return &story, nil
}

// List implements storyblok.StoriesClient.List.
func (c *StoriesClient) List(ctx context.Context, params *storyblok.QueryParams) (*storyblok.ListResponse[storyblok.Story], error) {
	return c.ListWithPath(ctx, constants.APIPathStories, params)
}

// ListWithPath implements storyblok.PaginationClient.
func (c *StoriesClient) ListWithPath(
	ctx context.Context,
	path string,
	params *storyblok.QueryParams,
) (*storyblok.ListResponse[storyblok.Story], error) {
	return listResources[storyblok.Story](ctx, c.httpClient, path, params, "stories")
}

// All implements storyblok.StoriesClient.All.
func (c *StoriesClient) All(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.Story, error) {
	return storyblok.FetchAllPages[storyblok.Story](ctx, c, constants.APIPathStories, params, fetchAllOptions())
}
