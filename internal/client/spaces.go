package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// SpacesClient implements storyblok.SpacesClient.
type SpacesClient struct {
	httpClient *http.Client
}

// NewSpacesClient creates a new spaces client.
func NewSpacesClient(httpClient *http.Client) *SpacesClient {
	return &SpacesClient{
		httpClient: httpClient,
	}
}

// Me implements storyblok.SpacesClient.Me.
func (c *SpacesClient) Me(ctx context.Context) (*storyblok.Space, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathSpaceMe, nil)
	if err != nil {
		return nil, fmt.Errorf("getting space: %w", err)
	}

	var body struct {
		Space storyblok.Space `json:"space"`
	}

	err = json.Unmarshal(resp.Body, &body)
	if err != nil {
		return nil, fmt.Errorf("parsing space response: %w", err)
	}

	return &body.Space, nil
}
