// Package sbclient provides the main entry point for creating Storyblok
// Content Delivery API clients.
package sbclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/internal/client"
	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// New creates a new CDA client. The config is copied; BaseURL is resolved
// from Region when empty and normalized otherwise.
func New(ctx context.Context, config *storyblok.Config) (storyblok.Client, error) {
	if config == nil {
		return nil, storyblok.ErrConfigRequired
	}

	resolved := *config

	baseURL, err := resolveBaseURL(resolved.BaseURL, resolved.Region)
	if err != nil {
		return nil, err
	}

	resolved.BaseURL = baseURL

	if resolved.RetryMax == 0 {
		resolved.RetryMax = constants.DefaultRetryMax
	}

	client, err := client.New(ctx, &resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// resolveBaseURL returns the API host without a trailing slash or API path
// prefix; the prefix is added per request.
func resolveBaseURL(baseURL string, region storyblok.Region) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return region.BaseURL(), nil
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, constants.APIPathPrefix)
	baseURL = strings.TrimSuffix(baseURL, "/")

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", storyblok.ErrInvalidBaseURL, baseURL)
	}

	return baseURL, nil
}

// NewWithToken creates a client for published content.
func NewWithToken(ctx context.Context, token string) (storyblok.Client, error) {
	return New(ctx, &storyblok.Config{
		AccessToken: token,
	})
}

// NewWithPreview creates a client that reads published content with the
// public token and draft content with the preview token.
func NewWithPreview(ctx context.Context, publicToken, previewToken string) (storyblok.Client, error) {
	return New(ctx, &storyblok.Config{
		AccessToken:  publicToken,
		PreviewToken: previewToken,
	})
}

// NewForRegion creates a client for published content of a space outside the
// EU data center.
func NewForRegion(ctx context.Context, region storyblok.Region, token string) (storyblok.Client, error) {
	return New(ctx, &storyblok.Config{
		AccessToken: token,
		Region:      region,
	})
}
