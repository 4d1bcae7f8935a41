package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/storyblok-docs/internal/auth"
	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/http"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrBaseURLRequired = errors.New("base URL is required")
	ErrTokenRequired   = errors.New("access token or preview token is required")
)

// Client implements the storyblok.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       storyblok.Logger
	cacheVersion *storyblok.CacheVersion
	linkResolver *storyblok.LinkResolver

	// Resource clients
	stories           *StoriesClient
	links             *LinksClient
	tags              *TagsClient
	datasources       *DatasourcesClient
	datasourceEntries *DatasourceEntriesClient
	spaces            *SpacesClient
}

// New creates a new CDA client. config.BaseURL must already be resolved.
func New(ctx context.Context, config *storyblok.Config) (*Client, error) {
	if config == nil {
		return nil, storyblok.ErrConfigRequired
	}

	if config.AccessToken == "" && config.PreviewToken == "" {
		return nil, ErrTokenRequired
	}

	return NewWithTokenManager(config, auth.NewStaticTokenManager(config.AccessToken, config.PreviewToken))
}

// NewWithTokenManager creates a new CDA client with a custom token manager.
func NewWithTokenManager(config *storyblok.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, storyblok.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	if config.Version != "" && !config.Version.Valid() {
		return nil, fmt.Errorf("%w: %s", storyblok.ErrInvalidVersion, config.Version)
	}

	client := &Client{
		tokenManager: tokenManager,
		baseURL:      config.BaseURL,
		logger:       config.Logger,
		cacheVersion: storyblok.NewCacheVersion(),
	}

	client.linkResolver = storyblok.NewLinkResolver(client.fetchByUUIDs)

	chain := buildInterceptorChain(config, tokenManager, client.cacheVersion, client.linkResolver)

	client.httpClient = http.NewClient(config.BaseURL, nil, createHTTPClientOptions(config, chain)...)

	client.initializeResourceClients()

	return client, nil
}

// buildInterceptorChain composes the built-in interceptors in order, followed
// by the ones from config.Interceptors.
func buildInterceptorChain(
	config *storyblok.Config,
	tokenManager auth.TokenManager,
	tracker *storyblok.CacheVersion,
	resolver *storyblok.LinkResolver,
) *storyblok.InterceptorChain {
	chain := storyblok.NewInterceptorChain()

	version := config.Version
	if version == "" {
		version = storyblok.VersionPublished
	}

	chain.AddRequestInterceptor(storyblok.VersionInterceptor(version))
	chain.AddRequestInterceptor(storyblok.DefaultParamsInterceptor(defaultParams(config)))
	chain.AddRequestInterceptor(storyblok.CacheVersionRequestInterceptor(tracker))

	if tokenManager != nil {
		chain.AddRequestInterceptor(storyblok.AuthenticationInterceptor(tokenManager.GetToken))
	}

	chain.AddRequestInterceptor(storyblok.PathResolutionInterceptor(constants.APIPathPrefix))
	chain.AddRequestInterceptor(storyblok.RateLimitInterceptor(config.RateLimit))

	var breaker *storyblok.CircuitBreaker
	if config.CircuitBreaker != nil {
		breaker = storyblok.NewCircuitBreaker(config.CircuitBreaker)
		chain.AddRequestInterceptor(storyblok.CircuitBreakerRequestInterceptor(breaker))
	}

	if config.MetricsRecorder != nil {
		chain.AddRequestInterceptor(storyblok.MetricsRequestInterceptor())
	}

	if config.Debug && config.Logger != nil {
		chain.AddRequestInterceptor(storyblok.LoggingInterceptor(config.Logger))
	}

	chain.AddResponseInterceptor(storyblok.CacheVersionResponseInterceptor(tracker))
	chain.AddResponseInterceptor(storyblok.LinkResolutionInterceptor(resolver))

	if breaker != nil {
		chain.AddResponseInterceptor(storyblok.CircuitBreakerResponseInterceptor(breaker))
	}

	if config.MetricsRecorder != nil {
		chain.AddResponseInterceptor(storyblok.MetricsResponseInterceptor(config.MetricsRecorder))
	}

	if config.Debug && config.Logger != nil {
		chain.AddResponseInterceptor(storyblok.LoggingResponseInterceptor(config.Logger))
	}

	chain.Append(config.Interceptors)

	return chain
}

// defaultParams returns the client-wide query defaults.
func defaultParams(config *storyblok.Config) url.Values {
	params := storyblok.NewQueryParams().
		WithResolveLinks(config.ResolveLinks).
		WithResolveRelations(config.ResolveRelations...).
		WithLanguage(config.Language).
		WithFallbackLang(config.FallbackLang)

	return params.ToValues()
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *storyblok.Config, chain *storyblok.InterceptorChain) []http.Option {
	httpOpts := []http.Option{http.WithInterceptors(chain)}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

func (c *Client) initializeResourceClients() {
	c.stories = NewStoriesClient(c.httpClient)
	c.links = NewLinksClient(c.httpClient)
	c.tags = NewTagsClient(c.httpClient)
	c.datasources = NewDatasourcesClient(c.httpClient)
	c.datasourceEntries = NewDatasourceEntriesClient(c.httpClient)
	c.spaces = NewSpacesClient(c.httpClient)
}

// fetchByUUIDs loads the stories the link resolver needs.
func (c *Client) fetchByUUIDs(ctx context.Context, params *storyblok.QueryParams) ([]storyblok.Story, error) {
	resp, err := c.stories.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return resp.Resources, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// LinkResolver returns the resolver used by the client, e.g. to resolve a
// story posted by the visual editor.
func (c *Client) LinkResolver() *storyblok.LinkResolver {
	return c.linkResolver
}

// Stories implements storyblok.Client.
func (c *Client) Stories() storyblok.StoriesClient {
	return c.stories
}

// Links implements storyblok.Client.
func (c *Client) Links() storyblok.LinksClient {
	return c.links
}

// Tags implements storyblok.Client.
func (c *Client) Tags() storyblok.TagsClient {
	return c.tags
}

// Datasources implements storyblok.Client.
func (c *Client) Datasources() storyblok.DatasourcesClient {
	return c.datasources
}

// DatasourceEntries implements storyblok.Client.
func (c *Client) DatasourceEntries() storyblok.DatasourceEntriesClient {
	return c.datasourceEntries
}

// Spaces implements storyblok.Client.
func (c *Client) Spaces() storyblok.SpacesClient {
	return c.spaces
}

// CacheVersion implements storyblok.Client.
func (c *Client) CacheVersion() *storyblok.CacheVersion {
	return c.cacheVersion
}
