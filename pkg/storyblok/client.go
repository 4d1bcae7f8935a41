package storyblok

import (
	"context"
	"time"
)

// StoriesClient reads stories.
type StoriesClient interface {
	// Get fetches a story by full slug. Folder startpages are addressed with a
	// trailing slash ("docs/").
	Get(ctx context.Context, slug string, params *QueryParams) (*StoryResponse, error)
	GetByID(ctx context.Context, id int64, params *QueryParams) (*StoryResponse, error)
	GetByUUID(ctx context.Context, uuid string, params *QueryParams) (*StoryResponse, error)
	List(ctx context.Context, params *QueryParams) (*ListResponse[Story], error)
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[Story], error)
	// All fetches every page of the filtered list.
	All(ctx context.Context, params *QueryParams) ([]Story, error)
}

// LinksClient reads the links endpoint, a lightweight index of all stories
// and folders used for navigation and sitemaps.
type LinksClient interface {
	List(ctx context.Context, params *QueryParams) (*ListResponse[LinkEntry], error)
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[LinkEntry], error)
	All(ctx context.Context, params *QueryParams) ([]LinkEntry, error)
	// Tree returns all links arranged by parent, each level sorted by position.
	Tree(ctx context.Context, params *QueryParams) ([]*LinkNode, error)
}

// TagsClient reads tags.
type TagsClient interface {
	List(ctx context.Context, params *QueryParams) ([]Tag, error)
}

// DatasourcesClient reads datasource definitions.
type DatasourcesClient interface {
	List(ctx context.Context, params *QueryParams) (*ListResponse[Datasource], error)
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[Datasource], error)
	All(ctx context.Context, params *QueryParams) ([]Datasource, error)
}

// DatasourceEntriesClient reads datasource entries. The datasource slug is
// passed with QueryParams.WithDatasource.
type DatasourceEntriesClient interface {
	List(ctx context.Context, params *QueryParams) (*ListResponse[DatasourceEntry], error)
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[DatasourceEntry], error)
	All(ctx context.Context, params *QueryParams) ([]DatasourceEntry, error)
}

// SpacesClient reads the current space.
type SpacesClient interface {
	Me(ctx context.Context) (*Space, error)
}

// Client is the Content Delivery API client.
type Client interface {
	Stories() StoriesClient
	Links() LinksClient
	Tags() TagsClient
	Datasources() DatasourcesClient
	DatasourceEntries() DatasourceEntriesClient
	Spaces() SpacesClient

	// CacheVersion exposes the cv tracker, e.g. to flush it on publish.
	CacheVersion() *CacheVersion
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a storyblok.Client.
//
// # Tokens
//
// AccessToken is the public token of the space and is used for published
// content. PreviewToken is used for draft content; when it is empty, draft
// requests fail with ErrPreviewTokenRequired. One of the two is required. A
// preview token can read published content too, so a config with only a
// PreviewToken works for both versions.
//
// # Endpoint
//
// BaseURL wins over Region. Without either the EU data center is used.
//
// # Timeouts and retries
//
// Per-request timeouts should be controlled via the context passed to client
// methods. Retries cover 429, 5xx and connection errors.
type Config struct {
	// AccessToken: public access token.
	AccessToken string
	// PreviewToken: preview access token for draft content.
	PreviewToken string

	// Region: data center of the space.
	Region Region
	// BaseURL: overrides Region, e.g. for a proxy. sbclient.New normalizes
	// it by trimming a trailing slash and adding "https://" when no scheme
	// is present.
	BaseURL string

	// Version: default content version, published when empty.
	Version Version
	// ResolveLinks: "url", "story" or "link". Empty disables link resolution.
	ResolveLinks string
	// ResolveRelations: "component.field" entries resolved on every request.
	ResolveRelations []string
	// Language: default language code.
	Language string
	// FallbackLang: language used for untranslated fields.
	FallbackLang string

	// HTTPTimeout: timeout of the underlying http.Client.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries. If 0, the client default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit: client-side request rate per second. 0 uses the default.
	RateLimit int
	// CircuitBreaker: enables the circuit breaker when non-nil.
	CircuitBreaker *CircuitBreakerConfig

	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// MetricsRecorder: receives one observation per API call.
	MetricsRecorder MetricsRecorder
	// Interceptors: extra interceptors appended after the built-in ones.
	Interceptors *InterceptorChain
}
