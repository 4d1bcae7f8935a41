package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// ServerReadHeaderTimeout bounds header reads on the docs server.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerShutdownTimeout is the grace period for in-flight requests.
	ServerShutdownTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// LowRetryMax is used for operations that should retry fewer times.
	LowRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent page fetches.
	DefaultConcurrencyLimit = 3

	// BufferSize is the default buffer size for channels.
	BufferSize = 100

	// SmallBufferSize is used for smaller buffers.
	SmallBufferSize = 10

	// DefaultRateLimit is the client-side request rate for the CDA.
	// The CDA allows 50 req/s for cached requests.
	DefaultRateLimit = 50
)

// HTTP status codes commonly used.
const (
	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// Content Delivery API.
const (
	// APIPathPrefix is the CDA v2 path prefix.
	APIPathPrefix = "/v2/cdn"

	// APIPathStories is the stories endpoint.
	APIPathStories = "/stories"

	// APIPathLinks is the links endpoint.
	APIPathLinks = "/links"

	// APIPathTags is the tags endpoint.
	APIPathTags = "/tags"

	// APIPathDatasources is the datasources endpoint.
	APIPathDatasources = "/datasources"

	// APIPathDatasourceEntries is the datasource entries endpoint.
	APIPathDatasourceEntries = "/datasource_entries"

	// APIPathSpaceMe is the current space endpoint.
	APIPathSpaceMe = "/spaces/me"

	// HeaderTotal carries the total result count of a list request.
	HeaderTotal = "Total"

	// HeaderPerPage carries the effective page size of a list request.
	HeaderPerPage = "Per-Page"

	// VersionDraft requests unpublished content.
	VersionDraft = "draft"

	// VersionPublished requests published content.
	VersionPublished = "published"
)

// Pagination limits.
const (
	// DefaultPerPage is the CDA default page size.
	DefaultPerPage = 25

	// MaxPerPage is the largest page size accepted for stories.
	MaxPerPage = 100

	// MaxLinksPerPage is the largest page size accepted for links.
	MaxLinksPerPage = 1000

	// MaxPages is used to prevent infinite loops in pagination.
	MaxPages = 500

	// ResolveChunkSize is the number of uuids fetched per by_uuids request.
	ResolveChunkSize = 50
)

// Regional API hosts.
const (
	HostEU = "https://api.storyblok.com"
	HostUS = "https://api-us.storyblok.com"
	HostCA = "https://api-ca.storyblok.com"
	HostAP = "https://api-ap.storyblok.com"
	HostCN = "https://app.storyblokchina.cn"
)

// Preview.
const (
	// PreviewMaxAge is how long a visual editor token stays valid.
	PreviewMaxAge = time.Hour

	// PreviewCookieName stores the draft-mode session.
	PreviewCookieName = "sb_preview"

	// BridgeScriptURL is the Storyblok bridge loaded in draft mode.
	BridgeScriptURL = "https://app.storyblok.com/f/storyblok-v2-latest.js"

	// WebhookSignatureHeader carries the HMAC of a webhook body.
	WebhookSignatureHeader = "webhook-signature"

	// SSEKeepAlive is the heartbeat interval on preview event streams.
	SSEKeepAlive = 25 * time.Second

	// MaxBodySize caps webhook and preview request bodies.
	MaxBodySize = 1 << 20
)

// Circuit breaker.
const (
	// CircuitBreakerThreshold is the failure threshold for circuit breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerSuccessThreshold is the success threshold for circuit breaker.
	CircuitBreakerSuccessThreshold = 2

	// CircuitBreakerTimeout is the timeout for circuit breaker.
	CircuitBreakerTimeout = 30 * time.Second
)

// State constants.
const (
	// StatusClosed indicates a closed circuit.
	StatusClosed = "closed"

	// StatusOpen indicates an open state.
	StatusOpen = "open"

	// StatusHalfOpen indicates a half-open state.
	StatusHalfOpen = "half-open"
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// CLI.
const (
	// MinimumArgumentCount is the argument count for KEY VALUE commands.
	MinimumArgumentCount = 2

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// SecretVisibleChars is how many trailing characters of a token are shown.
	SecretVisibleChars = 4

	// DefaultListenAddr is the docs server listen address.
	DefaultListenAddr = ":8080"

	// DefaultHomeSlug is the story slug served at "/".
	DefaultHomeSlug = "home"

	// EventsSubject is the NATS subject carrying content events.
	EventsSubject = "storyblok.events"
)
