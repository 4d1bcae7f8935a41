// Package http implements the transport of the CDA client: interceptors,
// retries with backoff, and error mapping.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fivetwenty-io/storyblok-docs/internal/auth"
	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "storyblok-docs/1.0"

// Request is a request to send through the client.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response is a received response, after response interceptors ran.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is the HTTP client used for CDA requests.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	interceptors *storyblok.InterceptorChain
	logger       storyblok.Logger
	userAgent    string
	debug        bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger storyblok.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			return
		}

		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets the retry count and the backoff bounds.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithInterceptors sets the interceptor chain.
func WithInterceptors(chain *storyblok.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = chain
		}
	}
}

// WithTimeout sets the timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// NewClient creates a new HTTP client. A non-nil token manager sets the token
// query parameter after the interceptor chain ran.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	retryClient.Backoff = retryablehttp.DefaultBackoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		interceptors: storyblok.NewInterceptorChain(),
		userAgent:    DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes a request.
//
// For status codes >= 400 both the response and a *storyblok.APIError are
// returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	intercepted, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.buildRequest(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": intercepted.Method,
			"path":   intercepted.Path,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &storyblok.Response{Error: err})

		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	intercepted.Metadata["duration"] = time.Since(start)

	sbResp := &storyblok.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, sbResp)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status_code": sbResp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	response := &Response{
		StatusCode: sbResp.StatusCode,
		Headers:    sbResp.Headers,
		Body:       sbResp.Body,
	}

	if response.StatusCode >= constants.HTTPStatusBadRequest {
		return response, storyblok.ParseResponseError(response.StatusCode, response.Body)
	}

	return response, nil
}

// prepare converts req and runs the request interceptors.
func (c *Client) prepare(ctx context.Context, req *Request) (*storyblok.Request, error) {
	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		body = encoded
	}

	query := make(url.Values, len(req.Query))
	for key, values := range req.Query {
		query[key] = append([]string(nil), values...)
	}

	headers := make(http.Header, len(req.Headers))
	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	intercepted := &storyblok.Request{
		Method:   req.Method,
		Path:     req.Path,
		Query:    query,
		Headers:  headers,
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	if c.tokenManager != nil && intercepted.Query.Get("token") == "" {
		token, err := c.tokenManager.GetToken(ctx, intercepted.Version())
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}

		intercepted.Query.Set("token", token)
	}

	return intercepted, nil
}

func (c *Client) buildRequest(ctx context.Context, req *storyblok.Request) (*retryablehttp.Request, error) {
	fullURL := c.baseURL + req.Path
	if encoded := req.Query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var rawBody interface{}
	if len(req.Body) > 0 {
		rawBody = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if rawBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, values := range req.Headers {
		httpReq.Header[key] = append([]string(nil), values...)
	}

	return httpReq, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// leveledLogger adapts storyblok.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger storyblok.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

var tokenPattern = regexp.MustCompile(`token=[^&\s)]+`)

// fieldsOf converts key/value pairs. Request values are reduced to their
// path and token parameters are masked.
func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])

		switch value := keysAndValues[i+1].(type) {
		case *http.Request:
			fields[key] = value.URL.Path
		case *url.URL:
			fields[key] = value.Path
		case fmt.Stringer:
			fields[key] = maskToken(value.String())
		case string:
			fields[key] = maskToken(value)
		default:
			fields[key] = value
		}
	}

	return fields
}

func maskToken(s string) string {
	return tokenPattern.ReplaceAllString(s, "token="+constants.MaskedSecret)
}
