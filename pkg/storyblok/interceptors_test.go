package storyblok_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(query url.Values) *storyblok.Request {
	return &storyblok.Request{
		Method:   http.MethodGet,
		Path:     "/stories",
		Query:    query,
		Metadata: make(map[string]interface{}),
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.record("error", msg) }

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	chain := storyblok.NewInterceptorChain()
	ctx := context.Background()

	var order []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *storyblok.Request) error {
		order = append(order, "request first")

		return nil
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *storyblok.Request, resp *storyblok.Response) error {
		order = append(order, "response first")

		return nil
	})

	extra := storyblok.NewInterceptorChain()
	extra.AddRequestInterceptor(func(ctx context.Context, req *storyblok.Request) error {
		order = append(order, "request second")

		return nil
	})
	extra.AddResponseInterceptor(func(ctx context.Context, req *storyblok.Request, resp *storyblok.Response) error {
		order = append(order, "response second")

		return nil
	})

	chain.Append(extra)
	chain.Append(nil)

	requests, responses := chain.Len()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 2, responses)

	req := newRequest(nil)
	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &storyblok.Response{StatusCode: 200}))

	assert.Equal(t, []string{"request first", "request second", "response first", "response second"}, order)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	called := false

	chain := storyblok.NewInterceptorChain()
	chain.AddRequestInterceptor(func(ctx context.Context, req *storyblok.Request) error {
		return boom
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *storyblok.Request) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), newRequest(nil))
	require.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestVersionInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := storyblok.VersionInterceptor(storyblok.VersionPublished)

	req := newRequest(nil)
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "published", req.Query.Get("version"))
	assert.Equal(t, storyblok.VersionPublished, req.Version())

	req = newRequest(url.Values{"version": []string{"draft"}})
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, storyblok.VersionDraft, req.Version())

	req = newRequest(url.Values{"version": []string{"preview"}})
	require.ErrorIs(t, interceptor(context.Background(), req), storyblok.ErrInvalidVersion)
}

func TestDefaultParamsInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := storyblok.DefaultParamsInterceptor(url.Values{
		"language":      []string{"de"},
		"resolve_links": []string{"url"},
	})

	req := newRequest(url.Values{"language": []string{"fr"}})
	require.NoError(t, interceptor(context.Background(), req))

	assert.Equal(t, "fr", req.Query.Get("language"))
	assert.Equal(t, "url", req.Query.Get("resolve_links"))
}

func TestAuthenticationInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := storyblok.AuthenticationInterceptor(func(ctx context.Context, version storyblok.Version) (string, error) {
		if version == storyblok.VersionDraft {
			return "", storyblok.ErrPreviewTokenRequired
		}

		return "public", nil
	})

	req := newRequest(url.Values{"version": []string{"published"}})
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "public", req.Query.Get("token"))

	req = newRequest(url.Values{"version": []string{"draft"}})
	require.ErrorIs(t, interceptor(context.Background(), req), storyblok.ErrPreviewTokenRequired)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := newRequest(nil)
	require.NoError(t, storyblok.HeaderInterceptor(map[string]string{"X-Trace": "abc"})(context.Background(), req))
	assert.Equal(t, "abc", req.Headers.Get("X-Trace"))
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	t.Run("burst within capacity", func(t *testing.T) {
		t.Parallel()

		interceptor := storyblok.RateLimitInterceptor(100)

		start := time.Now()
		for i := 0; i < 100; i++ {
			require.NoError(t, interceptor(context.Background(), newRequest(nil)))
		}

		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("waits for a token", func(t *testing.T) {
		t.Parallel()

		interceptor := storyblok.RateLimitInterceptor(10)

		for i := 0; i < 10; i++ {
			require.NoError(t, interceptor(context.Background(), newRequest(nil)))
		}

		start := time.Now()
		require.NoError(t, interceptor(context.Background(), newRequest(nil)))
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		interceptor := storyblok.RateLimitInterceptor(1)
		require.NoError(t, interceptor(context.Background(), newRequest(nil)))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, interceptor(ctx, newRequest(nil)), context.Canceled)
	})
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	collector := storyblok.NewMetricsCollector()

	var changes int

	collector.SetOnChange(func(endpoint string, metrics storyblok.Metrics) {
		changes++
	})

	request := storyblok.MetricsRequestInterceptor()
	response := storyblok.MetricsResponseInterceptor(collector)

	for _, status := range []int{200, 404} {
		req := newRequest(nil)
		require.NoError(t, request(context.Background(), req))
		require.NoError(t, response(context.Background(), req, &storyblok.Response{StatusCode: status}))
	}

	metrics := collector.GetMetrics("GET /stories")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.Equal(t, 2, changes)
	assert.Nil(t, collector.GetMetrics("GET /links"))
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	breaker := storyblok.NewCircuitBreaker(&storyblok.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 1,
	})

	before := storyblok.CircuitBreakerRequestInterceptor(breaker)
	after := storyblok.CircuitBreakerResponseInterceptor(breaker)
	ctx := context.Background()
	req := newRequest(nil)

	// client errors do not count
	require.NoError(t, after(ctx, req, &storyblok.Response{StatusCode: 404}))
	require.NoError(t, after(ctx, req, &storyblok.Response{StatusCode: 404}))
	assert.Equal(t, "closed", breaker.State())

	require.NoError(t, after(ctx, req, &storyblok.Response{StatusCode: 503}))
	require.NoError(t, after(ctx, req, &storyblok.Response{Error: errors.New("connection refused")}))
	assert.Equal(t, "open", breaker.State())
	require.ErrorIs(t, before(ctx, req), storyblok.ErrCircuitBreakerOpen)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, before(ctx, req))
	assert.Equal(t, "half-open", breaker.State())

	require.NoError(t, after(ctx, req, &storyblok.Response{StatusCode: 200}))
	assert.Equal(t, "closed", breaker.State())
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	req := newRequest(url.Values{"token": []string{"secret"}})

	require.NoError(t, storyblok.LoggingInterceptor(logger)(context.Background(), req))
	require.NoError(t, storyblok.LoggingResponseInterceptor(logger)(context.Background(), req, &storyblok.Response{StatusCode: 200}))
	require.NoError(t, storyblok.LoggingResponseInterceptor(logger)(context.Background(), req, &storyblok.Response{StatusCode: 500}))

	assert.Equal(t, []string{"debug: API Request", "debug: API Response", "error: API Response Error"}, logger.entries)
}
