package storyblok

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheVersion_SetKeepsNewest(t *testing.T) {
	t.Parallel()

	tracker := NewCacheVersion()
	assert.Equal(t, int64(0), tracker.Get())

	tracker.Set(100)
	tracker.Set(50)
	assert.Equal(t, int64(100), tracker.Get())

	tracker.Flush()
	assert.Equal(t, int64(0), tracker.Get())

	tracker.Set(50)
	assert.Zero(t, tracker.Get(), "values older than the flushed one are ignored")

	tracker.Set(150)
	assert.Equal(t, int64(150), tracker.Get())
}

func TestCacheVersion_FlushIgnoresLateResponses(t *testing.T) {
	t.Parallel()

	tracker := NewCacheVersion()
	tracker.Set(100)
	tracker.Flush()

	response := CacheVersionResponseInterceptor(tracker)
	request := CacheVersionRequestInterceptor(tracker)

	inFlight := &Request{Query: url.Values{"version": []string{"published"}}}
	require.NoError(t, response(context.Background(), inFlight, &Response{StatusCode: 200, Body: []byte(`{"cv":100}`)}))
	assert.Zero(t, tracker.Get())

	next := &Request{Query: url.Values{"version": []string{"published"}}}
	require.NoError(t, request(context.Background(), next))
	assert.Empty(t, next.Query.Get("cv"))

	require.NoError(t, response(context.Background(), next, &Response{StatusCode: 200, Body: []byte(`{"cv":200}`)}))
	assert.Equal(t, int64(200), tracker.Get())
}

func TestCacheVersion_Concurrent(t *testing.T) {
	t.Parallel()

	tracker := NewCacheVersion()

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)

		go func(cv int64) {
			defer wg.Done()
			tracker.Set(cv)
		}(int64(i))
	}

	wg.Wait()
	assert.Equal(t, int64(100), tracker.Get())
}

func TestCacheVersionRequestInterceptor(t *testing.T) {
	t.Parallel()

	tracker := NewCacheVersion()
	tracker.now = func() time.Time { return time.Unix(1700000999, 0) }
	interceptor := CacheVersionRequestInterceptor(tracker)

	published := &Request{Query: url.Values{"version": []string{"published"}}}
	require.NoError(t, interceptor(context.Background(), published))
	assert.Empty(t, published.Query.Get("cv"))

	tracker.Set(1700000000)

	published = &Request{Query: url.Values{"version": []string{"published"}}}
	require.NoError(t, interceptor(context.Background(), published))
	assert.Equal(t, "1700000000", published.Query.Get("cv"))

	draft := &Request{Query: url.Values{"version": []string{"draft"}}}
	require.NoError(t, interceptor(context.Background(), draft))
	assert.Equal(t, "1700000999", draft.Query.Get("cv"))

	explicit := &Request{Query: url.Values{"cv": []string{"42"}}}
	require.NoError(t, interceptor(context.Background(), explicit))
	assert.Equal(t, "42", explicit.Query.Get("cv"))
}

func TestCacheVersionResponseInterceptor(t *testing.T) {
	t.Parallel()

	tracker := NewCacheVersion()
	interceptor := CacheVersionResponseInterceptor(tracker)
	ctx := context.Background()

	published := &Request{Query: url.Values{"version": []string{"published"}}}
	draft := &Request{Query: url.Values{"version": []string{"draft"}}}

	require.NoError(t, interceptor(ctx, draft, &Response{StatusCode: 200, Body: []byte(`{"cv": 9999999999}`)}))
	assert.Equal(t, int64(0), tracker.Get())

	require.NoError(t, interceptor(ctx, published, &Response{StatusCode: 404, Body: []byte(`{"cv": 5}`)}))
	assert.Equal(t, int64(0), tracker.Get())

	require.NoError(t, interceptor(ctx, published, &Response{StatusCode: 200, Body: []byte(`not json`)}))
	assert.Equal(t, int64(0), tracker.Get())

	require.NoError(t, interceptor(ctx, published, &Response{StatusCode: 200, Body: []byte(`{"story": {}, "cv": 1700000001}`)}))
	assert.Equal(t, int64(1700000001), tracker.Get())
}
