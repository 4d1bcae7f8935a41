package storyblok

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// CacheVersion tracks the space's cache version (cv). Published requests
// carry the last seen value so the CDN serves a consistent snapshot; draft
// requests carry the current time to bypass it. It stores no content.
type CacheVersion struct {
	mu    sync.Mutex
	value int64
	// floor is the highest value discarded by Flush. Responses that were in
	// flight during a flush carry a cv at or below it.
	floor int64
	now   func() time.Time
}

// NewCacheVersion creates an empty tracker.
func NewCacheVersion() *CacheVersion {
	return &CacheVersion{now: time.Now}
}

// Get returns the last seen cache version, or 0.
func (c *CacheVersion) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Set stores cv if it is newer than the current value and than any value
// discarded by Flush.
func (c *CacheVersion) Set(cv int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cv <= c.value || cv <= c.floor {
		return
	}

	c.value = cv
}

// Flush forgets the stored value. The next published request fetches a fresh
// cache version, e.g. after a publish webhook.
func (c *CacheVersion) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.floor = max(c.floor, c.value)
	c.value = 0
}

// CacheVersionRequestInterceptor sets the cv query parameter.
func CacheVersionRequestInterceptor(tracker *CacheVersion) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Query == nil {
			req.Query = make(url.Values)
		}

		if req.Query.Get("cv") != "" {
			return nil
		}

		if req.Version() == VersionDraft {
			req.Query.Set("cv", strconv.FormatInt(tracker.now().Unix(), 10))

			return nil
		}

		if cv := tracker.Get(); cv > 0 {
			req.Query.Set("cv", strconv.FormatInt(cv, 10))
		}

		return nil
	}
}

// CacheVersionResponseInterceptor records the cv of successful published
// responses.
func CacheVersionResponseInterceptor(tracker *CacheVersion) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		if resp.Error != nil || resp.StatusCode >= 300 || len(resp.Body) == 0 {
			return nil
		}

		if req.Version() == VersionDraft {
			return nil
		}

		var envelope struct {
			CV int64 `json:"cv"`
		}

		if json.Unmarshal(resp.Body, &envelope) == nil && envelope.CV > 0 {
			tracker.Set(envelope.CV)
		}

		return nil
	}
}
