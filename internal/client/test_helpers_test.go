package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/fivetwenty-io/storyblok-docs/internal/client"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/require"
)

// fakeCDA records requests and answers them with registered handlers.
type fakeCDA struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	handlers map[string]http.HandlerFunc
}

func newFakeCDA(t *testing.T) *fakeCDA {
	t.Helper()

	fake := &fakeCDA{handlers: make(map[string]http.HandlerFunc)}

	fake.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		fake.requests = append(fake.requests, request.Clone(context.Background()))
		handler, ok := fake.handlers[request.URL.Path]
		fake.mu.Unlock()

		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`["This record could not be found"]`))

			return
		}

		handler(writer, request)
	}))

	t.Cleanup(fake.Close)

	return fake
}

func (f *fakeCDA) handle(path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handlers[path] = handler
}

func (f *fakeCDA) handleJSON(path string, body interface{}) {
	f.handle(path, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, body)
	})
}

func (f *fakeCDA) recorded() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*http.Request(nil), f.requests...)
}

func writeJSON(writer http.ResponseWriter, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(body)
}

// pagedHandler serves items in pages, setting the Total and Per-Page headers.
func pagedHandler[T any](key string, items []T) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		page, _ := strconv.Atoi(request.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		perPage, _ := strconv.Atoi(request.URL.Query().Get("per_page"))
		if perPage < 1 {
			perPage = 25
		}

		start := min((page-1)*perPage, len(items))
		end := min(start+perPage, len(items))

		writer.Header().Set("Total", strconv.Itoa(len(items)))
		writer.Header().Set("Per-Page", strconv.Itoa(perPage))
		writeJSON(writer, map[string]interface{}{key: items[start:end], "cv": 1700000000})
	}
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*storyblok.Config)) *client.Client {
	t.Helper()

	config := &storyblok.Config{
		BaseURL:      baseURL,
		AccessToken:  "public-token",
		PreviewToken: "preview-token",
		RateLimit:    1000,
	}

	for _, fn := range mutate {
		fn(config)
	}

	c, err := client.New(context.Background(), config)
	require.NoError(t, err)

	return c
}

func makeStories(n int) []storyblok.Story {
	stories := make([]storyblok.Story, 0, n)
	for i := 1; i <= n; i++ {
		stories = append(stories, storyblok.Story{
			ID:       int64(i),
			Name:     "Story " + strconv.Itoa(i),
			Slug:     "story-" + strconv.Itoa(i),
			FullSlug: "docs/story-" + strconv.Itoa(i),
		})
	}

	return stories
}
