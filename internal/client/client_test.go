package client_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/fivetwenty-io/storyblok-docs/internal/client"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		config      *storyblok.Config
		expectedErr error
	}{
		{
			name:        "nil config",
			config:      nil,
			expectedErr: storyblok.ErrConfigRequired,
		},
		{
			name:        "no tokens",
			config:      &storyblok.Config{BaseURL: "https://api.storyblok.com"},
			expectedErr: client.ErrTokenRequired,
		},
		{
			name:        "no base URL",
			config:      &storyblok.Config{AccessToken: "token"},
			expectedErr: client.ErrBaseURLRequired,
		},
		{
			name:        "invalid version",
			config:      &storyblok.Config{BaseURL: "https://api.storyblok.com", AccessToken: "token", Version: "latest"},
			expectedErr: storyblok.ErrInvalidVersion,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := client.New(context.Background(), tt.config)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestClient_RequestPipeline(t *testing.T) {
	t.Parallel()

	t.Run("published request", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)
		fake.handleJSON("/v2/cdn/stories/docs/intro", map[string]interface{}{
			"story": map[string]interface{}{"full_slug": "docs/intro", "name": "Intro"},
			"cv":    1700000001,
		})

		c := newTestClient(t, fake.URL, func(config *storyblok.Config) {
			config.Language = "de"
		})

		resp, err := c.Stories().Get(context.Background(), "docs/intro", nil)
		require.NoError(t, err)
		assert.Equal(t, "Intro", resp.Story.Name)

		requests := fake.recorded()
		require.Len(t, requests, 1)

		query := requests[0].URL.Query()
		assert.Equal(t, "public-token", query.Get("token"))
		assert.Equal(t, "published", query.Get("version"))
		assert.Equal(t, "de", query.Get("language"))
		assert.Empty(t, query.Get("cv"))
		assert.Equal(t, int64(1700000001), c.CacheVersion().Get())
	})

	t.Run("subsequent requests carry cv", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)
		fake.handleJSON("/v2/cdn/stories/home", map[string]interface{}{
			"story": map[string]interface{}{"full_slug": "home"},
			"cv":    1700000002,
		})

		c := newTestClient(t, fake.URL)

		_, err := c.Stories().Get(context.Background(), "home", nil)
		require.NoError(t, err)

		_, err = c.Stories().Get(context.Background(), "home", nil)
		require.NoError(t, err)

		requests := fake.recorded()
		require.Len(t, requests, 2)
		assert.Equal(t, "1700000002", requests[1].URL.Query().Get("cv"))

		c.CacheVersion().Flush()

		_, err = c.Stories().Get(context.Background(), "home", nil)
		require.NoError(t, err)
		assert.Empty(t, fake.recorded()[2].URL.Query().Get("cv"))
	})

	t.Run("draft request uses preview token and timestamp cv", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)
		fake.handleJSON("/v2/cdn/stories/home", map[string]interface{}{
			"story": map[string]interface{}{"full_slug": "home"},
			"cv":    1,
		})

		c := newTestClient(t, fake.URL, func(config *storyblok.Config) {
			config.Version = storyblok.VersionDraft
		})

		_, err := c.Stories().Get(context.Background(), "home", nil)
		require.NoError(t, err)

		query := fake.recorded()[0].URL.Query()
		assert.Equal(t, "preview-token", query.Get("token"))
		assert.Equal(t, "draft", query.Get("version"))

		cv, err := strconv.ParseInt(query.Get("cv"), 10, 64)
		require.NoError(t, err)
		assert.Positive(t, cv)

		// Draft responses never move the published cv.
		assert.Zero(t, c.CacheVersion().Get())
	})

	t.Run("draft without preview token fails before sending", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)

		c := newTestClient(t, fake.URL, func(config *storyblok.Config) {
			config.PreviewToken = ""
		})

		_, err := c.Stories().Get(context.Background(), "home", storyblok.NewQueryParams().WithVersion(storyblok.VersionDraft))
		require.ErrorIs(t, err, storyblok.ErrPreviewTokenRequired)
		assert.Empty(t, fake.recorded())
	})

	t.Run("metrics and extra interceptors", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)
		fake.handle("/v2/cdn/stories/home", func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "docs", request.Header.Get("X-Site"))
			writeJSON(writer, map[string]interface{}{"story": map[string]interface{}{"full_slug": "home"}})
		})

		collector := storyblok.NewMetricsCollector()
		extra := storyblok.NewInterceptorChain()
		extra.AddRequestInterceptor(storyblok.HeaderInterceptor(map[string]string{"X-Site": "docs"}))

		c := newTestClient(t, fake.URL, func(config *storyblok.Config) {
			config.MetricsRecorder = collector
			config.Interceptors = extra
		})

		_, err := c.Stories().Get(context.Background(), "home", nil)
		require.NoError(t, err)

		metrics := collector.GetMetrics("GET /v2/cdn/stories/home")
		require.NotNil(t, metrics)
		assert.Equal(t, int64(1), metrics.TotalRequests)
		assert.Zero(t, metrics.TotalErrors)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCDA(t)
		c := newTestClient(t, fake.URL)

		_, err := c.Stories().Get(context.Background(), "missing", nil)
		require.Error(t, err)
		assert.True(t, storyblok.IsNotFound(err))
	})
}

func TestClient_LinkResolution(t *testing.T) {
	t.Parallel()

	fake := newFakeCDA(t)
	fake.handleJSON("/v2/cdn/stories/docs/intro", map[string]interface{}{
		"story": map[string]interface{}{
			"uuid":      "main",
			"full_slug": "docs/intro",
			"content": map[string]interface{}{
				"component": "page",
				"_uid":      "1",
				"cta": map[string]interface{}{
					"fieldtype":  "multilink",
					"linktype":   "story",
					"id":         "uuid-a",
					"cached_url": "docs/a",
				},
				"related": "uuid-r",
				"body": []interface{}{
					map[string]interface{}{
						"component": "text",
						"_uid":      "2",
						"text": map[string]interface{}{
							"type": "doc",
							"content": []interface{}{
								map[string]interface{}{
									"type": "paragraph",
									"content": []interface{}{
										map[string]interface{}{
											"type": "text",
											"text": "see",
											"marks": []interface{}{
												map[string]interface{}{
													"type":  "link",
													"attrs": map[string]interface{}{"linktype": "story", "uuid": "uuid-b"},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
		"cv":         5,
		"links":      []interface{}{map[string]interface{}{"uuid": "uuid-a", "full_slug": "docs/a", "name": "A"}},
		"link_uuids": []string{"uuid-a", "uuid-b"},
		"rels":       []interface{}{map[string]interface{}{"uuid": "uuid-r", "full_slug": "docs/r", "name": "Related"}},
	})
	fake.handle("/v2/cdn/stories", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "uuid-b", request.URL.Query().Get("by_uuids"))
		writeJSON(writer, map[string]interface{}{
			"stories": []interface{}{map[string]interface{}{"uuid": "uuid-b", "full_slug": "docs/b", "name": "B"}},
		})
	})

	c := newTestClient(t, fake.URL)

	params := storyblok.NewQueryParams().
		WithResolveLinks("story").
		WithResolveRelations("page.related")

	resp, err := c.Stories().Get(context.Background(), "docs/intro", params)
	require.NoError(t, err)

	content := resp.Story.Content

	link := content.Link("cta")
	require.NotNil(t, link)
	require.NotNil(t, link.Story)
	assert.Equal(t, "docs/a", link.Story.FullSlug)

	related, ok := content["related"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "docs/r", related["full_slug"])

	attrs := richtextLinkAttrs(t, content.Bloks("body")[0])
	story, ok := attrs["story"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "docs/b", story["full_slug"])

	requests := fake.recorded()
	require.Len(t, requests, 2)

	nested := requests[1].URL.Query()
	assert.Equal(t, "published", nested.Get("version"))
	assert.Equal(t, "5", nested.Get("cv"))
	assert.Empty(t, nested.Get("resolve_links"))
}

func richtextLinkAttrs(t *testing.T, blok storyblok.Blok) map[string]interface{} {
	t.Helper()

	doc, ok := blok["text"].(map[string]interface{})
	require.True(t, ok)

	paragraph := doc["content"].([]interface{})[0].(map[string]interface{})
	text := paragraph["content"].([]interface{})[0].(map[string]interface{})
	mark := text["marks"].([]interface{})[0].(map[string]interface{})

	attrs, ok := mark["attrs"].(map[string]interface{})
	require.True(t, ok)

	return attrs
}
