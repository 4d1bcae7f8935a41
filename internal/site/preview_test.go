package site

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-docs/internal/events"
)

const inputEvent = `{
	"action": "input",
	"storyId": 2,
	"story": {
		"id": 2,
		"uuid": "uuid-intro",
		"name": "Introduction",
		"full_slug": "docs/intro",
		"lang": "default",
		"content": {
			"component": "page",
			"_uid": "p1",
			"_editable": "<!--#storyblok#{\"name\": \"page\", \"space\": \"12345\", \"uid\": \"p1\", \"id\": \"2\"}-->",
			"body": [
				{"component": "button", "_uid": "b1", "label": "Go", "link": {"id": "uuid-target", "linktype": "story", "fieldtype": "multilink", "cached_url": "docs/old"}}
			]
		}
	}
}`

func TestPreviewRender(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received, err := env.bus.Subscribe(ctx)
	require.NoError(t, err)

	rec := env.do(newRequest(http.MethodPost, "/api/preview/render", inputEvent))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := newRequest(http.MethodPost, "/api/preview/render", inputEvent)
	req.AddCookie(previewCookie("preview"))

	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cacheDraft, rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.Contains(t, body, `data-blok-uid="2-p1"`)
	assert.Contains(t, body, `<a class="button button-primary" href="/target">Go</a>`)

	query := env.cda.lastRequest(t, "/stories")
	assert.Equal(t, "uuid-target", query.Get("by_uuids"))
	assert.Equal(t, "draft", query.Get("version"))
	assert.Equal(t, "preview", query.Get("token"))

	select {
	case event := <-received:
		assert.Equal(t, events.PreviewInput, event.Type)
		assert.Equal(t, int64(2), event.StoryID)
		assert.False(t, event.Reload())
	case <-time.After(time.Second):
		t.Fatal("no preview event published")
	}
}

func TestPreviewRender_InvalidEvents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testConfig())

	for _, body := range []string{
		`not json`,
		`{"action":"dance"}`,
		`{"action":"input"}`,
		`{"action":"change","storyId":2}`,
	} {
		req := newRequest(http.MethodPost, "/api/preview/render", body)
		req.AddCookie(previewCookie("preview"))

		assert.Equal(t, http.StatusBadRequest, env.do(req).Code, body)
	}
}

func readSSE(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()

	var name, data string

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)

		line = strings.TrimRight(line, "\n")

		switch {
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
}

func TestPreviewEvents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testConfig())

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/preview/events")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/preview/events", nil)
	require.NoError(t, err)
	req.AddCookie(previewCookie("preview"))

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)

	name, _ := readSSE(t, reader)
	require.Equal(t, "ready", name)
	require.Equal(t, 1, env.bus.Subscribers())

	published := events.New(events.StoryUnpublished)
	published.FullSlug = "docs/intro"
	require.NoError(t, env.bus.Publish(context.Background(), published))

	name, data := readSSE(t, reader)
	assert.Equal(t, "story", name)
	assert.Contains(t, data, `"full_slug":"docs/intro"`)
	assert.Contains(t, data, `"type":"story.unpublished"`)

	require.NoError(t, env.bus.Publish(context.Background(), events.New(events.PreviewInput)))

	name, _ = readSSE(t, reader)
	assert.Equal(t, "preview", name)

	assert.Contains(t, env.get("/metrics").Body.String(), "sbdocs_preview_clients 1")

	cancel()

	require.Eventually(t, func() bool { return env.bus.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPreviewEvents_Shutdown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testConfig())

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/preview/events", nil)
	require.NoError(t, err)
	req.AddCookie(previewCookie("preview"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)

	name, _ := readSSE(t, reader)
	require.Equal(t, "ready", name)

	env.server.closeStreams()

	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	t.Parallel()

	expires := testNow.Add(time.Hour)
	value := signSession("secret", "12345", expires)

	assert.True(t, verifySession("secret", value, testNow))
	assert.False(t, verifySession("secret", value, expires))
	assert.False(t, verifySession("other", value, testNow))
	assert.False(t, verifySession("", value, testNow))
	assert.False(t, verifySession("secret", "", testNow))
	assert.False(t, verifySession("secret", "nodots", testNow))
	assert.False(t, verifySession("secret", strings.Replace(value, "12345", "99999", 1), testNow))

	forged := "9999999999.12345." + sessionMAC("secret", "9999999999.12345")
	assert.True(t, verifySession("secret", forged, testNow))
	assert.False(t, verifySession("secret", "abc.12345."+sessionMAC("secret", "abc.12345"), testNow))
}
