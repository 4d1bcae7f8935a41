package render

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func docsLinks() []storyblok.LinkEntry {
	return []storyblok.LinkEntry{
		{ID: 1, Slug: "docs", Name: "Docs", IsFolder: true, Published: true},
		{ID: 2, Slug: "docs/", Name: "Home", IsStartpage: true, Published: true, ParentID: int64Ptr(1)},
		{ID: 3, Slug: "docs/intro", Name: "Introduction", Published: true, ParentID: int64Ptr(1), Position: 0},
		{ID: 4, Slug: "docs/guides", Name: "Guides", IsFolder: true, ParentID: int64Ptr(1), Position: 10},
		{ID: 5, Slug: "docs/guides/install", Name: "Install", Published: true, ParentID: int64Ptr(4), Position: 0},
		{ID: 6, Slug: "docs/guides/draft", Name: "Draft", ParentID: int64Ptr(4), Position: 1},
		{ID: 7, Slug: "blog", Name: "Blog", IsFolder: true, Position: 1},
		{ID: 8, Slug: "blog/post", Name: "Post", Published: true, ParentID: int64Ptr(7)},
		{ID: 9, Slug: "docs/empty", Name: "Empty", IsFolder: true, ParentID: int64Ptr(1), Position: 20},
	}
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	tree := storyblok.BuildLinkTree(docsLinks())
	resolver := storyblok.NewPathResolver("docs")

	items := Navigation(tree, resolver, "", "/guides/install", false)
	assert.Equal(t, []NavItem{
		{Title: "Introduction", URL: "/intro"},
		{Title: "Guides", Folder: true, Children: []NavItem{
			{Title: "Install", URL: "/guides/install", Active: true},
		}},
	}, items)

	drafts := Navigation(tree, resolver, "", "/", true)
	require.Len(t, drafts, 2)
	assert.Len(t, drafts[1].Children, 2)
	assert.Equal(t, "/guides/draft", drafts[1].Children[1].URL)

	all := Navigation(tree, nil, "", "/docs", false)
	require.Len(t, all, 2)
	assert.Equal(t, "Docs", all[0].Title)
	assert.Equal(t, "/docs", all[0].URL)
	assert.Equal(t, "/docs/intro", all[0].Children[0].URL)
	assert.True(t, all[0].Active)
	assert.Equal(t, "Blog", all[1].Title)
	assert.Empty(t, all[1].URL)

	assert.Empty(t, Navigation(tree, storyblok.NewPathResolver("missing"), "", "/", false))
}

func TestLayout_Render(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout()
	require.NoError(t, err)

	page := &Page{
		Title:       "Intro <1>",
		Description: "About the docs",
		SiteName:    "Acme Docs",
		Content:     template.HTML(`<p class="text">hello</p>`),
		Headings:    []Heading{{Level: 1, ID: "intro", Text: "Intro"}, {Level: 2, ID: "setup", Text: "Setup"}},
		Nav:         []NavItem{{Title: "Intro", URL: "/intro", Active: true}},
		CurrentPath: "/intro",
	}

	var buf bytes.Buffer
	require.NoError(t, layout.Render(&buf, page))

	out := buf.String()
	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, `<title>Intro &lt;1&gt; | Acme Docs</title>`)
	assert.Contains(t, out, `<meta name="description" content="About the docs">`)
	assert.Contains(t, out, `<main id="content"><p class="text">hello</p></main>`)
	assert.Contains(t, out, `<a href="/intro" aria-current="page">Intro</a>`)
	assert.Contains(t, out, `<a href="#setup">Setup</a>`)
	assert.NotContains(t, out, `href="#intro"`)
	assert.NotContains(t, out, "StoryblokBridge")
	assert.NotContains(t, out, "noindex")
}

func TestLayout_RenderPreview(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, layout.Render(&buf, &Page{
		Title:    "Intro",
		Language: "de",
		Preview: &PreviewData{
			StoryID:          101,
			FullSlug:         "docs/intro",
			BridgeScriptURL:  constants.BridgeScriptURL,
			ResolveRelations: []string{"teaser.author"},
			RenderURL:        "/api/preview/render",
			EventsURL:        "/api/preview/events",
		},
	}))

	out := buf.String()
	assert.Contains(t, out, `<html lang="de">`)
	assert.Contains(t, out, `<script src="`+constants.BridgeScriptURL+`" async></script>`)
	assert.Contains(t, out, "new window.StoryblokBridge")
	assert.Contains(t, out, "101")
	assert.Contains(t, out, "teaser.author")
	assert.Contains(t, out, `<meta name="robots" content="noindex">`)
}

func TestLayout_RenderNotFound(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, layout.RenderNotFound(&buf, &Page{CurrentPath: "/missing<page>"}))

	out := buf.String()
	assert.Contains(t, out, "<title>Page not found | Docs</title>")
	assert.Contains(t, out, "<code>/missing&lt;page&gt;</code>")
}
