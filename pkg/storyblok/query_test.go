package storyblok_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/assert"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *storyblok.QueryParams
		expected url.Values
	}{
		{
			name:     "nil params",
			params:   nil,
			expected: url.Values{},
		},
		{
			name:     "empty params",
			params:   storyblok.NewQueryParams(),
			expected: url.Values{},
		},
		{
			name:   "pagination",
			params: storyblok.NewQueryParams().WithPage(2).WithPerPage(50),
			expected: url.Values{
				"page":     []string{"2"},
				"per_page": []string{"50"},
			},
		},
		{
			name: "story filters",
			params: storyblok.NewQueryParams().
				WithVersion(storyblok.VersionDraft).
				WithStartsWith("docs/").
				WithBySlugs("docs/intro", "docs/setup/*").
				WithExcludingSlugs("docs/drafts/*").
				WithContentType("page").
				WithSortBy("position:asc").
				WithSearchTerm("install"),
			expected: url.Values{
				"version":         []string{"draft"},
				"starts_with":     []string{"docs/"},
				"by_slugs":        []string{"docs/intro,docs/setup/*"},
				"excluding_slugs": []string{"docs/drafts/*"},
				"content_type":    []string{"page"},
				"sort_by":         []string{"position:asc"},
				"search_term":     []string{"install"},
			},
		},
		{
			name: "filter query",
			params: storyblok.NewQueryParams().
				WithFilterQuery("category", storyblok.FilterIn, "guide,tutorial").
				WithFilterQuery("weight", storyblok.FilterGtInt, "3").
				WithFilterQuery("weight", storyblok.FilterLtInt, "10"),
			expected: url.Values{
				"filter_query[category][in]":   []string{"guide,tutorial"},
				"filter_query[weight][gt_int]": []string{"3"},
				"filter_query[weight][lt_int]": []string{"10"},
			},
		},
		{
			name: "resolution and language",
			params: storyblok.NewQueryParams().
				WithResolveLinks("story").
				WithResolveRelations("page.author", "teaser.reference").
				WithLanguage("de").
				WithFallbackLang("en").
				WithExcludingFields("body", "seo"),
			expected: url.Values{
				"resolve_links":     []string{"story"},
				"resolve_relations": []string{"page.author,teaser.reference"},
				"language":          []string{"de"},
				"fallback_lang":     []string{"en"},
				"excluding_fields":  []string{"body,seo"},
			},
		},
		{
			name: "tags uuids and datasources",
			params: storyblok.NewQueryParams().
				WithTag("api", "guide").
				WithByUUIDs("a", "b").
				WithDatasource("categories").
				WithDimension("de"),
			expected: url.Values{
				"with_tag":   []string{"api,guide"},
				"by_uuids":   []string{"a,b"},
				"datasource": []string{"categories"},
				"dimension":  []string{"de"},
			},
		},
		{
			name: "paginated links and extra",
			params: func() *storyblok.QueryParams {
				params := storyblok.NewQueryParams().WithParam("include_dates", "1")
				params.Paginated = true

				return params
			}(),
			expected: url.Values{
				"paginated":     []string{"1"},
				"include_dates": []string{"1"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.params.ToValues())
		})
	}
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := storyblok.NewQueryParams().
		WithBySlugs("a").
		WithFilterQuery("category", storyblok.FilterIn, "guide").
		WithParam("x", "1")

	clone := original.Clone()
	clone.WithBySlugs("b").WithFilterQuery("category", storyblok.FilterIn, "api").WithParam("x", "2")
	clone.Page = 3

	assert.Equal(t, []string{"a"}, original.BySlugs)
	assert.Equal(t, "guide", original.FilterQuery["category"][storyblok.FilterIn])
	assert.Equal(t, "1", original.Extra["x"])
	assert.Equal(t, 0, original.Page)

	var nilParams *storyblok.QueryParams

	assert.NotNil(t, nilParams.Clone())
}

func TestQueryParams_ZeroValueBuilders(t *testing.T) {
	t.Parallel()

	params := &storyblok.QueryParams{}
	params.WithFilterQuery("tags", storyblok.FilterAnyInArray, "api").WithParam("k", "v")

	values := params.ToValues()
	assert.Equal(t, "api", values.Get("filter_query[tags][any_in_array]"))
	assert.Equal(t, "v", values.Get("k"))
}
