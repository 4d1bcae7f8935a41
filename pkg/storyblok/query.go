package storyblok

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Filter operations of filter_query.
const (
	FilterIn         = "in"
	FilterNotIn      = "not_in"
	FilterLike       = "like"
	FilterNotLike    = "not_like"
	FilterAnyInArray = "any_in_array"
	FilterAllInArray = "all_in_array"
	FilterGtDate     = "gt_date"
	FilterLtDate     = "lt_date"
	FilterGtInt      = "gt_int"
	FilterLtInt      = "lt_int"
	FilterGtFloat    = "gt_float"
	FilterLtFloat    = "lt_float"
	FilterIsEmpty    = "is"
)

// QueryParams represents query parameters of the Content Delivery API.
type QueryParams struct {
	Page             int
	PerPage          int
	Version          Version
	StartsWith       string
	BySlugs          []string
	ExcludingSlugs   []string
	ByUUIDs          []string
	Tags             []string
	ContentType      string
	SortBy           string
	SearchTerm       string
	Language         string
	FallbackLang     string
	ResolveLinks     string
	ResolveRelations []string
	ExcludingFields  []string
	Datasource       string
	Dimension        string
	Paginated        bool

	// FilterQuery maps field -> operation -> value.
	FilterQuery map[string]map[string]string
	// Extra holds parameters without a dedicated field.
	Extra map[string]string
}

// NewQueryParams creates a new QueryParams instance.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		FilterQuery: make(map[string]map[string]string),
		Extra:       make(map[string]string),
	}
}

// Clone returns a deep copy. A nil receiver yields empty params.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := *q
	clone.BySlugs = cloneStrings(q.BySlugs)
	clone.ExcludingSlugs = cloneStrings(q.ExcludingSlugs)
	clone.ByUUIDs = cloneStrings(q.ByUUIDs)
	clone.Tags = cloneStrings(q.Tags)
	clone.ResolveRelations = cloneStrings(q.ResolveRelations)
	clone.ExcludingFields = cloneStrings(q.ExcludingFields)
	clone.Extra = maps.Clone(q.Extra)

	if clone.Extra == nil {
		clone.Extra = make(map[string]string)
	}

	clone.FilterQuery = make(map[string]map[string]string, len(q.FilterQuery))
	for field, ops := range q.FilterQuery {
		clone.FilterQuery[field] = maps.Clone(ops)
	}

	return &clone
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}

	return append([]string(nil), values...)
}

// ToValues converts QueryParams to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}

	if q.Version != "" {
		values.Set("version", string(q.Version))
	}

	setString(values, "starts_with", q.StartsWith)
	setList(values, "by_slugs", q.BySlugs)
	setList(values, "excluding_slugs", q.ExcludingSlugs)
	setList(values, "by_uuids", q.ByUUIDs)
	setList(values, "with_tag", q.Tags)
	setString(values, "content_type", q.ContentType)
	setString(values, "sort_by", q.SortBy)
	setString(values, "search_term", q.SearchTerm)
	setString(values, "language", q.Language)
	setString(values, "fallback_lang", q.FallbackLang)
	setString(values, "resolve_links", q.ResolveLinks)
	setList(values, "resolve_relations", q.ResolveRelations)
	setList(values, "excluding_fields", q.ExcludingFields)
	setString(values, "datasource", q.Datasource)
	setString(values, "dimension", q.Dimension)

	if q.Paginated {
		values.Set("paginated", "1")
	}

	for field, ops := range q.FilterQuery {
		for op, value := range ops {
			values.Set(fmt.Sprintf("filter_query[%s][%s]", field, op), value)
		}
	}

	for key, value := range q.Extra {
		values.Set(key, value)
	}

	return values
}

func setString(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

func setList(values url.Values, key string, list []string) {
	if len(list) > 0 {
		values.Set(key, strings.Join(list, ","))
	}
}

// WithPage sets the page number.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPerPage sets the page size.
func (q *QueryParams) WithPerPage(perPage int) *QueryParams {
	q.PerPage = perPage

	return q
}

// WithVersion sets the content version.
func (q *QueryParams) WithVersion(version Version) *QueryParams {
	q.Version = version

	return q
}

// WithStartsWith restricts stories to a folder, e.g. "docs/".
func (q *QueryParams) WithStartsWith(prefix string) *QueryParams {
	q.StartsWith = prefix

	return q
}

// WithBySlugs adds full slugs to fetch. Wildcards like "docs/*" are allowed.
func (q *QueryParams) WithBySlugs(slugs ...string) *QueryParams {
	q.BySlugs = append(q.BySlugs, slugs...)

	return q
}

// WithExcludingSlugs adds full slugs to exclude.
func (q *QueryParams) WithExcludingSlugs(slugs ...string) *QueryParams {
	q.ExcludingSlugs = append(q.ExcludingSlugs, slugs...)

	return q
}

// WithByUUIDs adds story uuids to fetch.
func (q *QueryParams) WithByUUIDs(uuids ...string) *QueryParams {
	q.ByUUIDs = append(q.ByUUIDs, uuids...)

	return q
}

// WithTag adds tags; stories must carry at least one.
func (q *QueryParams) WithTag(tags ...string) *QueryParams {
	q.Tags = append(q.Tags, tags...)

	return q
}

// WithContentType restricts stories to a root component.
func (q *QueryParams) WithContentType(component string) *QueryParams {
	q.ContentType = component

	return q
}

// WithSortBy sets the sort order, e.g. "position:asc".
func (q *QueryParams) WithSortBy(sortBy string) *QueryParams {
	q.SortBy = sortBy

	return q
}

// WithSearchTerm sets a full text search term.
func (q *QueryParams) WithSearchTerm(term string) *QueryParams {
	q.SearchTerm = term

	return q
}

// WithLanguage sets the language code.
func (q *QueryParams) WithLanguage(language string) *QueryParams {
	q.Language = language

	return q
}

// WithFallbackLang sets the fallback language code.
func (q *QueryParams) WithFallbackLang(language string) *QueryParams {
	q.FallbackLang = language

	return q
}

// WithResolveLinks sets link resolution: "url", "story" or "link".
func (q *QueryParams) WithResolveLinks(mode string) *QueryParams {
	q.ResolveLinks = mode

	return q
}

// WithResolveRelations adds "component.field" relations to resolve.
func (q *QueryParams) WithResolveRelations(relations ...string) *QueryParams {
	q.ResolveRelations = append(q.ResolveRelations, relations...)

	return q
}

// WithFilterQuery sets a filter_query operation on a content field.
func (q *QueryParams) WithFilterQuery(field, operation, value string) *QueryParams {
	if q.FilterQuery == nil {
		q.FilterQuery = make(map[string]map[string]string)
	}

	if q.FilterQuery[field] == nil {
		q.FilterQuery[field] = make(map[string]string)
	}

	q.FilterQuery[field][operation] = value

	return q
}

// WithExcludingFields drops content fields from the response.
func (q *QueryParams) WithExcludingFields(fields ...string) *QueryParams {
	q.ExcludingFields = append(q.ExcludingFields, fields...)

	return q
}

// WithDatasource sets the datasource slug for datasource entries.
func (q *QueryParams) WithDatasource(slug string) *QueryParams {
	q.Datasource = slug

	return q
}

// WithDimension sets the datasource dimension.
func (q *QueryParams) WithDimension(dimension string) *QueryParams {
	q.Dimension = dimension

	return q
}

// WithParam sets an arbitrary parameter.
func (q *QueryParams) WithParam(key, value string) *QueryParams {
	if q.Extra == nil {
		q.Extra = make(map[string]string)
	}

	q.Extra[key] = value

	return q
}
