package storyblok

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// Version selects draft or published content.
type Version string

const (
	// VersionDraft returns the latest saved, possibly unpublished content.
	VersionDraft Version = constants.VersionDraft

	// VersionPublished returns published content only.
	VersionPublished Version = constants.VersionPublished
)

// Valid reports whether v is a known version.
func (v Version) Valid() bool {
	return v == VersionDraft || v == VersionPublished
}

// Region identifies the data center a space lives in.
type Region string

const (
	RegionEU Region = "eu"
	RegionUS Region = "us"
	RegionCA Region = "ca"
	RegionAP Region = "ap"
	RegionCN Region = "cn"
)

// BaseURL returns the API host for the region. Unknown regions fall back to EU.
func (r Region) BaseURL() string {
	switch Region(strings.ToLower(string(r))) {
	case RegionUS:
		return constants.HostUS
	case RegionCA:
		return constants.HostCA
	case RegionAP:
		return constants.HostAP
	case RegionCN:
		return constants.HostCN
	default:
		return constants.HostEU
	}
}

// Story represents a single content entry.
type Story struct {
	ID               int64             `json:"id"                           yaml:"id"`
	UUID             string            `json:"uuid"                         yaml:"uuid"`
	Name             string            `json:"name"                         yaml:"name"`
	Slug             string            `json:"slug"                         yaml:"slug"`
	FullSlug         string            `json:"full_slug"                    yaml:"full_slug"`
	Content          Blok              `json:"content"                      yaml:"content"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"         yaml:"created_at,omitempty"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"       yaml:"published_at,omitempty"`
	FirstPublishedAt *time.Time        `json:"first_published_at,omitempty" yaml:"first_published_at,omitempty"`
	SortByDate       *string           `json:"sort_by_date,omitempty"       yaml:"sort_by_date,omitempty"`
	Position         int               `json:"position"                     yaml:"position"`
	TagList          []string          `json:"tag_list"                     yaml:"tag_list"`
	IsStartpage      bool              `json:"is_startpage"                 yaml:"is_startpage"`
	ParentID         *int64            `json:"parent_id,omitempty"          yaml:"parent_id,omitempty"`
	GroupID          string            `json:"group_id,omitempty"           yaml:"group_id,omitempty"`
	Lang             string            `json:"lang,omitempty"               yaml:"lang,omitempty"`
	Path             *string           `json:"path,omitempty"               yaml:"path,omitempty"`
	DefaultFullSlug  *string           `json:"default_full_slug,omitempty"  yaml:"default_full_slug,omitempty"`
	Alternates       []StoryAlternate  `json:"alternates,omitempty"         yaml:"alternates,omitempty"`
	TranslatedSlugs  []TranslatedSlug  `json:"translated_slugs,omitempty"   yaml:"translated_slugs,omitempty"`
	MetaData         map[string]string `json:"meta_data,omitempty"          yaml:"meta_data,omitempty"`
}

// StoryAlternate references the same story in another folder or language.
type StoryAlternate struct {
	ID        int64  `json:"id"                  yaml:"id"`
	Name      string `json:"name"                yaml:"name"`
	Slug      string `json:"slug"                yaml:"slug"`
	FullSlug  string `json:"full_slug"           yaml:"full_slug"`
	Published bool   `json:"published"           yaml:"published"`
	IsFolder  bool   `json:"is_folder"           yaml:"is_folder"`
	ParentID  *int64 `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}

// TranslatedSlug is the slug of a story in a given language.
type TranslatedSlug struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	Lang string `json:"lang" yaml:"lang"`
}

// LinkEntry is a lightweight story reference from the links endpoint.
type LinkEntry struct {
	ID          int64  `json:"id"                  yaml:"id"`
	UUID        string `json:"uuid"                yaml:"uuid"`
	Slug        string `json:"slug"                yaml:"slug"`
	Name        string `json:"name"                yaml:"name"`
	Path        string `json:"path,omitempty"      yaml:"path,omitempty"`
	RealPath    string `json:"real_path"           yaml:"real_path"`
	IsFolder    bool   `json:"is_folder"           yaml:"is_folder"`
	IsStartpage bool   `json:"is_startpage"        yaml:"is_startpage"`
	Published   bool   `json:"published"           yaml:"published"`
	ParentID    *int64 `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Position    int    `json:"position"            yaml:"position"`
}

// LinkNode is a LinkEntry with its children, as built by LinksClient.Tree.
type LinkNode struct {
	LinkEntry `yaml:",inline"`

	Children []*LinkNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tag is a story tag with its usage count.
type Tag struct {
	Name          string `json:"name"           yaml:"name"`
	TaggingsCount int    `json:"taggings_count" yaml:"taggings_count"`
}

// Datasource is a key/value collection defined in the space.
type Datasource struct {
	ID         int64                 `json:"id"         yaml:"id"`
	Name       string                `json:"name"       yaml:"name"`
	Slug       string                `json:"slug"       yaml:"slug"`
	Dimensions []DatasourceDimension `json:"dimensions" yaml:"dimensions"`
}

// DatasourceDimension is an alternative value set of a datasource.
type DatasourceDimension struct {
	ID           int64  `json:"id"            yaml:"id"`
	Name         string `json:"name"          yaml:"name"`
	EntryValue   string `json:"entry_value"   yaml:"entry_value"`
	DatasourceID int64  `json:"datasource_id" yaml:"datasource_id"`
}

// DatasourceEntry is a single key/value pair.
type DatasourceEntry struct {
	ID             int64   `json:"id"              yaml:"id"`
	Name           string  `json:"name"            yaml:"name"`
	Value          string  `json:"value"           yaml:"value"`
	DimensionValue *string `json:"dimension_value" yaml:"dimension_value"`
}

// Space describes the space the access token belongs to.
type Space struct {
	ID            int64    `json:"id"             yaml:"id"`
	Name          string   `json:"name"           yaml:"name"`
	Domain        string   `json:"domain"         yaml:"domain"`
	Version       int64    `json:"version"        yaml:"version"`
	LanguageCodes []string `json:"language_codes" yaml:"language_codes"`
}

// Pagination is derived from the Total and Per-Page response headers.
type Pagination struct {
	Page    int `json:"page"     yaml:"page"`
	PerPage int `json:"per_page" yaml:"per_page"`
	Total   int `json:"total"    yaml:"total"`
}

// TotalPages returns the number of pages for the current page size.
func (p Pagination) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}

	return (p.Total + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages()
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Pagination Pagination `json:"pagination"      yaml:"pagination"`
	Resources  []T        `json:"resources"       yaml:"resources"`
	CV         int64      `json:"cv,omitempty"    yaml:"cv,omitempty"`
	Rels       []Story    `json:"rels,omitempty"  yaml:"rels,omitempty"`
	Links      []Story    `json:"links,omitempty" yaml:"links,omitempty"`
}

// StoryResponse wraps a single story with its resolved references.
type StoryResponse struct {
	Story Story   `json:"story"           yaml:"story"`
	CV    int64   `json:"cv"              yaml:"cv"`
	Rels  []Story `json:"rels,omitempty"  yaml:"rels,omitempty"`
	Links []Story `json:"links,omitempty" yaml:"links,omitempty"`
}

// Blok is the content of a story or a nested component. Field types depend on
// the component schema defined in the space.
type Blok map[string]interface{}

// Component returns the technical component name.
func (b Blok) Component() string {
	return b.String("component")
}

// UID returns the component instance id.
func (b Blok) UID() string {
	return b.String("_uid")
}

// Editable returns the visual editor comment, present on draft content only.
func (b Blok) Editable() string {
	return b.String("_editable")
}

// Field returns the raw value of a field.
func (b Blok) Field(name string) (interface{}, bool) {
	v, ok := b[name]

	return v, ok
}

// String returns a string field or "".
func (b Blok) String(name string) string {
	if s, ok := b[name].(string); ok {
		return s
	}

	return ""
}

// Bool returns a boolean field or false.
func (b Blok) Bool(name string) bool {
	if v, ok := b[name].(bool); ok {
		return v
	}

	return false
}

// Bloks returns a nested blocks field.
func (b Blok) Bloks(name string) []Blok {
	raw, ok := b[name].([]interface{})
	if !ok {
		if typed, ok := b[name].([]Blok); ok {
			return typed
		}

		return nil
	}

	out := make([]Blok, 0, len(raw))

	for _, item := range raw {
		switch v := item.(type) {
		case map[string]interface{}:
			out = append(out, Blok(v))
		case Blok:
			out = append(out, v)
		}
	}

	return out
}

// Link decodes a multilink field.
func (b Blok) Link(name string) *MultiLink {
	raw, ok := b[name]
	if !ok || raw == nil {
		return nil
	}

	var link MultiLink
	if !decodeInto(raw, &link) {
		return nil
	}

	return &link
}

// Asset decodes an asset field.
func (b Blok) Asset(name string) *Asset {
	raw, ok := b[name]
	if !ok || raw == nil {
		return nil
	}

	var asset Asset
	if !decodeInto(raw, &asset) || asset.Filename == "" {
		return nil
	}

	return &asset
}

// Decode converts a field into v via JSON.
func (b Blok) Decode(name string, v interface{}) bool {
	raw, ok := b[name]
	if !ok || raw == nil {
		return false
	}

	return decodeInto(raw, v)
}

func decodeInto(raw interface{}, v interface{}) bool {
	data, err := json.Marshal(raw)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, v) == nil
}

// Link types of a multilink field.
const (
	LinkTypeStory = "story"
	LinkTypeURL   = "url"
	LinkTypeEmail = "email"
	LinkTypeAsset = "asset"
)

// MultiLink is the value of a multilink field.
type MultiLink struct {
	ID        string `json:"id,omitempty"         yaml:"id,omitempty"`
	URL       string `json:"url,omitempty"        yaml:"url,omitempty"`
	Email     string `json:"email,omitempty"      yaml:"email,omitempty"`
	LinkType  string `json:"linktype"             yaml:"linktype"`
	FieldType string `json:"fieldtype"            yaml:"fieldtype"`
	CachedURL string `json:"cached_url,omitempty" yaml:"cached_url,omitempty"`
	Anchor    string `json:"anchor,omitempty"     yaml:"anchor,omitempty"`
	Target    string `json:"target,omitempty"     yaml:"target,omitempty"`
	Story     *Story `json:"story,omitempty"      yaml:"story,omitempty"`
}

// Asset is the value of an asset field.
type Asset struct {
	ID        int64  `json:"id"                  yaml:"id"`
	Filename  string `json:"filename"            yaml:"filename"`
	Alt       string `json:"alt,omitempty"       yaml:"alt,omitempty"`
	Title     string `json:"title,omitempty"     yaml:"title,omitempty"`
	Copyright string `json:"copyright,omitempty" yaml:"copyright,omitempty"`
	Name      string `json:"name,omitempty"      yaml:"name,omitempty"`
	FocusArea string `json:"focus,omitempty"     yaml:"focus,omitempty"`
}
