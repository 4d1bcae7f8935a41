package storyblok

import (
	"context"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s looks like a story uuid.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// PathResolutionInterceptor maps resource paths onto the CDA. It adds the
// API prefix when missing, escapes slug segments of story paths, and asks
// for uuid lookup when the story identifier is a uuid.
func PathResolutionInterceptor(prefix string) RequestInterceptor {
	if prefix == "" {
		prefix = constants.APIPathPrefix
	}

	prefix = "/" + strings.Trim(prefix, "/")

	return func(ctx context.Context, req *Request) error {
		path := "/" + strings.TrimLeft(req.Path, "/")

		if !strings.HasPrefix(path, prefix+"/") && path != prefix {
			path = prefix + path
		}

		storiesPrefix := prefix + constants.APIPathStories + "/"
		if strings.HasPrefix(path, storiesPrefix) {
			identifier := strings.TrimPrefix(path, storiesPrefix)
			if IsUUID(identifier) {
				if req.Query == nil {
					req.Query = make(url.Values)
				}

				if req.Query.Get("find_by") == "" {
					req.Query.Set("find_by", "uuid")
				}
			}

			path = storiesPrefix + escapeSlug(identifier)
		}

		req.Path = path

		return nil
	}
}

// escapeSlug escapes each segment, keeping separators and a trailing slash
// (folder startpages are addressed as "folder/").
func escapeSlug(slug string) string {
	segments := strings.Split(slug, "/")
	for i, segment := range segments {
		unescaped, err := url.PathUnescape(segment)
		if err == nil {
			segment = unescaped
		}

		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}

// PathResolver maps site URL paths to story slugs and back.
type PathResolver struct {
	// BaseFolder is the folder holding the site's stories, e.g. "docs".
	BaseFolder string
	// HomeSlug is served at "/" when BaseFolder is empty.
	HomeSlug string
	// Languages lists language codes recognised as a leading path segment.
	Languages []string
	// DefaultLanguage is never used as a path prefix.
	DefaultLanguage string
}

// NewPathResolver creates a resolver with the default home slug.
func NewPathResolver(baseFolder string, languages ...string) *PathResolver {
	return &PathResolver{
		BaseFolder: strings.Trim(baseFolder, "/"),
		HomeSlug:   constants.DefaultHomeSlug,
		Languages:  languages,
	}
}

// ResolvedPath is the result of resolving a URL path.
type ResolvedPath struct {
	Slug     string
	Language string
}

// Resolve maps a URL path to the story slug to fetch and the language found
// in the path, if any.
func (r *PathResolver) Resolve(urlPath string) ResolvedPath {
	trimmed := strings.Trim(cleanURLPath(urlPath), "/")

	var language string

	if trimmed != "" {
		first, rest, _ := strings.Cut(trimmed, "/")
		if r.isLanguage(first) {
			language = first
			trimmed = rest
		}
	}

	trimmed = strings.TrimSuffix(trimmed, "/index")
	if trimmed == "index" {
		trimmed = ""
	}

	base := strings.Trim(r.BaseFolder, "/")

	switch {
	case trimmed == "" && base == "":
		return ResolvedPath{Slug: r.homeSlug(), Language: language}
	case trimmed == "":
		return ResolvedPath{Slug: base + "/", Language: language}
	case base == "":
		return ResolvedPath{Slug: trimmed, Language: language}
	default:
		return ResolvedPath{Slug: base + "/" + trimmed, Language: language}
	}
}

// URLForSlug maps a full slug back to a site URL path.
func (r *PathResolver) URLForSlug(fullSlug, language string) string {
	slug := strings.Trim(fullSlug, "/")
	prefixed := r.isLanguage(language)

	if prefixed {
		slug = strings.TrimPrefix(slug, language+"/")
	}

	base := strings.Trim(r.BaseFolder, "/")
	if base != "" {
		switch {
		case slug == base:
			slug = ""
		case strings.HasPrefix(slug, base+"/"):
			slug = strings.TrimPrefix(slug, base+"/")
		}
	}

	if slug == r.homeSlug() {
		slug = ""
	}

	path := "/"
	if prefixed {
		path += language + "/"
	}

	if slug == "" {
		if path != "/" {
			return strings.TrimSuffix(path, "/")
		}

		return path
	}

	return path + slug
}

func (r *PathResolver) homeSlug() string {
	if r.HomeSlug == "" {
		return constants.DefaultHomeSlug
	}

	return r.HomeSlug
}

func (r *PathResolver) isLanguage(segment string) bool {
	if segment == "" || strings.EqualFold(segment, r.DefaultLanguage) {
		return false
	}

	return slices.ContainsFunc(r.Languages, func(language string) bool {
		return strings.EqualFold(language, segment)
	})
}

func cleanURLPath(urlPath string) string {
	if unescaped, err := url.PathUnescape(urlPath); err == nil {
		urlPath = unescaped
	}

	if i := strings.IndexAny(urlPath, "?#"); i >= 0 {
		urlPath = urlPath[:i]
	}

	for strings.Contains(urlPath, "//") {
		urlPath = strings.ReplaceAll(urlPath, "//", "/")
	}

	return urlPath
}
