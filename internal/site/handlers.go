package site

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

const (
	cachePublished = "public, max-age=60, stale-while-revalidate=300"
	cacheDraft     = "no-store"
)

func (s *Server) storyParams(version storyblok.Version, language string) *storyblok.QueryParams {
	return storyblok.NewQueryParams().
		WithVersion(version).
		WithLanguage(language).
		WithResolveLinks(s.cfg.ResolveLinks).
		WithResolveRelations(s.cfg.ResolveRelations...)
}

// fetchStory gets a story by slug and falls back to the startpage of a
// folder with that slug.
func (s *Server) fetchStory(ctx context.Context, slug string, params *storyblok.QueryParams) (*storyblok.StoryResponse, error) {
	resp, err := s.client.Stories().Get(ctx, slug, params)
	if err == nil || !storyblok.IsNotFound(err) || strings.HasSuffix(slug, "/") {
		return resp, err
	}

	return s.client.Stories().Get(ctx, slug+"/", params)
}

func (s *Server) getStory(c *gin.Context) {
	slug := strings.TrimPrefix(c.Param("slug"), "/")
	if strings.Trim(slug, "/") == "" {
		abortWithError(c, http.StatusBadRequest, "slug is required")

		return
	}

	version := storyblok.VersionPublished

	if c.Query("version") == string(storyblok.VersionDraft) {
		if !s.hasSession(c) {
			abortWithError(c, http.StatusForbidden, "preview session required")

			return
		}

		version = storyblok.VersionDraft
	}

	resp, err := s.fetchStory(c.Request.Context(), slug, s.storyParams(version, c.Query("language")))
	if err != nil {
		if storyblok.IsNotFound(err) {
			abortWithError(c, http.StatusNotFound, "story not found")

			return
		}

		s.logger.Error("failed to fetch story", zap.String("slug", slug), zap.Error(err))
		_ = c.Error(err)
		abortWithError(c, http.StatusBadGateway, "failed to fetch story")

		return
	}

	if version == storyblok.VersionDraft {
		c.Header("Cache-Control", cacheDraft)
	} else {
		c.Header("Cache-Control", cachePublished)
	}

	c.JSON(http.StatusOK, resp)
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

func (s *Server) sitemap(c *gin.Context) {
	params := storyblok.NewQueryParams().WithVersion(storyblok.VersionPublished)
	if base := strings.Trim(s.cfg.BaseFolder, "/"); base != "" {
		params.WithStartsWith(base + "/")
	}

	links, err := s.client.Links().All(c.Request.Context(), params)
	if err != nil {
		s.logger.Error("failed to fetch links", zap.Error(err))
		_ = c.Error(err)
		abortWithError(c, http.StatusBadGateway, "failed to fetch links")

		return
	}

	publicURL := strings.TrimSuffix(s.cfg.PublicURL, "/")
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	seen := make(map[string]bool, len(links))

	for _, link := range links {
		if link.IsFolder || !link.Published {
			continue
		}

		loc := publicURL + s.resolver.URLForSlug(link.Slug, "")
		if seen[loc] {
			continue
		}

		seen[loc] = true
		set.URLs = append(set.URLs, sitemapURL{Loc: loc})
	}

	c.Header("Cache-Control", cachePublished)
	c.XML(http.StatusOK, set)
}
