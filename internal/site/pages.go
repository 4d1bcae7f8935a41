package site

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/metrics"
	"github.com/fivetwenty-io/storyblok-docs/internal/render"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

const (
	previewRenderPath = "/api/preview/render"
	previewEventsPath = "/api/preview/events"
)

// page renders the story addressed by the URL path.
func (s *Server) page(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		abortWithError(c, http.StatusNotFound, "not found")

		return
	}

	c.Set(metrics.RouteKey, "/*page")

	ctx := c.Request.Context()
	resolved := s.resolver.Resolve(c.Request.URL.Path)
	draft := s.startPreview(c) || s.hasSession(c)

	language := resolved.Language
	if lang := c.Query("_storyblok_lang"); draft && language == "" && lang != "" && lang != "default" {
		language = lang
	}

	version := storyblok.VersionPublished
	if draft {
		version = storyblok.VersionDraft
	}

	page := &render.Page{
		SiteName:    s.cfg.SiteName,
		Language:    language,
		CurrentPath: c.Request.URL.Path,
	}

	tree, err := s.client.Links().Tree(ctx, storyblok.NewQueryParams().WithVersion(version))
	if err != nil {
		s.logger.Warn("failed to load navigation", zap.Error(err))
	} else {
		page.Nav = render.Navigation(tree, s.resolver, language, c.Request.URL.Path, draft)
	}

	resp, err := s.fetchStory(ctx, resolved.Slug, s.storyParams(version, language))
	if err != nil {
		if storyblok.IsNotFound(err) {
			s.writeNotFound(c, page)

			return
		}

		s.logger.Error("failed to fetch story", zap.String("slug", resolved.Slug), zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusBadGateway, "The page is temporarily unavailable.")

		return
	}

	s.metrics.SetCacheVersion(s.client.CacheVersion().Get())

	story := &resp.Story
	result := s.renderer.Story(story, render.Options{Preview: draft, Language: language})

	page.Title = story.Content.String("title")
	if page.Title == "" {
		page.Title = story.Name
	}

	page.Description = story.Content.String("description")
	page.Content = result.HTML
	page.Headings = result.Headings

	if draft {
		page.Preview = &render.PreviewData{
			StoryID:          story.ID,
			FullSlug:         story.FullSlug,
			BridgeScriptURL:  constants.BridgeScriptURL,
			ResolveRelations: s.cfg.ResolveRelations,
			RenderURL:        previewRenderPath,
			EventsURL:        previewEventsPath,
		}

		c.Header("Cache-Control", cacheDraft)
	} else {
		c.Header("Cache-Control", cachePublished)
	}

	var buf bytes.Buffer

	err = s.layout.Render(&buf, page)
	if err != nil {
		s.logger.Error("failed to render page", zap.String("slug", resolved.Slug), zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "The page could not be rendered.")

		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) writeNotFound(c *gin.Context, page *render.Page) {
	var buf bytes.Buffer

	err := s.layout.RenderNotFound(&buf, page)
	if err != nil {
		s.logger.Error("failed to render not found page", zap.Error(err))
		c.String(http.StatusNotFound, "Page not found")

		return
	}

	c.Data(http.StatusNotFound, "text/html; charset=utf-8", buf.Bytes())
}
