package site

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/events"
	"github.com/fivetwenty-io/storyblok-docs/internal/render"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// startPreview validates visual editor parameters and, when they are valid,
// starts a draft session.
func (s *Server) startPreview(c *gin.Context) bool {
	params := storyblok.ParsePreviewParams(c.Request.URL.Query())
	if !params.Present() {
		return false
	}

	now := s.now()

	err := storyblok.ValidatePreview(params, s.cfg.PreviewToken, now, s.cfg.PreviewMaxAge)
	if err != nil {
		s.logger.Warn("rejected preview request",
			zap.String("space_id", params.SpaceID),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)

		return false
	}

	// The editor embeds the site in a cross-site iframe.
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(
		constants.PreviewCookieName,
		signSession(s.cfg.SessionSecret, params.SpaceID, now.Add(s.cfg.PreviewMaxAge)),
		int(s.cfg.PreviewMaxAge/time.Second),
		"/",
		"",
		true,
		true,
	)

	return true
}

func (s *Server) hasSession(c *gin.Context) bool {
	value, err := c.Cookie(constants.PreviewCookieName)
	if err != nil {
		return false
	}

	return verifySession(s.cfg.SessionSecret, value, s.now())
}

func (s *Server) requirePreview(c *gin.Context) {
	if !s.hasSession(c) {
		abortWithError(c, http.StatusForbidden, "preview session required")

		return
	}

	c.Next()
}

// previewEvents streams bus events to an editor tab. Story changes are sent
// as "story" events, which make the page reload.
func (s *Server) previewEvents(c *gin.Context) {
	ctx := c.Request.Context()

	ch, err := s.bus.Subscribe(ctx)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "event stream unavailable")

		return
	}

	done := s.metrics.PreviewClientConnected()
	defer done()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(constants.SSEKeepAlive)
	defer keepAlive.Stop()

	c.SSEvent("ready", gin.H{"time": s.now().UTC()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}

			name := "preview"
			if event.Reload() {
				name = "story"
			}

			c.SSEvent(name, event)

			return true
		case <-keepAlive.C:
			c.SSEvent("ping", s.now().Unix())

			return true
		case <-s.shutdown:
			return false
		case <-ctx.Done():
			return false
		}
	})
}

// previewRender renders a story posted by the bridge input event and returns
// the HTML of the page content.
func (s *Server) previewRender(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, constants.MaxBodySize))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "unable to read request body")

		return
	}

	event, err := storyblok.ParseBridgeEvent(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())

		return
	}

	if event.Story == nil {
		abortWithError(c, http.StatusBadRequest, "story is required")

		return
	}

	story := event.Story

	language := story.Lang
	if language == "default" {
		language = ""
	}

	if provider, ok := s.client.(linkResolverProvider); ok {
		params := s.storyParams(storyblok.VersionDraft, language)

		err = provider.LinkResolver().ResolveStory(c.Request.Context(), story, params)
		if err != nil {
			s.logger.Warn("failed to resolve preview story", zap.Int64("story_id", story.ID), zap.Error(err))
		}
	}

	result := s.renderer.Story(story, render.Options{Preview: true, Language: language})

	input := events.New(events.PreviewInput)
	input.StoryID = story.ID
	input.FullSlug = story.FullSlug

	err = s.bus.Publish(c.Request.Context(), input)
	if err != nil {
		s.logger.Warn("failed to publish preview event", zap.Error(err))
	}

	c.Header("Cache-Control", cacheDraft)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(result.HTML))
}
