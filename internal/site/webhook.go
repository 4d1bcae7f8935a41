package site

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Storyblok signs webhooks with HMAC-SHA1
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/events"
)

// webhook handles Storyblok story webhooks: it drops the cache version so
// the next requests see fresh content and publishes the change on the bus.
func (s *Server) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, constants.MaxBodySize))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "unable to read request body")

		return
	}

	if s.cfg.WebhookSecret != "" && !validSignature(s.cfg.WebhookSecret, body, c.GetHeader(constants.WebhookSignatureHeader)) {
		s.metrics.RecordWebhook("unknown", "unauthorized")
		abortWithError(c, http.StatusUnauthorized, "invalid webhook signature")

		return
	}

	var payload events.WebhookPayload

	err = json.Unmarshal(body, &payload)
	if err != nil {
		s.metrics.RecordWebhook("unknown", "invalid")
		abortWithError(c, http.StatusBadRequest, "invalid webhook payload")

		return
	}

	event, err := events.FromWebhook(payload, body)
	if errors.Is(err, events.ErrUnknownAction) {
		s.metrics.RecordWebhook(payload.Action, "ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})

		return
	}

	s.client.CacheVersion().Flush()
	s.metrics.SetCacheVersion(0)

	err = s.bus.Publish(c.Request.Context(), event)
	if err != nil {
		s.logger.Error("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
		s.metrics.RecordWebhook(payload.Action, "error")
		abortWithError(c, http.StatusInternalServerError, "failed to publish event")

		return
	}

	s.metrics.RecordWebhook(payload.Action, "ok")
	s.logger.Info("webhook received",
		zap.String("action", payload.Action),
		zap.Int64("story_id", payload.StoryID),
		zap.String("full_slug", payload.FullSlug),
	)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "event_id": event.ID})
}

// validSignature checks the hex HMAC-SHA1 of body.
func validSignature(secret string, body []byte, signature string) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) == 0 {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	_, _ = mac.Write(body)

	return hmac.Equal(provided, mac.Sum(nil))
}
