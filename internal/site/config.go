package site

import (
	"time"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// Config configures the docs server.
type Config struct {
	// ListenAddr is the address Run listens on.
	ListenAddr string
	// SiteName is shown in titles and the header.
	SiteName string
	// PublicURL is the absolute site URL used in the sitemap.
	PublicURL string

	// BaseFolder is the folder holding the docs stories.
	BaseFolder string
	// HomeSlug is served at "/" when BaseFolder is empty.
	HomeSlug string
	// Languages are recognised as a leading path segment.
	Languages []string
	// DefaultLanguage is never used as a path prefix.
	DefaultLanguage string

	// ResolveLinks and ResolveRelations are sent with every story request.
	ResolveLinks     string
	ResolveRelations []string

	// PreviewToken validates the visual editor token. Draft mode is
	// unavailable without it.
	PreviewToken string
	// PreviewMaxAge bounds the age of editor tokens and draft sessions.
	PreviewMaxAge time.Duration
	// SessionSecret signs the draft session cookie. PreviewToken is used
	// when empty.
	SessionSecret string

	// WebhookSecret verifies webhook signatures. Unsigned webhooks are
	// accepted when empty.
	WebhookSecret string

	// AllowedOrigins may call the /api routes from a browser.
	AllowedOrigins []string

	// ShutdownTimeout bounds the graceful shutdown of Run.
	ShutdownTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = constants.DefaultListenAddr
	}

	if c.HomeSlug == "" {
		c.HomeSlug = constants.DefaultHomeSlug
	}

	if c.PreviewMaxAge <= 0 {
		c.PreviewMaxAge = constants.PreviewMaxAge
	}

	if c.SessionSecret == "" {
		c.SessionSecret = c.PreviewToken
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.ServerShutdownTimeout
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"https://app.storyblok.com"}
	}
}
