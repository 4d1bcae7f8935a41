// Package auth provides the access tokens used to authenticate CDA requests.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrNoToken              = errors.New("no access token configured")
	ErrPreviewTokenRequired = storyblok.ErrPreviewTokenRequired
)

// TokenManager returns the token for a content version.
type TokenManager interface {
	GetToken(ctx context.Context, version storyblok.Version) (string, error)
}

// StaticTokenManager holds a public and a preview token. Published content is
// read with the public token, or the preview token when no public token is
// set. Draft content always needs the preview token.
type StaticTokenManager struct {
	mutex        sync.RWMutex
	publicToken  string
	previewToken string
}

// NewStaticTokenManager creates a token manager for the given tokens.
func NewStaticTokenManager(publicToken, previewToken string) *StaticTokenManager {
	return &StaticTokenManager{
		publicToken:  publicToken,
		previewToken: previewToken,
	}
}

// GetToken implements TokenManager.
func (m *StaticTokenManager) GetToken(ctx context.Context, version storyblok.Version) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if version == storyblok.VersionDraft {
		if m.previewToken == "" {
			return "", ErrPreviewTokenRequired
		}

		return m.previewToken, nil
	}

	switch {
	case m.publicToken != "":
		return m.publicToken, nil
	case m.previewToken != "":
		return m.previewToken, nil
	default:
		return "", ErrNoToken
	}
}

// SetToken replaces the token used for a version.
func (m *StaticTokenManager) SetToken(version storyblok.Version, token string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if version == storyblok.VersionDraft {
		m.previewToken = token

		return
	}

	m.publicToken = token
}

// HasPreview reports whether draft content can be read.
func (m *StaticTokenManager) HasPreview() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.previewToken != ""
}
