package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured   = errors.New("no access token configured, use 'sbdocs config set-token' or STORYBLOK_TOKEN")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
	ErrInvalidVersion      = errors.New("invalid version, expected draft or published")
)

// Command errors.
var (
	ErrStoryNotFound      = errors.New("story not found")
	ErrDatasourceRequired = errors.New("datasource slug is required")
	ErrEmptyToken         = errors.New("token must not be empty")
)
