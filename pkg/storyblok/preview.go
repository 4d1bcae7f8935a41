package storyblok

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // the visual editor signs preview tokens with sha1
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// PreviewParams are the query parameters the visual editor appends to the
// preview URL.
type PreviewParams struct {
	StoryID   string // _storyblok
	SpaceID   string // _storyblok_tk[space_id]
	Timestamp string // _storyblok_tk[timestamp]
	Token     string // _storyblok_tk[token]
	Component string // _storyblok_c
	Language  string // _storyblok_lang
	Release   string // _storyblok_release
}

// ParsePreviewParams reads preview parameters from a query.
func ParsePreviewParams(query url.Values) PreviewParams {
	return PreviewParams{
		StoryID:   query.Get("_storyblok"),
		SpaceID:   query.Get("_storyblok_tk[space_id]"),
		Timestamp: query.Get("_storyblok_tk[timestamp]"),
		Token:     query.Get("_storyblok_tk[token]"),
		Component: query.Get("_storyblok_c"),
		Language:  query.Get("_storyblok_lang"),
		Release:   query.Get("_storyblok_release"),
	}
}

// Present reports whether the query came from the visual editor.
func (p PreviewParams) Present() bool {
	return p.StoryID != "" || p.Token != ""
}

// PreviewSignature returns the token the visual editor sends for a space,
// preview token and timestamp.
func PreviewSignature(spaceID, previewToken, timestamp string) string {
	sum := sha1.Sum([]byte(spaceID + ":" + previewToken + ":" + timestamp)) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// ValidatePreview checks the editor token against the preview token and
// rejects timestamps older than maxAge (PreviewMaxAge when 0).
func ValidatePreview(params PreviewParams, previewToken string, now time.Time, maxAge time.Duration) error {
	if previewToken == "" {
		return ErrPreviewTokenRequired
	}

	if params.SpaceID == "" || params.Timestamp == "" || params.Token == "" {
		return ErrMissingPreviewParams
	}

	expected := PreviewSignature(params.SpaceID, previewToken, params.Timestamp)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(params.Token))) != 1 {
		return ErrInvalidPreviewToken
	}

	seconds, err := strconv.ParseInt(params.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp %q", ErrInvalidPreviewToken, params.Timestamp)
	}

	if maxAge <= 0 {
		maxAge = constants.PreviewMaxAge
	}

	if now.Sub(time.Unix(seconds, 0)) > maxAge {
		return ErrPreviewExpired
	}

	return nil
}

// BridgeAction is the action of a visual editor event.
type BridgeAction string

const (
	BridgeInput           BridgeAction = "input"
	BridgeChange          BridgeAction = "change"
	BridgePublished       BridgeAction = "published"
	BridgeUnpublished     BridgeAction = "unpublished"
	BridgeEnterEditmode   BridgeAction = "enterEditmode"
	BridgeViewLiveVersion BridgeAction = "viewLiveVersion"
)

// Valid reports whether a is a known action.
func (a BridgeAction) Valid() bool {
	switch a {
	case BridgeInput, BridgeChange, BridgePublished, BridgeUnpublished, BridgeEnterEditmode, BridgeViewLiveVersion:
		return true
	default:
		return false
	}
}

// FlexibleID decodes ids the editor sends either as numbers or strings.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""

		return nil
	}

	var s string
	if json.Unmarshal(data, &s) == nil {
		*f = FlexibleID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}

	*f = FlexibleID(n.String())

	return nil
}

// BridgeEvent is a message from the visual editor bridge.
type BridgeEvent struct {
	Action      BridgeAction `json:"action"`
	StoryID     FlexibleID   `json:"storyId,omitempty"`
	Story       *Story       `json:"story,omitempty"`
	Slug        string       `json:"slug,omitempty"`
	SlugChanged bool         `json:"slugChanged,omitempty"`
	Reload      bool         `json:"reload,omitempty"`
}

// ParseBridgeEvent decodes and validates a bridge event. Input events must
// carry the edited story.
func ParseBridgeEvent(data []byte) (*BridgeEvent, error) {
	var event BridgeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBridgeEvent, err)
	}

	if !event.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidBridgeEvent, event.Action)
	}

	if event.Action == BridgeInput && event.Story == nil {
		return nil, fmt.Errorf("%w: input event without story", ErrInvalidBridgeEvent)
	}

	return &event, nil
}

const (
	editablePrefix = "<!--#storyblok#"
	editableSuffix = "-->"
)

// EditableInfo is decoded from a blok's _editable comment.
type EditableInfo struct {
	Name  string     `json:"name"`
	Space FlexibleID `json:"space"`
	UID   string     `json:"uid"`
	ID    FlexibleID `json:"id"`
}

// ParseEditable decodes the _editable comment of a blok. It returns false for
// published content, which carries no comment.
func ParseEditable(blok Blok) (*EditableInfo, bool) {
	raw := strings.TrimSpace(blok.Editable())
	if !strings.HasPrefix(raw, editablePrefix) || !strings.HasSuffix(raw, editableSuffix) {
		return nil, false
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(raw, editablePrefix), editableSuffix)

	var info EditableInfo
	if json.Unmarshal([]byte(raw), &info) != nil || info.UID == "" {
		return nil, false
	}

	return &info, true
}

// Attributes returns the data-blok-c and data-blok-uid attributes the bridge
// uses to outline components.
func (e *EditableInfo) Attributes() map[string]string {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}

	return map[string]string{
		"data-blok-c":   string(data),
		"data-blok-uid": string(e.ID) + "-" + e.UID,
	}
}
