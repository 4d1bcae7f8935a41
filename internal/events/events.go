// Package events carries publish and preview notifications from webhooks to
// open preview streams, in process or across instances through NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of an event.
type Type string

const (
	StoryPublished   Type = "story.published"
	StoryUnpublished Type = "story.unpublished"
	StoryDeleted     Type = "story.deleted"
	StoryMoved       Type = "story.moved"
	PreviewInput     Type = "preview.input"
)

// Static errors for err113 compliance.
var (
	ErrBusClosed      = errors.New("event bus is closed")
	ErrUnknownAction  = errors.New("unknown webhook action")
	ErrNATSURLMissing = errors.New("NATS URL is required")
)

// Event is a content change seen by this or another instance.
type Event struct {
	ID       string          `json:"id"`
	Type     Type            `json:"type"`
	StoryID  int64           `json:"story_id,omitempty"`
	SpaceID  int64           `json:"space_id,omitempty"`
	FullSlug string          `json:"full_slug,omitempty"`
	Time     time.Time       `json:"time"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// New creates an event with a fresh id and the current time.
func New(eventType Type) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Time: time.Now().UTC(),
	}
}

// Reload reports whether open pages should reload for this event.
func (e Event) Reload() bool {
	return e.Type != PreviewInput
}

// Bus delivers events to every subscriber.
type Bus interface {
	// Publish delivers e to current subscribers. It does not block on slow
	// subscribers.
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events, closed when ctx is done or the
	// bus is closed.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

// WebhookPayload is the body Storyblok posts for story webhooks.
type WebhookPayload struct {
	Text     string `json:"text"`
	Action   string `json:"action"`
	SpaceID  int64  `json:"space_id"`
	StoryID  int64  `json:"story_id"`
	FullSlug string `json:"full_slug,omitempty"`
}

// FromWebhook maps a story webhook to an event.
func FromWebhook(payload WebhookPayload, raw []byte) (Event, error) {
	var eventType Type

	switch payload.Action {
	case "published":
		eventType = StoryPublished
	case "unpublished":
		eventType = StoryUnpublished
	case "deleted":
		eventType = StoryDeleted
	case "moved":
		eventType = StoryMoved
	default:
		return Event{}, ErrUnknownAction
	}

	event := New(eventType)
	event.StoryID = payload.StoryID
	event.SpaceID = payload.SpaceID
	event.FullSlug = payload.FullSlug

	if json.Valid(raw) {
		event.Payload = append(json.RawMessage(nil), raw...)
	}

	return event, nil
}
