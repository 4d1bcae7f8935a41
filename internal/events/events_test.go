package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")

		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")

		return Event{}
	}
}

func TestFromWebhook(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"text":"The user published the Story Intro","action":"published","space_id":12345,"story_id":101,"full_slug":"docs/intro"}`)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(raw, &payload))

	event, err := FromWebhook(payload, raw)
	require.NoError(t, err)
	assert.Equal(t, StoryPublished, event.Type)
	assert.Equal(t, int64(101), event.StoryID)
	assert.Equal(t, int64(12345), event.SpaceID)
	assert.Equal(t, "docs/intro", event.FullSlug)
	assert.NotEmpty(t, event.ID)
	assert.JSONEq(t, string(raw), string(event.Payload))
	assert.True(t, event.Reload())

	for action, expected := range map[string]Type{"unpublished": StoryUnpublished, "deleted": StoryDeleted, "moved": StoryMoved} {
		event, err := FromWebhook(WebhookPayload{Action: action}, nil)
		require.NoError(t, err)
		assert.Equal(t, expected, event.Type)
		assert.Nil(t, event.Payload)
	}

	_, err = FromWebhook(WebhookPayload{Action: "entry_upload"}, nil)
	require.ErrorIs(t, err, ErrUnknownAction)

	assert.False(t, New(PreviewInput).Reload())
}

func TestMemoryBus_FanOut(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus(4)
	ctx, cancel := context.WithCancel(context.Background())

	first, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	second, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, bus.Subscribers())

	event := New(StoryPublished)
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, event.ID, receive(t, first).ID)
	assert.Equal(t, event.ID, receive(t, second).ID)

	cancel()

	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := <-first
	assert.False(t, ok)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok = <-second
	assert.False(t, ok)

	require.ErrorIs(t, bus.Publish(context.Background(), event), ErrBusClosed)

	_, err = bus.Subscribe(context.Background())
	require.ErrorIs(t, err, ErrBusClosed)
}

func TestMemoryBus_DropsForSlowSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus(1)

	_, err := bus.Subscribe(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), New(StoryPublished)))
	}

	assert.Equal(t, int64(2), bus.Dropped())
}

// fakeConn loops published messages back to the subscription.
type fakeConn struct {
	mu        sync.Mutex
	handlers  map[string]nats.MsgHandler
	published [][]byte
	drained   bool
	subErr    error
	pubErr    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[string]nats.MsgHandler)}
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()

	if f.pubErr != nil {
		f.mu.Unlock()

		return f.pubErr
	}

	f.published = append(f.published, data)
	handler := f.handlers[subject]
	f.mu.Unlock()

	if handler != nil {
		handler(&nats.Msg{Subject: subject, Data: data})
	}

	return nil
}

func (f *fakeConn) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subErr != nil {
		return nil, f.subErr
	}

	f.handlers[subject] = handler

	return &nats.Subscription{Subject: subject}, nil
}

func (f *fakeConn) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.drained = true

	return nil
}

func (f *fakeConn) deliver(subject string, data []byte) {
	f.mu.Lock()
	handler := f.handlers[subject]
	f.mu.Unlock()

	handler(&nats.Msg{Subject: subject, Data: data})
}

func TestNATSBus(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	core, logs := observer.New(zapcore.WarnLevel)

	bus, err := newNATSBus(conn, "", zap.New(core))
	require.NoError(t, err)

	events, err := bus.Subscribe(context.Background())
	require.NoError(t, err)

	event := New(StoryUnpublished)
	event.FullSlug = "docs/old"
	require.NoError(t, bus.Publish(context.Background(), event))

	got := receive(t, events)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "docs/old", got.FullSlug)

	require.Len(t, conn.published, 1)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(conn.published[0], &wire))
	assert.Equal(t, "story.unpublished", wire["type"])

	conn.deliver("storyblok.events", []byte("not json"))
	assert.Equal(t, 1, logs.FilterMessage("discarding malformed event").Len())

	require.NoError(t, bus.Close())
	assert.True(t, conn.drained)

	_, ok := <-events
	assert.False(t, ok)
}

func TestNATSBus_Errors(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	conn.subErr = errors.New("permissions violation")

	_, err := newNATSBus(conn, "custom", nil)
	require.ErrorIs(t, err, conn.subErr)

	conn = newFakeConn()
	conn.pubErr = nats.ErrConnectionClosed

	bus, err := newNATSBus(conn, "custom", nil)
	require.NoError(t, err)
	require.ErrorIs(t, bus.Publish(context.Background(), New(StoryPublished)), nats.ErrConnectionClosed)

	_, err = NewNATSBus("", "", nil)
	require.ErrorIs(t, err, ErrNATSURLMissing)
}
