package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// natsConn is the part of *nats.Conn the bus uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// NATSBus shares events between instances. Every instance subscribes to the
// subject and fans received events out locally, including its own.
type NATSBus struct {
	conn    natsConn
	subject string
	local   *MemoryBus
	logger  *zap.Logger
}

// NewNATSBus connects to url and subscribes to subject (EventsSubject when
// empty).
func NewNATSBus(url, subject string, logger *zap.Logger, opts ...nats.Option) (*NATSBus, error) {
	if url == "" {
		return nil, ErrNATSURLMissing
	}

	opts = append([]nats.Option{nats.Name("sbdocs")}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := newNATSBus(conn, subject, logger)
	if err != nil {
		conn.Close()

		return nil, err
	}

	return bus, nil
}

func newNATSBus(conn natsConn, subject string, logger *zap.Logger) (*NATSBus, error) {
	if subject == "" {
		subject = constants.EventsSubject
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	bus := &NATSBus{
		conn:    conn,
		subject: subject,
		local:   NewMemoryBus(0),
		logger:  logger,
	}

	_, err := conn.Subscribe(subject, bus.receive)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return bus, nil
}

func (b *NATSBus) receive(msg *nats.Msg) {
	var event Event

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		b.logger.Warn("discarding malformed event", zap.String("subject", msg.Subject), zap.Error(err))

		return
	}

	_ = b.local.Publish(context.Background(), event)
}

// Publish implements Bus.
func (b *NATSBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = b.conn.Publish(b.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe implements Bus.
func (b *NATSBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	return b.local.Subscribe(ctx)
}

// Close drains the connection and closes local subscriptions.
func (b *NATSBus) Close() error {
	err := b.conn.Drain()

	_ = b.local.Close()

	if err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}
