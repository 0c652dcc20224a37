// Package events publishes session lifecycle events on an in-process
// watermill bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topic carries every session lifecycle event.
const Topic = "tabsession.session"

// Kind identifies a lifecycle event.
type Kind string

const (
	KindRenewed       Kind = "renewed"
	KindRenewalFailed Kind = "renewal_failed"
	KindCleared       Kind = "cleared"
)

// Event is the JSON payload of a lifecycle message. It never carries
// credential material.
type Event struct {
	ID     string    `json:"id"`
	Kind   Kind      `json:"kind"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

// Bus wraps a gochannel pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	now    func() time.Time
}

// NewBus creates an in-process bus. Messages published while nobody is
// subscribed are dropped.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")

	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
		now:    time.Now,
	}
}

// Publish stamps ID and time when unset and publishes e on Topic.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = b.now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(e.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("kind", string(e.Kind))

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe returns decoded events until ctx is cancelled or the bus closes.
// Undecodable payloads are logged and acked so gochannel does not
// redeliver them.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				b.logger.Warn("dropping undecodable event", "msg_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and closes every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Renewed publishes a KindRenewed event. Its signature fits
// renewal.Coordinator.OnRenewed after discarding the tokens.
func (b *Bus) Renewed(ctx context.Context) {
	b.publishQuietly(ctx, Event{Kind: KindRenewed})
}

// RenewalFailed publishes a KindRenewalFailed event with the cause.
func (b *Bus) RenewalFailed(ctx context.Context, cause error) {
	e := Event{Kind: KindRenewalFailed}
	if cause != nil {
		e.Reason = cause.Error()
	}
	b.publishQuietly(ctx, e)
}

// Cleared publishes a KindCleared event.
func (b *Bus) Cleared(ctx context.Context, reason string) {
	b.publishQuietly(ctx, Event{Kind: KindCleared, Reason: reason})
}

func (b *Bus) publishQuietly(ctx context.Context, e Event) {
	if err := b.Publish(ctx, e); err != nil {
		b.logger.Warn("failed to publish session event", "kind", e.Kind, "error", err)
	}
}

// Log consumes events and logs each one until ctx is done.
func Log(ctx context.Context, bus *Bus, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for e := range events {
		attrs := []any{"event_id", e.ID, "kind", e.Kind}
		if e.Reason != "" {
			attrs = append(attrs, "reason", e.Reason)
		}
		if e.Kind == KindRenewalFailed {
			logger.Warn("session event", attrs...)
		} else {
			logger.Info("session event", attrs...)
		}
	}
	return nil
}
