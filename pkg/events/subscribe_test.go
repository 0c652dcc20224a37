package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_DropsUndecodablePayload(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bad := message.NewMessage(uuid.NewString(), []byte("{not json"))
	require.NoError(t, bus.pubsub.Publish(Topic, bad))
	require.NoError(t, bus.Publish(ctx, Event{Kind: KindCleared, Reason: "after"}))

	select {
	case e := <-ch:
		require.Equal(t, KindCleared, e.Kind)
		require.Equal(t, "after", e.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("event behind an undecodable payload was never delivered")
	}
}
