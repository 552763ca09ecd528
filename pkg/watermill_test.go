package pkg

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/config"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

func TestNewEventPublisher_Discards(t *testing.T) {
	for _, ec := range []config.EventConfig{
		{Enabled: false, Publisher: "kafka"},
		{Enabled: true, Publisher: "discard"},
		{Enabled: true, Publisher: "carrier-pigeon"},
	} {
		publisher, err := NewEventPublisher(&config.Config{Events: ec}, testLogger)
		require.NoError(t, err)
		assert.IsType(t, &events.DiscardPublisher{}, publisher, "publisher %q", ec.Publisher)
	}
}

func TestNewChangeFeedPubSub_GoChannel(t *testing.T) {
	pubSub, err := NewChangeFeedPubSub(config.ChangeFeedConfig{Driver: "gochannel"}, testLogger)
	require.NoError(t, err)
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubSub.Subscriber.Subscribe(ctx, "records.students")
	require.NoError(t, err)

	require.NoError(t, pubSub.Publisher.Publish("records.students", message.NewMessage("m1", []byte(`{}`))))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "m1", msg.UUID)
	case <-time.After(2 * time.Second):
		t.Fatal("change not delivered")
	}
}

func TestNewChangeFeedPubSub_UnknownDriver(t *testing.T) {
	_, err := NewChangeFeedPubSub(config.ChangeFeedConfig{Driver: "nats"}, testLogger)
	assert.Error(t, err)
}
