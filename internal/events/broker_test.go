package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backend/internal/models"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestLocalBroker_FansOutToSubscribers(t *testing.T) {
	b := NewLocalBroker()
	ctx := context.Background()

	first, cancelFirst, err := b.Subscribe(ctx, "chat_updates:a")
	require.NoError(t, err)
	defer cancelFirst()
	second, cancelSecond, err := b.Subscribe(ctx, "chat_updates:a")
	require.NoError(t, err)
	defer cancelSecond()
	other, cancelOther, err := b.Subscribe(ctx, "chat_updates:b")
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, b.Publish(ctx, "chat_updates:a", []byte("hello")))

	assert.Equal(t, []byte("hello"), receive(t, first))
	assert.Equal(t, []byte("hello"), receive(t, second))

	select {
	case msg := <-other:
		t.Fatalf("unexpected message on other channel: %s", msg)
	default:
	}
}

func TestLocalBroker_CancelClosesAndUnregisters(t *testing.T) {
	b := NewLocalBroker()
	ch, cancel, err := b.Subscribe(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("c"))

	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers("c"))
	require.NoError(t, b.Publish(context.Background(), "c", []byte("late")))
}

func TestLocalBroker_ContextEndsSubscription(t *testing.T) {
	b := NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
	assert.Eventually(t, func() bool { return b.Subscribers("c") == 0 }, time.Second, 10*time.Millisecond)
}

func TestLocalBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewLocalBroker()
	_, cancel, err := b.Subscribe(context.Background(), "c")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(context.Background(), "c", []byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestLocalBroker_FullSubscriberKeepsNewest(t *testing.T) {
	b := NewLocalBroker()
	ch, cancel, err := b.Subscribe(context.Background(), "c")
	require.NoError(t, err)
	defer cancel()

	for i := 1; i <= 20; i++ {
		require.NoError(t, b.Publish(context.Background(), "c", []byte(strconv.Itoa(i))))
	}

	var last []byte
	for n := 0; n < subscriberBuffer; n++ {
		last = receive(t, ch)
	}
	assert.Equal(t, []byte("20"), last)

	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra message: %s", msg)
	default:
	}
}

func TestOffer_DropsOldest(t *testing.T) {
	ch := make(chan []byte, 2)
	offer(ch, []byte("a"))
	offer(ch, []byte("b"))
	offer(ch, []byte("c"))

	assert.Equal(t, []byte("b"), <-ch)
	assert.Equal(t, []byte("c"), <-ch)
}

type failingBroker struct{}

func (failingBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return errors.New("broker down")
}

func (failingBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	return nil, nil, errors.New("broker down")
}

func TestPublisher_PublishUpdate(t *testing.T) {
	b := NewLocalBroker()
	p := NewPublisher(b)
	sid := uuid.New()

	ch, cancel, err := b.Subscribe(context.Background(), SessionChannel(sid))
	require.NoError(t, err)
	defer cancel()

	err = p.PublishUpdate(context.Background(), sid, models.WSMessage{
		Type:    models.WSTypeConversationUpdate,
		Payload: models.ConversationView{SessionID: sid, Pending: true},
	})
	require.NoError(t, err)

	var msg struct {
		Type    string                  `json:"type"`
		Payload models.ConversationView `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(receive(t, ch), &msg))
	assert.Equal(t, models.WSTypeConversationUpdate, msg.Type)
	assert.Equal(t, sid, msg.Payload.SessionID)
	assert.True(t, msg.Payload.Pending)
}

func TestPublisher_ReportsBrokerFailure(t *testing.T) {
	p := NewPublisher(failingBroker{})
	err := p.PublishUpdate(context.Background(), uuid.New(), models.WSMessage{Type: models.WSTypeError})
	assert.Error(t, err)
}

func TestSessionChannel(t *testing.T) {
	sid := uuid.MustParse("6f1c1c4e-8f43-4a55-9d0c-2d4b7d0c9b11")
	assert.Equal(t, "chat_updates:6f1c1c4e-8f43-4a55-9d0c-2d4b7d0c9b11", SessionChannel(sid))
}
