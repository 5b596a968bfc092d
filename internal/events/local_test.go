package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestNew(t *testing.T) {
	e := New(KindPortfolioUpdated, []byte(`{"a":1}`))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, KindPortfolioUpdated, e.Kind)
	assert.JSONEq(t, `{"a":1}`, string(e.Payload))
	assert.WithinDuration(t, time.Now(), e.At, time.Minute)
	assert.NotEqual(t, e.ID, New(KindPortfolioUpdated, nil).ID)
}

func TestLocalBus_FiltersByKind(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	bus := NewLocalBus()
	defer func() { _ = bus.Close() }()

	all, cancelAll := bus.Subscribe()
	defer cancelAll()
	idle, cancelIdle := bus.Subscribe(KindSessionIdle)
	defer cancelIdle()

	require.NoError(t, bus.Publish(ctx, New(KindDocumentChanged, nil)))
	require.NoError(t, bus.Publish(ctx, New(KindSessionIdle, nil)))

	assert.Equal(t, KindDocumentChanged, receive(t, all).Kind)
	assert.Equal(t, KindSessionIdle, receive(t, all).Kind)
	assert.Equal(t, KindSessionIdle, receive(t, idle).Kind)
	assert.Empty(t, idle)
}

func TestLocalBus_DropsForSlowSubscribers(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalBusWithBuffer(2)
	defer func() { _ = bus.Close() }()

	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, New(KindDocumentChanged, nil)))
	}
	assert.Len(t, ch, 2)
	assert.Equal(t, int64(3), bus.Dropped())
}

func TestLocalBus_CancelClosesChannel(t *testing.T) {
	bus := NewLocalBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, bus.Publish(context.Background(), New(KindDraftChanged, nil)))
}

func TestLocalBus_CloseEndsSubscriptions(t *testing.T) {
	bus := NewLocalBus()
	ch, cancel := bus.Subscribe()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed bus yields a closed channel")
	assert.NoError(t, bus.Publish(context.Background(), New(KindDraftChanged, nil)))
}
