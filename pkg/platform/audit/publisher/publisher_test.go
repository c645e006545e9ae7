package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "github.com/bellsc7/hrsyncad/pkg/platform/audit"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		RunID:   "run-1",
		Subject: "CN=Ann Lee,OU=Staff,DC=corp,DC=example",
		Action:  string(audit.EventAccountDisabled),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := store.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAccountDisabled), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			RunID:  "run-1",
			Action: string(audit.EventAccountUpdated),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventAccountUpdated)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
	pub.Close()
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventSyncCompleted)})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_Timestamps(t *testing.T) {
	t.Run("sets missing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		defer pub.Close()

		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventSyncCompleted)}))
		after := time.Now()

		events, err := pub.List(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(after))
	})

	t.Run("preserves existing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		defer pub.Close()

		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventSyncFailed), Timestamp: custom}))

		events, err := pub.List(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
		assert.Equal(t, audit.CategorySecurity, events[0].Category)
	})
}

func TestPublisher_ListNewestFirst(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, action := range []audit.AuditEvent{audit.EventAccountExpirySet, audit.EventAccountEnabled, audit.EventSyncCompleted} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Action:    string(action),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := pub.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventSyncCompleted), events[0].Action)
	assert.Equal(t, string(audit.EventAccountEnabled), events[1].Action)
}
