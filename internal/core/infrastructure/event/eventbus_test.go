package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/event"
)

type statusEvent struct {
	Flow   string
	Status string
}

func TestEventBus(t *testing.T) {
	bus := New(nil)
	topic := event.EventType("chain.tx.status")

	t.Run("同步订阅", func(t *testing.T) {
		var got []statusEvent
		handler := func(e statusEvent) { got = append(got, e) }
		require.NoError(t, bus.Subscribe(topic, handler))
		assert.True(t, bus.HasCallback(topic))

		bus.Publish(topic, statusEvent{Flow: "f1", Status: "inBlock"})
		bus.Publish(topic, statusEvent{Flow: "f1", Status: "finalized"})
		require.Len(t, got, 2)
		assert.Equal(t, "finalized", got[1].Status)

		require.NoError(t, bus.Unsubscribe(topic, handler))
		bus.Publish(topic, statusEvent{Flow: "f1", Status: "dropped"})
		assert.Len(t, got, 2, "取消订阅后不再接收")
	})

	t.Run("异步订阅", func(t *testing.T) {
		async := event.EventType("flow.stage")
		var mu sync.Mutex
		count := 0
		require.NoError(t, bus.SubscribeAsync(async, func(string) {
			mu.Lock()
			count++
			mu.Unlock()
		}, false))

		for i := 0; i < 5; i++ {
			bus.Publish(async, "recorded")
		}
		bus.WaitAsync()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, count)
	})

	t.Run("无订阅者时发布不阻塞", func(t *testing.T) {
		before := bus.Published()
		bus.Publish(event.EventType("nobody"), 1)
		assert.Equal(t, before+1, bus.Published())
	})
}
