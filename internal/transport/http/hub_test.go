package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/domain"
)

func TestHubBroadcastReachesOnlyGroup(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	b := hub.Register("b")
	c := hub.Register("c")
	hub.Bind("AB12", "a")
	hub.Bind("AB12", "b")
	hub.Bind("CD34", "c")

	hub.Broadcast("AB12", domain.Message{Type: domain.MsgTimerUpdate, Payload: 7})

	for _, ch := range []<-chan []byte{a, b} {
		select {
		case data := <-ch:
			var msg struct {
				Type    string `json:"type"`
				Payload int    `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, domain.MsgTimerUpdate, msg.Type)
			assert.Equal(t, 7, msg.Payload)
		default:
			t.Fatal("expected broadcast")
		}
	}
	assert.Len(t, c, 0)

	hub.Unbind("AB12", "b")
	hub.Broadcast("AB12", domain.Message{Type: domain.MsgGameUpdate})
	assert.Len(t, a, 1)
	assert.Len(t, b, 0)

	hub.Close("AB12")
	hub.Broadcast("AB12", domain.Message{Type: domain.MsgGameUpdate})
	assert.Len(t, a, 1)
}

func TestHubUnicastAndUnregister(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	hub.Bind("AB12", "a")

	hub.Unicast("a", domain.Message{Type: domain.MsgError, Payload: domain.ErrorPayload{Message: "nope"}})
	require.Len(t, a, 1)
	assert.JSONEq(t, `{"type":"error","payload":{"message":"nope"}}`, string(<-a))

	hub.Unicast("ghost", domain.Message{Type: domain.MsgError})

	hub.Unregister("a")
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 0, hub.Count())

	// Unregistering twice and sending to a gone client are no-ops.
	hub.Unregister("a")
	hub.Broadcast("AB12", domain.Message{Type: domain.MsgGameUpdate})
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := hub.Register("slow")
	hub.Bind("AB12", "slow")

	for i := 0; i <= sendBuffer; i++ {
		hub.Broadcast("AB12", domain.Message{Type: domain.MsgTimerUpdate, Payload: i})
	}

	assert.Equal(t, 0, hub.Count())
	n := 0
	for range slow {
		n++
	}
	assert.Equal(t, sendBuffer, n)
}
