package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(userID uuid.UUID, hub *Hub) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		hub:    hub,
		send:   make(chan WSMessage, 4),
		logger: zap.NewNop(),
	}
}

func TestHubDeliversToAllUserConnections(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	user, other := uuid.New(), uuid.New()

	first := newTestClient(user, hub)
	second := newTestClient(user, hub)
	bystander := newTestClient(other, hub)
	hub.Register(first)
	hub.Register(second)
	hub.Register(bystander)

	hub.NotifyUser(user, "event_updated", map[string]string{"event_id": "abc"})

	for _, c := range []*Client{first, second} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "event_updated", msg.Event)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
			assert.Equal(t, "abc", payload["event_id"])
		default:
			t.Fatal("expected a message on the client channel")
		}
	}
	select {
	case <-bystander.send:
		t.Fatal("bystander must not receive another user's notification")
	default:
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	user := uuid.New()

	c := newTestClient(user, hub)
	hub.Register(c)
	assert.Equal(t, 1, hub.ConnectionCount(user))

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ConnectionCount(user))

	hub.NotifyUser(user, "event_deleted", nil)
	select {
	case <-c.send:
		t.Fatal("message delivered after unregister")
	default:
	}
}

func TestHubSkipsSlowClientWithoutBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	user := uuid.New()

	c := newTestClient(user, hub)
	hub.Register(c)
	// Fill the buffer; further notifications are dropped, not blocked on.
	for i := 0; i < cap(c.send)+2; i++ {
		hub.NotifyUser(user, "event_updated", i)
	}
	assert.Len(t, c.send, cap(c.send))
}

// Runs with -race: a second connection opening while notifications are in
// flight must not trip concurrent map access in the hub.
func TestHubConcurrentRegisterAndNotify(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	user := uuid.New()
	hub.Register(newTestClient(user, hub))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.NotifyUser(user, "event_updated", i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c := newTestClient(user, hub)
			hub.Register(c)
			hub.Unregister(c)
		}
	}()
	wg.Wait()

	assert.Equal(t, 1, hub.ConnectionCount(user))
}

type failingSubscriber struct{}

func (failingSubscriber) SubscribeUser(uuid.UUID, func(string, []byte)) (func(), error) {
	return nil, errors.New("redis down")
}

func TestHubFallsBackToLocalWhenSubscribeFails(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, failingSubscriber{})
	user := uuid.New()

	c := newTestClient(user, hub)
	hub.Register(c)

	hub.NotifyUser(user, "event_shared", map[string]string{"event_id": "abc"})
	select {
	case msg := <-c.send:
		assert.Equal(t, "event_shared", msg.Event)
	default:
		t.Fatal("expected local delivery despite failed subscription")
	}

	// Unregister must not invoke a cancel func that was never stored.
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ConnectionCount(user))
}
