// Package realtime delivers calendar notifications over WebSocket. Each user
// has a channel carrying events about their own and shared calendars; Redis
// pub/sub fans messages out across instances.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains user_id -> set of connections and delivers notifications.
// Uses Redis pub/sub for horizontal scaling: messages are published once and
// delivered locally by the subscription callback.
type Hub struct {
	// userID -> map[clientID]*Client
	users  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per user
	mu     sync.RWMutex
	logger *zap.Logger
	pub    RedisPublisher
	sub    RedisSubscriber
}

// RedisPublisher publishes a user notification for cross-instance delivery.
type RedisPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to a user's channel and invokes handler for
// incoming notifications.
type RedisSubscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. pub and sub may be nil, in which case
// delivery is local-only.
func NewHub(logger *zap.Logger, pub RedisPublisher, sub RedisSubscriber) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client connection. Starts the Redis subscription for this
// user when it is their first connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeUser(c.UserID, func(event string, payload []byte) {
				h.deliverLocal(c.UserID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("subscribe user channel failed, local-only delivery",
					zap.String("user_id", c.UserID.String()), zap.Error(err))
			} else {
				h.subs[c.UserID] = cancel
			}
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client connection. Cancels the Redis subscription
// when the user's last connection closes.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.subs[c.UserID]; ok {
				cancel()
				delete(h.subs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// NotifyUser sends a notification to all of a user's connections, on every
// instance. With Redis configured the message is published once and the
// subscriber callback performs the local delivery, avoiding duplicates.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal notification", zap.String("event", event), zap.Error(err))
		return
	}
	if h.pub != nil {
		if err := h.pub.PublishUserEvent(userID, event, data); err == nil {
			return
		}
		h.logger.Warn("publish notification failed, delivering locally", zap.String("event", event))
	}
	h.deliverLocal(userID, event, json.RawMessage(data))
}

// ConnectionCount returns the number of local connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) deliverLocal(userID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	// Sends are non-blocking, so the read lock is held for the whole
	// iteration; Register may otherwise grow the map mid-range.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.users[userID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
