package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"quest/cmd/internal/progress"
)

// Hub owns the per-account feeds. It implements progress.Publisher.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	feeds   map[string]*Feed
	clients int
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		feeds: make(map[string]*Feed),
	}
}

// Join attaches client to its account's feed, creating the feed on first use.
func (h *Hub) Join(client *Client) {
	if client == nil || client.AccountID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[client.AccountID]
	if !ok {
		f = NewFeed(h.log, client.AccountID)
		h.feeds[client.AccountID] = f
	}
	f.Join(client)
	h.clients++
}

// Leave detaches client. Empty feeds are dropped.
func (h *Hub) Leave(client *Client) {
	if client == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[client.AccountID]
	if !ok {
		client.Close()
		return
	}

	before := f.Len()
	if left := f.Leave(client.SessionID); left == 0 {
		delete(h.feeds, client.AccountID)
	}
	if f.Len() < before {
		h.clients--
	}
}

// Clients returns the number of connected streams.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}

// Publish delivers env to every stream of accountID and reports how many accepted it.
func (h *Hub) Publish(accountID string, env Envelope) int {
	h.mu.RLock()
	f := h.feeds[accountID]
	h.mu.RUnlock()

	return f.Broadcast(env)
}

// PublishProgress announces a recorded progress entry to its owner.
func (h *Hub) PublishProgress(e progress.Entry) {
	payload, err := json.Marshal(ProgressRecordedPayload{
		ID:         e.ID,
		UserID:     e.AccountID,
		Seq:        e.Seq,
		LessonID:   e.LessonID,
		Status:     e.Status,
		XPEarned:   e.XPEarned,
		GemsEarned: e.GemsEarned,
		RecordedAt: e.RecordedAt,
	})
	if err != nil {
		h.log.Error("stream.publish.marshal.fail", "err", err)
		return
	}

	env, err := newEnvelope(TypeProgressRecorded, payload, time.Now().UTC())
	if err != nil {
		h.log.Error("stream.publish.envelope.fail", "err", err)
		return
	}

	n := h.Publish(e.AccountID, env)
	h.log.Debug("stream.publish", "user_id", e.AccountID, "delivered", n)
}

var _ progress.Publisher = (*Hub)(nil)
