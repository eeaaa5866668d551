package realtime

import (
	"log/slog"
	"sync"
)

// Feed fans out one account's events to all of that account's open streams.
//
// Concurrency guarantees:
// - Join/Leave are safe under concurrent Broadcast.
// - Broadcast never blocks (drops under backpressure).
// - Broadcast is panic-safe because Client.Send is never closed by the server.
type Feed struct {
	log       *slog.Logger
	AccountID string

	mu      sync.RWMutex
	members map[string]*Client
}

// NewFeed constructs a feed for accountID.
func NewFeed(log *slog.Logger, accountID string) *Feed {
	return &Feed{
		log:       log,
		AccountID: accountID,
		members:   make(map[string]*Client),
	}
}

// Join adds a client to the feed.
func (f *Feed) Join(client *Client) {
	if f == nil || client == nil || client.SessionID == "" {
		return
	}

	f.mu.Lock()
	f.members[client.SessionID] = client
	f.mu.Unlock()

	f.log.Debug("stream.feed.join", "user_id", f.AccountID, "session_id", client.SessionID)
}

// Leave removes a client and signals its shutdown. It reports the remaining member count.
func (f *Feed) Leave(sessionID string) int {
	if f == nil || sessionID == "" {
		return 0
	}

	f.mu.Lock()
	cl := f.members[sessionID]
	delete(f.members, sessionID)
	left := len(f.members)
	f.mu.Unlock()

	// Signal client shutdown after removing from membership.
	// A publisher still holding the pointer only sees a closed done channel.
	if cl != nil {
		cl.Close()
	}

	f.log.Debug("stream.feed.leave", "user_id", f.AccountID, "session_id", sessionID)
	return left
}

// Len returns the number of members.
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.members)
}

// Broadcast delivers env to every member.
// Non-blocking: if a member queue is full or the client is shutting down, it is dropped.
func (f *Feed) Broadcast(env Envelope) (delivered int) {
	if f == nil {
		return 0
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, m := range f.members {
		if m == nil {
			continue
		}

		select {
		case <-m.Done():
			continue
		default:
		}

		select {
		case m.Send <- env:
			delivered++
		default:
			f.log.Info("stream.feed.drop", "user_id", f.AccountID, "session_id", m.SessionID)
		}
	}
	return delivered
}
