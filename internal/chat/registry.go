package chat

import (
	"log/slog"
	"sync"
)

// Channel is a live, bidirectional realtime connection bound to at most one
// identity. Push is best-effort and must not block.
type Channel interface {
	Push(payload []byte)
	Close()
}

// Registry tracks which identities currently hold a live realtime channel.
// It is purely in-memory: on restart every connection is gone and clients
// must re-authenticate.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register binds an identity to a channel. A newer binding replaces an
// existing one (last-write-wins, no multi-channel fan-out); the displaced
// channel is closed.
func (r *Registry) Register(identity string, ch Channel) {
	r.mu.Lock()
	prev := r.channels[identity]
	r.channels[identity] = ch
	r.mu.Unlock()

	if prev != nil && prev != ch {
		slog.Info("Replacing existing channel binding", "identity", identity)
		prev.Close()
	}
}

// Unregister removes the binding for identity if it still points at ch.
// A displaced channel disconnecting later must not tear down the binding
// that superseded it.
func (r *Registry) Unregister(identity string, ch Channel) {
	r.mu.Lock()
	if r.channels[identity] == ch {
		delete(r.channels, identity)
	}
	r.mu.Unlock()
}

// Lookup returns the channel currently bound to identity.
func (r *Registry) Lookup(identity string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[identity]
	return ch, ok
}
