package runtime

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"sync"
)

type Set map[string]struct{}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // map session -> Sink
	owners   map[domain.Identity]Set       // map identity to its sessions
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		owners:   make(map[domain.Identity]Set),
	}
}

// GetSinks resolves every open session of identity into its sink.
// Returns nil when the identity has no open session.
func (r *Registry) GetSinks(identity domain.Identity) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionIDs, ok := r.owners[identity]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range sessionIDs {
		if sink, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a session sink for identity.
// Subscribing an existing session again replaces its sink.
func (r *Registry) Subscribe(sessionID string, identity domain.Identity, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = sink

	if _, ok := r.owners[identity]; !ok {
		r.owners[identity] = make(Set)
	}
	r.owners[identity][sessionID] = struct{}{}
}

// Unsubscribe drops the session and removes the identity entry once its
// last session is gone.
func (r *Registry) Unsubscribe(sessionID string, identity domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)

	if sessionIDs, ok := r.owners[identity]; ok {
		delete(sessionIDs, sessionID)
		if len(sessionIDs) == 0 {
			delete(r.owners, identity)
		}
	}
}

// Online reports whether identity has at least one open session.
func (r *Registry) Online(identity domain.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners[identity]) > 0
}
