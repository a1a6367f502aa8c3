package session

import "sync"

// Registry maps client identities to their session stores.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the store for clientID. A client without a store is registered only when
// hasToken reports a persisted token, and then starts authenticated. Otherwise For hands
// back a detached unauthenticated store, so anonymous traffic leaves nothing behind.
// hasToken is not called for existing stores and runs without the registry lock held.
func (r *Registry) For(clientID string, hasToken func() bool) *Store {
	if st, ok := r.Lookup(clientID); ok {
		return st
	}
	if hasToken == nil || !hasToken() {
		return NewStore(false)
	}
	return r.attach(clientID, true)
}

// Attach returns the registered store for clientID, registering an unauthenticated one
// when there is none. Sign-in and subscriptions attach so their transitions are shared.
func (r *Registry) Attach(clientID string) *Store {
	return r.attach(clientID, false)
}

func (r *Registry) attach(clientID string, authenticated bool) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have registered the store while the token lookup ran.
	if st, ok := r.stores[clientID]; ok {
		return st
	}
	st := NewStore(authenticated)
	r.stores[clientID] = st
	return st
}

// Lookup returns the store for clientID without creating one.
func (r *Registry) Lookup(clientID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[clientID]
	return st, ok
}

// Drop forgets the store for clientID. Existing subscribers keep their reference.
func (r *Registry) Drop(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, clientID)
}

// Len returns the number of tracked clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
