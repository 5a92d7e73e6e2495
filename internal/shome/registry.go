package shome

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry hands out at most one logged-in Client per account. Sharing
// matters because every login invalidates the account's previous session
// server-side: two clients for the same username would endlessly log
// each other out.
type Registry struct {
	factory func(Credential) *Client

	group singleflight.Group

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates a registry. factory builds an unauthenticated
// client for a credential; the registry performs the login itself.
func NewRegistry(factory func(Credential) *Client) *Registry {
	return &Registry{
		factory: factory,
		clients: make(map[string]*Client),
	}
}

// Get returns the shared client for the credential's username, creating
// and logging it in on first use. Concurrent first calls for the same
// username collapse into a single login.
func (r *Registry) Get(ctx context.Context, cred Credential) (*Client, error) {
	r.mu.RLock()
	client, ok := r.clients[cred.Username]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := r.group.Do(cred.Username, func() (any, error) {
		r.mu.RLock()
		existing, ok := r.clients[cred.Username]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		c := r.factory(cred)
		if err := c.Login(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.clients[cred.Username] = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}
