package live

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry keeps clients alive between reconnects. Idle clients expire.
type Registry struct {
	cache *cache.Cache
	new   func(id string) *Client
}

// NewRegistry creates a registry whose entries expire after ttl without use.
// newClient builds the client for a fresh session id.
func NewRegistry(ttl time.Duration, newClient func(id string) *Client) *Registry {
	return &Registry{
		cache: cache.New(ttl, ttl/2),
		new:   newClient,
	}
}

// Resume returns the client for id, creating a new session when id is empty
// or unknown. The entry's expiry is refreshed either way.
func (r *Registry) Resume(id string) (*Client, bool) {
	if id != "" {
		if x, found := r.cache.Get(id); found {
			c := x.(*Client)
			r.cache.Set(id, c, cache.DefaultExpiration)
			return c, true
		}
	}
	c := r.new(uuid.New().String())
	r.cache.Set(c.ID, c, cache.DefaultExpiration)
	return c, false
}

// Touch refreshes the expiry of c.
func (r *Registry) Touch(c *Client) {
	r.cache.Set(c.ID, c, cache.DefaultExpiration)
}

// Delete forgets id.
func (r *Registry) Delete(id string) {
	r.cache.Delete(id)
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
