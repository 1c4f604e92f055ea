package cluster

import (
	"fmt"
	"sort"
	"sync"

	"sessionkv/internal/replica"
)

// Cluster is a set of independent replicas addressed by ID.
// It is safe for concurrent use.
type Cluster struct {
	mu       sync.RWMutex
	ring     *Ring
	replicas map[string]*replica.Replica
}

// New creates an empty cluster whose ring uses vnodes virtual nodes per replica.
func New(vnodes int) *Cluster {
	return &Cluster{
		ring:     NewRing(vnodes),
		replicas: make(map[string]*replica.Replica),
	}
}

// Add registers r. Replica IDs must be unique and non-empty.
func (c *Cluster) Add(r *replica.Replica) error {
	if r.ID() == "" {
		return fmt.Errorf("replica ID cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.replicas[r.ID()]; exists {
		return fmt.Errorf("replica %s already registered", r.ID())
	}
	c.replicas[r.ID()] = r
	c.ring.AddNode(r.ID())
	return nil
}

// Remove unregisters the replica with the given ID.
func (c *Cluster) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.replicas, id)
	c.ring.RemoveNode(id)
}

// Replica returns the replica with the given ID.
func (c *Cluster) Replica(id string) (*replica.Replica, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.replicas[id]
	return r, ok
}

// Replicas returns every replica sorted by ID.
func (c *Cluster) Replicas() []*replica.Replica {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*replica.Replica, 0, len(c.replicas))
	for _, r := range c.replicas {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// PreferenceList returns every replica, ordered by walking the ring from key.
func (c *Cluster) PreferenceList(key string) []*replica.Replica {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.ring.PreferenceList(key, len(c.replicas))
	out := make([]*replica.Replica, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.replicas[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
