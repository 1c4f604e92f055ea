package cluster

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// vnode represents a virtual node on the ring.
type vnode struct {
	hash      uint32
	replicaID string
}

// Ring implements consistent hashing with virtual nodes over replica IDs.
type Ring struct {
	mu            sync.RWMutex
	vnodesPerNode int
	vnodes        []vnode
	members       map[string]struct{}
}

// NewRing creates a new consistent hashing ring.
func NewRing(vnodesPerNode int) *Ring {
	if vnodesPerNode <= 0 {
		vnodesPerNode = 128 // default
	}
	return &Ring{
		vnodesPerNode: vnodesPerNode,
		vnodes:        make([]vnode, 0),
		members:       make(map[string]struct{}),
	}
}

// SetNodes rebuilds the ring with the given replica IDs.
// Same IDs produce the same ring regardless of order.
func (r *Ring) SetNodes(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members = make(map[string]struct{})
	r.vnodes = make([]vnode, 0, len(ids)*r.vnodesPerNode)

	for _, id := range ids {
		if _, exists := r.members[id]; exists {
			continue
		}
		r.members[id] = struct{}{}
		r.vnodes = append(r.vnodes, r.vnodesFor(id)...)
	}

	sort.Slice(r.vnodes, func(i, j int) bool {
		return r.less(r.vnodes[i], r.vnodes[j])
	})
}

// AddNode adds a replica to the ring.
func (r *Ring) AddNode(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[id]; exists {
		return // already exists
	}

	r.members[id] = struct{}{}
	for _, v := range r.vnodesFor(id) {
		// Insert in sorted order
		idx := sort.Search(len(r.vnodes), func(i int) bool {
			return !r.less(r.vnodes[i], v)
		})
		r.vnodes = append(r.vnodes, vnode{})
		copy(r.vnodes[idx+1:], r.vnodes[idx:])
		r.vnodes[idx] = v
	}
}

// RemoveNode removes a replica from the ring.
func (r *Ring) RemoveNode(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[id]; !exists {
		return // doesn't exist
	}

	delete(r.members, id)
	kept := make([]vnode, 0, len(r.vnodes))
	for _, v := range r.vnodes {
		if v.replicaID != id {
			kept = append(kept, v)
		}
	}
	r.vnodes = kept
}

// ResponsibleNode returns the replica owning key.
// Returns ("", false) if the ring is empty.
func (r *Ring) ResponsibleNode(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 {
		return "", false
	}
	return r.vnodes[r.search(key)].replicaID, true
}

// PreferenceList returns the first k distinct replicas met walking the
// ring clockwise from key.
func (r *Ring) PreferenceList(key string, k int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 || k <= 0 {
		return []string{}
	}

	idx := r.search(key)
	seen := make(map[string]bool)
	result := make([]string, 0, k)

	// Start from the responsible replica and walk forward
	for i := 0; i < len(r.vnodes) && len(result) < k; i++ {
		id := r.vnodes[(idx+i)%len(r.vnodes)].replicaID
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}

	return result
}

// Nodes returns all replica IDs on the ring, sorted.
func (r *Ring) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of replicas on the ring.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// search returns the index of the first vnode at or after key's hash,
// wrapping to 0. Caller holds r.mu and the ring is non-empty.
func (r *Ring) search(key string) int {
	keyHash := hashString(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].hash >= keyHash
	})
	if idx >= len(r.vnodes) {
		idx = 0
	}
	return idx
}

func (r *Ring) vnodesFor(id string) []vnode {
	vs := make([]vnode, 0, r.vnodesPerNode)
	for i := 0; i < r.vnodesPerNode; i++ {
		vs = append(vs, vnode{
			hash:      hashString(fmt.Sprintf("%s-vnode-%d", id, i)),
			replicaID: id,
		})
	}
	return vs
}

// less orders by hash, breaking ties by replica ID so the ring layout does
// not depend on insertion order.
func (r *Ring) less(a, b vnode) bool {
	if a.hash != b.hash {
		return a.hash < b.hash
	}
	return a.replicaID < b.replicaID
}

// hashString computes a 32-bit FNV-1a hash of the string.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
