package replica

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"sessionkv/internal/clock"
	"sessionkv/internal/guarantee"
	"sessionkv/internal/session"
	"sessionkv/internal/storage"
)

// Replica owns the version vector of the writes it has applied and its own
// logical clock. The clock always equals the replica's entry in its vector.
type Replica struct {
	mu      sync.RWMutex
	id      string
	clock   uint64
	applied clock.VersionVector
	store   storage.Store
	logger  zerolog.Logger
}

// Option configures a Replica.
type Option func(*Replica)

// WithLogger sets the replica's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Replica) {
		r.logger = l
	}
}

// WithStore replaces the default in-memory store.
func WithStore(s storage.Store) Option {
	return func(r *Replica) {
		r.store = s
	}
}

// New creates a replica with an empty vector and clock 0.
func New(id string, opts ...Option) *Replica {
	r := &Replica{
		id:      id,
		applied: clock.New(),
		store:   storage.NewInMemoryStore(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("replica", id).Logger()
	return r
}

// ID returns the replica identifier.
func (r *Replica) ID() string {
	return r.id
}

// Clock returns the replica's own logical clock.
func (r *Replica) Clock() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clock
}

// Vector returns a snapshot of the replica's applied-state vector.
func (r *Replica) Vector() clock.VersionVector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied.Copy()
}

// Read serves a read for the session. With mr set, the replica must have
// seen everything the session has read; with ryw set, everything the session
// has written. The first failed check is returned as a *guarantee.Violation.
//
// On success Read returns a copy of the replica's vector. It does not record
// the read in the session; call s.RecordRead with the result for it to count.
func (r *Replica) Read(s *session.Tracker, mr, ryw bool) (clock.VersionVector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.checkRead(s, mr, ryw); err != nil {
		return nil, err
	}
	r.logger.Debug().Str("session", s.ID()).Stringer("vector", r.applied).Msg("read")
	return r.applied.Copy(), nil
}

// Write accepts a write from the session. With wfr set, the replica must have
// seen everything the session has read; with mw set, everything the session
// has written. On success the replica clock advances by one and the session's
// write vector records it. On violation nothing changes.
func (r *Replica) Write(s *session.Tracker, wfr, mw bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkWrite(s, wfr, mw); err != nil {
		return err
	}
	r.advance(s)
	return nil
}

// Check evaluates every guarantee in set against the session without side
// effects, in the order MR, RYW, WFR, MW.
func (r *Replica) Check(s *session.Tracker, set guarantee.Set) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mr, ryw := set.ReadFlags()
	if err := r.checkRead(s, mr, ryw); err != nil {
		return err
	}
	wfr, mw := set.WriteFlags()
	return r.checkWrite(s, wfr, mw)
}

// Get reads key under the read guarantees. The value is nil when the key was
// never written here; tombstones come back with Deleted set. The returned
// vector is the same snapshot Read would return.
func (r *Replica) Get(s *session.Tracker, key string, mr, ryw bool) (*storage.VersionedValue, clock.VersionVector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.checkRead(s, mr, ryw); err != nil {
		return nil, nil, err
	}
	vv := r.store.Get(key)
	r.logger.Debug().Str("session", s.ID()).Str("key", key).Bool("found", vv != nil).Msg("get")
	return vv, r.applied.Copy(), nil
}

// Put writes key under the write guarantees. The stored value is tagged
// with the replica's vector after the write, which is also returned.
func (r *Replica) Put(s *session.Tracker, key string, value []byte, wfr, mw bool) (clock.VersionVector, error) {
	return r.mutate(s, key, wfr, mw, func(version clock.VersionVector) error {
		return r.store.Put(key, value, version)
	})
}

// Delete writes a tombstone for key under the write guarantees.
func (r *Replica) Delete(s *session.Tracker, key string, wfr, mw bool) (clock.VersionVector, error) {
	return r.mutate(s, key, wfr, mw, func(version clock.VersionVector) error {
		return r.store.Delete(key, version)
	})
}

// Keys returns the keys stored on this replica.
func (r *Replica) Keys() []string {
	return r.store.Keys()
}

func (r *Replica) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id + " " + r.applied.String()
}

func (r *Replica) mutate(s *session.Tracker, key string, wfr, mw bool, apply func(clock.VersionVector) error) (clock.VersionVector, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkWrite(s, wfr, mw); err != nil {
		return nil, err
	}

	next := r.applied.Copy()
	next.Set(r.id, r.clock+1)
	if err := apply(next); err != nil {
		return nil, fmt.Errorf("replica %s: store %s: %w", r.id, key, err)
	}
	r.advance(s)
	return r.applied.Copy(), nil
}

// advance bumps the clock and records the write in the session.
// Caller holds r.mu for writing.
func (r *Replica) advance(s *session.Tracker) {
	r.clock++
	r.applied.Set(r.id, r.clock)
	s.RecordWrite(r.id, r.clock)

	r.logger.Debug().Str("session", s.ID()).Uint64("clock", r.clock).Msg("write applied")
}

// checkRead runs MR then RYW. Caller holds r.mu.
func (r *Replica) checkRead(s *session.Tracker, mr, ryw bool) error {
	if mr {
		if err := r.check(guarantee.MonotonicReads, s, s.ReadVector()); err != nil {
			return err
		}
	}
	if ryw {
		if err := r.check(guarantee.ReadYourWrites, s, s.WriteVector()); err != nil {
			return err
		}
	}
	return nil
}

// checkWrite runs WFR then MW. Caller holds r.mu.
func (r *Replica) checkWrite(s *session.Tracker, wfr, mw bool) error {
	if wfr {
		if err := r.check(guarantee.WritesFollowReads, s, s.ReadVector()); err != nil {
			return err
		}
	}
	if mw {
		if err := r.check(guarantee.MonotonicWrites, s, s.WriteVector()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replica) check(k guarantee.Kind, s *session.Tracker, required clock.VersionVector) error {
	err := guarantee.Check(k, r.id, r.applied, required)
	if err != nil {
		r.logger.Info().
			Str("session", s.ID()).
			Str("guarantee", k.Abbrev()).
			Stringer("applied", r.applied).
			Stringer("required", required).
			Msg("guarantee violated")
	}
	return err
}
