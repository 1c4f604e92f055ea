package client

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"sessionkv/internal/clock"
	"sessionkv/internal/cluster"
	"sessionkv/internal/guarantee"
	"sessionkv/internal/replica"
	"sessionkv/internal/session"
	"sessionkv/internal/storage"
)

// ErrNoReplicas is returned when the cluster has no replicas to try.
var ErrNoReplicas = errors.New("no replicas available")

// Client is a single session bound to a cluster and a guarantee set.
// It is not safe for concurrent use.
type Client struct {
	session    *session.Tracker
	cluster    *cluster.Cluster
	guarantees guarantee.Set
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithSession reuses an existing session tracker instead of starting a new one.
func WithSession(s *session.Tracker) Option {
	return func(c *Client) {
		c.session = s
	}
}

// New starts a session on the cluster enforcing guarantees.
func New(cl *cluster.Cluster, guarantees guarantee.Set, opts ...Option) *Client {
	c := &Client{
		cluster:    cl,
		guarantees: guarantees,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = session.New()
	}
	c.logger = c.logger.With().Str("session", c.session.ID()).Logger()
	return c
}

// Session returns the session tracker.
func (c *Client) Session() *session.Tracker {
	return c.session
}

// Guarantees returns the enforced guarantee set.
func (c *Client) Guarantees() guarantee.Set {
	return c.guarantees
}

// ReadFrom reads from r and records the result in the session.
func (c *Client) ReadFrom(r *replica.Replica) (clock.VersionVector, error) {
	mr, ryw := c.guarantees.ReadFlags()
	result, err := r.Read(c.session, mr, ryw)
	if err != nil {
		return nil, err
	}
	c.session.RecordRead(result)
	return result, nil
}

// WriteTo writes to r.
func (c *Client) WriteTo(r *replica.Replica) error {
	wfr, mw := c.guarantees.WriteFlags()
	return r.Write(c.session, wfr, mw)
}

// GetFrom reads key from r and records the read in the session.
// The value is nil when r has never stored key.
func (c *Client) GetFrom(r *replica.Replica, key string) (*storage.VersionedValue, error) {
	mr, ryw := c.guarantees.ReadFlags()
	vv, snapshot, err := r.Get(c.session, key, mr, ryw)
	if err != nil {
		return nil, err
	}
	c.session.RecordRead(snapshot)
	return vv, nil
}

// PutTo writes key=value to r.
func (c *Client) PutTo(r *replica.Replica, key string, value []byte) error {
	wfr, mw := c.guarantees.WriteFlags()
	_, err := r.Put(c.session, key, value, wfr, mw)
	return err
}

// DeleteFrom writes a tombstone for key to r.
func (c *Client) DeleteFrom(r *replica.Replica, key string) error {
	wfr, mw := c.guarantees.WriteFlags()
	_, err := r.Delete(c.session, key, wfr, mw)
	return err
}

// Read reads from the first replica, in the session's preference order,
// that satisfies the read guarantees.
func (c *Client) Read() (*replica.Replica, clock.VersionVector, error) {
	var result clock.VersionVector
	r, err := c.walk("read", c.session.ID(), func(r *replica.Replica) error {
		var err error
		result, err = c.ReadFrom(r)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return r, result, nil
}

// Write writes to the first replica, in the session's preference order,
// that satisfies the write guarantees.
func (c *Client) Write() (*replica.Replica, error) {
	return c.walk("write", c.session.ID(), c.WriteTo)
}

// Get reads key from the first replica, in the key's preference order,
// that satisfies the read guarantees.
func (c *Client) Get(key string) (*storage.VersionedValue, *replica.Replica, error) {
	var vv *storage.VersionedValue
	r, err := c.walk("get", key, func(r *replica.Replica) error {
		var err error
		vv, err = c.GetFrom(r, key)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return vv, r, nil
}

// Put writes key=value to the first replica, in the key's preference
// order, that satisfies the write guarantees.
func (c *Client) Put(key string, value []byte) (*replica.Replica, error) {
	return c.walk("put", key, func(r *replica.Replica) error {
		return c.PutTo(r, key, value)
	})
}

// Delete writes a tombstone for key to the first replica, in the key's
// preference order, that satisfies the write guarantees.
func (c *Client) Delete(key string) (*replica.Replica, error) {
	return c.walk("delete", key, func(r *replica.Replica) error {
		return c.DeleteFrom(r, key)
	})
}

// walk tries op on each replica in preference order for key. A guarantee
// violation moves on to the next replica; any other error stops the walk.
// Each replica is tried once.
func (c *Client) walk(op, key string, fn func(*replica.Replica) error) (*replica.Replica, error) {
	replicas := c.cluster.PreferenceList(key)
	if len(replicas) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoReplicas)
	}

	var violations []error
	for _, r := range replicas {
		err := fn(r)
		if err == nil {
			c.logger.Debug().Str("op", op).Str("replica", r.ID()).Int("skipped", len(violations)).Msg("served")
			return r, nil
		}
		if !errors.Is(err, guarantee.ErrViolation) {
			return nil, fmt.Errorf("%s on replica %s: %w", op, r.ID(), err)
		}
		c.logger.Debug().Str("op", op).Str("replica", r.ID()).Err(err).Msg("replica skipped")
		violations = append(violations, err)
	}

	c.logger.Warn().Str("op", op).Stringer("guarantees", c.guarantees).Msg("no replica satisfies session")
	return nil, fmt.Errorf("%s: no replica satisfies %s: %w", op, c.guarantees, errors.Join(violations...))
}
