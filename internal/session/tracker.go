package session

import (
	"fmt"

	"github.com/google/uuid"

	"sessionkv/internal/clock"
)

// Tracker holds a session's read set and write set.
// A Tracker belongs to one session and is not safe for concurrent use.
type Tracker struct {
	id    string
	read  clock.VersionVector
	write clock.VersionVector
}

// New creates a tracker with empty read and write vectors.
func New() *Tracker {
	return &Tracker{
		id:    uuid.NewString(),
		read:  clock.New(),
		write: clock.New(),
	}
}

// ID returns the session identifier.
func (t *Tracker) ID() string {
	return t.id
}

// ReadVector returns a copy of the replica state this session has observed.
func (t *Tracker) ReadVector() clock.VersionVector {
	return t.read.Copy()
}

// WriteVector returns a copy of the replica state this session has caused.
func (t *Tracker) WriteVector() clock.VersionVector {
	return t.write.Copy()
}

// RecordRead merges the vector returned by a successful read into the read set.
// Reads are not recorded automatically; callers decide which reads count.
func (t *Tracker) RecordRead(v clock.VersionVector) {
	t.read.Merge(v)
}

// RecordWrite notes that replicaID accepted a write from this session at clk.
// An entry is never lowered.
func (t *Tracker) RecordWrite(replicaID string, clk uint64) {
	if t.write.Get(replicaID) < clk {
		t.write.Set(replicaID, clk)
	}
}

func (t *Tracker) String() string {
	return fmt.Sprintf("session %s read=%s write=%s", t.id, t.read, t.write)
}
