package clock

import (
	"fmt"
	"sort"
	"strings"
)

// VersionVector maps a replica ID to that replica's logical clock.
// Missing entries read as 0. Thread-safe operations should be handled by the caller.
type VersionVector map[string]uint64

// New creates a new empty version vector.
func New() VersionVector {
	return make(VersionVector)
}

// Get returns the clock for the given replica ID, or 0 if not present.
func (vv VersionVector) Get(replicaID string) uint64 {
	return vv[replicaID]
}

// Set overwrites the clock for the given replica ID.
// It does not check that the clock moves forward; callers that advance
// clocks own that invariant.
func (vv VersionVector) Set(replicaID string, value uint64) {
	vv[replicaID] = value
}

// Merge raises every entry of other into this vector, taking the maximum
// clock per replica ID. Entries only present in this vector are untouched.
func (vv VersionVector) Merge(other VersionVector) {
	for replicaID, c := range other {
		if vv[replicaID] < c {
			vv[replicaID] = c
		}
	}
}

// Dominates reports whether this vector has seen everything other has:
// for every replica ID in other, this clock is >= other's clock.
// Every vector dominates itself.
func (vv VersionVector) Dominates(other VersionVector) bool {
	for replicaID, c := range other {
		if vv[replicaID] < c {
			return false
		}
	}
	return true
}

// Copy creates a deep copy of the version vector.
func (vv VersionVector) Copy() VersionVector {
	cp := make(VersionVector, len(vv))
	for k, v := range vv {
		cp[k] = v
	}
	return cp
}

// CompareResult represents the result of comparing two version vectors.
type CompareResult int

const (
	// Before indicates this vector happened before the other.
	Before CompareResult = iota
	// After indicates this vector happened after the other.
	After
	// Concurrent indicates the vectors are concurrent (no causal relationship).
	Concurrent
	// Equal indicates the vectors are equal.
	Equal
)

// String returns the string representation of CompareResult.
func (r CompareResult) String() string {
	switch r {
	case Before:
		return "BEFORE"
	case After:
		return "AFTER"
	case Concurrent:
		return "CONCURRENT"
	case Equal:
		return "EQUAL"
	default:
		return "UNKNOWN"
	}
}

// Compare compares two version vectors and returns their relationship.
// Missing entries count as 0, so {A:0} and {} are Equal.
// Returns:
//   - Equal: if all clocks are equal
//   - Before: if this vector happened before other (all clocks <=, at least one <)
//   - After: if this vector happened after other (all clocks >=, at least one >)
//   - Concurrent: if neither dominates
func (vv VersionVector) Compare(other VersionVector) CompareResult {
	thisDominates := vv.Dominates(other)
	otherDominates := other.Dominates(vv)

	switch {
	case thisDominates && otherDominates:
		return Equal
	case thisDominates:
		return After
	case otherDominates:
		return Before
	default:
		return Concurrent
	}
}

// Equal checks if two version vectors hold the same clocks.
func (vv VersionVector) Equal(other VersionVector) bool {
	return vv.Compare(other) == Equal
}

// IsConcurrent returns true if neither vector dominates the other.
func (vv VersionVector) IsConcurrent(other VersionVector) bool {
	return vv.Compare(other) == Concurrent
}

// String returns a string representation of the version vector.
func (vv VersionVector) String() string {
	if len(vv) == 0 {
		return "{}"
	}

	// Sort for deterministic output
	keys := make([]string, 0, len(vv))
	for k := range vv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, vv[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
