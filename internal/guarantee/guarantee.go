package guarantee

import (
	"errors"
	"fmt"
	"strings"

	"sessionkv/internal/clock"
)

// Kind identifies a session guarantee.
type Kind int

const (
	MonotonicReads Kind = iota + 1
	ReadYourWrites
	WritesFollowReads
	MonotonicWrites
)

// Kinds lists every guarantee in check order.
var Kinds = []Kind{MonotonicReads, ReadYourWrites, WritesFollowReads, MonotonicWrites}

// String returns the human-readable guarantee name.
func (k Kind) String() string {
	switch k {
	case MonotonicReads:
		return "Monotonic Reads"
	case ReadYourWrites:
		return "Read Your Writes"
	case WritesFollowReads:
		return "Writes Follow Reads"
	case MonotonicWrites:
		return "Monotonic Writes"
	default:
		return "Unknown"
	}
}

// Abbrev returns the short form (MR, RYW, WFR, MW).
func (k Kind) Abbrev() string {
	switch k {
	case MonotonicReads:
		return "MR"
	case ReadYourWrites:
		return "RYW"
	case WritesFollowReads:
		return "WFR"
	case MonotonicWrites:
		return "MW"
	default:
		return "?"
	}
}

// ParseKind accepts an abbreviation or a full name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	for _, k := range Kinds {
		if norm == strings.ToLower(k.Abbrev()) || norm == strings.ToLower(strings.ReplaceAll(k.String(), " ", "")) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown guarantee: %q", s)
}

// Set is a set of guarantees a session wants enforced.
type Set uint8

const (
	// None enforces nothing.
	None Set = 0
	// All enforces every guarantee.
	All = Set(1<<MonotonicReads | 1<<ReadYourWrites | 1<<WritesFollowReads | 1<<MonotonicWrites)
)

// NewSet builds a set from the given kinds.
func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s Set) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// With returns the set plus k.
func (s Set) With(k Kind) Set {
	return s | 1<<k
}

// Without returns the set minus k.
func (s Set) Without(k Kind) Set {
	return s &^ (1 << k)
}

// Kinds returns the members in check order.
func (s Set) Kinds() []Kind {
	kinds := make([]Kind, 0, len(Kinds))
	for _, k := range Kinds {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// ReadFlags returns the flags a read takes: MR and RYW.
func (s Set) ReadFlags() (mr, ryw bool) {
	return s.Has(MonotonicReads), s.Has(ReadYourWrites)
}

// WriteFlags returns the flags a write takes: WFR and MW.
func (s Set) WriteFlags() (wfr, mw bool) {
	return s.Has(WritesFollowReads), s.Has(MonotonicWrites)
}

func (s Set) String() string {
	kinds := s.Kinds()
	if len(kinds) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, k.Abbrev())
	}
	return strings.Join(parts, ",")
}

// ParseSet parses a comma-separated list such as "MR,RYW".
// "all" and "none" are accepted; empty input is None.
func ParseSet(str string) (Set, error) {
	str = strings.TrimSpace(str)
	switch strings.ToLower(str) {
	case "", "none":
		return None, nil
	case "all":
		return All, nil
	}

	var s Set
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return None, err
		}
		s = s.With(k)
	}
	return s, nil
}

// ErrViolation matches every *Violation with errors.Is.
var ErrViolation = errors.New("session guarantee violated")

// Violation reports that a replica has not applied enough state to honour
// a guarantee for a session. Nothing was changed when it is returned.
type Violation struct {
	Kind      Kind
	ReplicaID string
	// Required is the session vector the replica failed to dominate.
	Required clock.VersionVector
	// Applied is the replica's vector at check time.
	Applied clock.VersionVector
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s guarantee violated on replica %s", v.Kind, v.ReplicaID)
}

// Is makes errors.Is(err, ErrViolation) hold.
func (v *Violation) Is(target error) bool {
	return target == ErrViolation
}

// KindOf extracts the violated guarantee from err.
// It returns false when err does not wrap a *Violation.
func KindOf(err error) (Kind, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v.Kind, true
	}
	return 0, false
}

// Check returns a *Violation of kind k unless applied dominates required.
func Check(k Kind, replicaID string, applied, required clock.VersionVector) error {
	if applied.Dominates(required) {
		return nil
	}
	return &Violation{
		Kind:      k,
		ReplicaID: replicaID,
		Required:  required.Copy(),
		Applied:   applied.Copy(),
	}
}
