// Package replica implements a single key-value replica that checks client
// session guarantees before serving reads and accepting writes.
//
// Replicas never exchange state with each other. Everything a session knows
// about other replicas travels in its own read and write vectors.
package replica
