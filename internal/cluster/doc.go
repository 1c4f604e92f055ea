// Package cluster keeps an explicit registry of replicas and orders them for
// a session or key with a consistent hashing ring, so clients try replicas in
// a stable order.
package cluster
