// Package client drives one session against a cluster of replicas. It
// enables the chosen guarantees on every call, records successful reads in
// the session, and can fall through to the next replica when one is too far
// behind to serve the session.
package client
