// Package session tracks what a single client session has read and written,
// as two version vectors that only ever grow.
package session
