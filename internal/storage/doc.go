// Package storage provides the per-replica key-value store. Every value is
// tagged with the version vector of its replica at the time it was written,
// so a reader can tell which writes the value reflects.
package storage
