// Package guarantee names the four client session guarantees and the error
// reported when a replica cannot honour one of them.
package guarantee
