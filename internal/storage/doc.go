// Package storage keeps an append-only history of trigger runs
// (armed, fired, listing failures, invocation failures).
//
// History is read back only for display. A run is never resumed from it.
package storage
