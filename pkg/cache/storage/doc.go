// Package storage provides pluggable persistence backends for cached
// responses.
//
// Two backends are available: MemoryBackend (default, bounded map, no
// persistence) and SQLiteBackend (durable across restarts). Both enforce
// entry expiry on read; the cache layer above them treats TTL as advisory
// and delegates enforcement here.
package storage
