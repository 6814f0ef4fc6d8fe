// Package pen maintains a local mirror of IANA's Private Enterprise
// Numbers registry.
//
// The registry is a single large text file refreshed daily by the
// maintenance loop. Parsed entries are cached individually with a 30 day
// TTL and evicted lazily on read, so a stalled refresh degrades into
// misses rather than stale answers.
//
//	enterprise-numbers.txt ──▶ Parse ──▶ StoreAll (batched)
//	                                        │
//	            Lookup / Search ◀───────────┘
package pen
