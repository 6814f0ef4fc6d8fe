/*
Package metrics defines and registers the daemon's Prometheus metrics.

All metrics live on the default registry and are registered at package
init, so importing any instrumented package is enough to expose them.
The HTTP handler is served on a separate listener from the WHOIS port.

	┌──────────────── METRIC CATEGORIES ────────────────┐
	│                                                    │
	│  Connections: active gauge, accepted counter       │
	│  Queries:     per-tag counters and latency         │
	│  Upstreams:   per-upstream counters and latency    │
	│  Storage:     per-dataset size and key counts      │
	│  Maintenance: sync and refresh run outcomes        │
	│                                                    │
	└────────────────────────────────────────────────────┘
*/
package metrics
