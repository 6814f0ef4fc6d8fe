/*
Package maintain keeps the long-lived external datasets fresh.

Two mirrors are maintained: the MANRS participant list (14 day freshness)
and IANA's Private Enterprise Numbers registry (daily). A single loop
re-examines both every hour and refreshes whichever is due, so a failed
download is retried within the hour instead of waiting out a full TTL.

	        ┌──────────── MAINTAINER ────────────┐
	        │                                    │
	tick ──▶│  MANRS due? ──▶ api.manrs.org      │──▶ store
	        │  PEN due?   ──▶ iana.org registry  │──▶ store
	        │                                    │
	        └────────────────────────────────────┘

Refreshes are guarded against overlap: MANRS collapses concurrent
requests through singleflight (on-demand checks can trigger it too), PEN
skips a tick when a long parse is still running.
*/
package maintain
