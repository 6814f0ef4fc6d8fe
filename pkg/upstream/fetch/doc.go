// Package fetch is the single-shot HTTP/JSON client shared by all upstream
// REST handlers. It maps transport failures onto the errkind taxonomy:
// non-2xx → ErrUpstreamUnavailable (with the status code), decode failure →
// ErrUpstreamMalformed, elapsed deadline → ErrTimeout.
package fetch
