package errkind

import "errors"

// Sentinel error kinds shared across handlers and upstream clients.
// Callers wrap these with fmt.Errorf("...: %w", Err...) and match with
// errors.Is so the renderer can pick the right response shape.
var (
	// ErrInvalidQuery means the classifier rejected the input.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNotFound means a lookup completed but produced no hit.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable covers network errors, non-2xx responses and
	// unreachable upstream dependencies.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamMalformed means the upstream answered but its response
	// could not be parsed.
	ErrUpstreamMalformed = errors.New("upstream response malformed")

	// ErrFeatureDisabled means a required API key is not configured.
	ErrFeatureDisabled = errors.New("feature disabled")

	// ErrTimeout means a per-operation deadline elapsed.
	ErrTimeout = errors.New("timeout")

	// ErrInternal is an unexpected condition; log at ERROR, render generic.
	ErrInternal = errors.New("internal error")

	// ErrStoreFull means the storage map size budget is exhausted.
	// Writes fail; readers are unaffected.
	ErrStoreFull = errors.New("store full")
)
