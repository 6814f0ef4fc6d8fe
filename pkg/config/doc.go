// Package config loads daemon configuration from an optional YAML file,
// WHOISD_* environment variables and defaults, in that order of
// precedence. API credentials for optional upstreams ride along in the
// keys section and are also accepted from their conventional environment
// variables (OMDB_API_KEY and friends).
package config
