// Package tlscap captures TLS certificate chains for inspection. The
// handshake deliberately accepts every certificate — expired, self-signed,
// unknown CA — because the -SSL handler exists to inspect exactly those.
// The captured leaf is projected onto a Summary with colon-separated
// SHA1/SHA256 fingerprints of the DER bytes.
package tlscap
