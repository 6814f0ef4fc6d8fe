// Package mcping speaks the Minecraft Server-List-Ping protocol at the TCP
// level: varint-framed handshake with next_state=1, status request, JSON
// status response, and a trailing ping packet for round-trip time.
package mcping
