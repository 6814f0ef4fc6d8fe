/*
Package server implements the WHOIS TCP front end.

Each accepted connection runs as one goroutine through a fixed state
machine: read an optional colour-negotiation preface, read one query
line, dispatch it, write the response, half-close and drain. There is no
session state; classic WHOIS semantics close the connection after one
answer.

The colour preface is a small in-band extension. Before the query a
client may send

	X-WHOIS-COLOR-PROBE: 1
	X-WHOIS-COLOR: ripe

A probe is acknowledged with the supported protocol version and scheme
list before the next read. When a scheme was negotiated, the response
body is run through the colorize package on its way out.
*/
package server
