// Package colorize renders query responses with ANSI colour for clients
// that negotiate it. Two palettes are offered: "ripe" mimics the RIPE
// database web colouring of RPSL attributes, "bgptools" mimics the
// bgp.tools table colouring with per-element highlighting of ASNs,
// addresses and domains inside values. Colour is forced on because output
// goes to sockets, never a terminal.
package colorize
