// Package trace runs the external traceroute helper. The binary is
// downloaded once on first use into the cache directory, invoked per
// query, and its output returned with ANSI escapes stripped. On Unix
// hosts lacking cap_net_raw the run falls back to UDP mode and the output
// carries guidance for granting the capability.
package trace
