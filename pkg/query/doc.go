/*
Package query classifies one WHOIS input line into a shape and an optional
suffix tag.

Classification is two-phase: the closed tag set is matched longest-suffix
first (so STEAMSEARCH wins over STEAM and TRACEROUTE over TRACE), then kind
detection runs on the pre-stripped payload in a fixed order: CIDR, IP
literal, ASN, domain, bare word.

Outputs are informational; the handler registry is the authority on routing.
*/
package query
