/*
Package dnsq implements a minimal iterative DNS resolver for the -DNS
handler.

Resolution starts at a hardcoded root-server list and follows referrals by
extracting NS records and their glue A records from the authority and
additional sections, at most ten levels deep. On a glueless referral the
remaining walk is delegated to two well-known public resolvers rather than
recursing to resolve the nameservers themselves. Message encoding,
compression pointers and label-length validation ride on miekg/dns.
*/
package dnsq
