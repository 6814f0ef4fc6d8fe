/*
Package whoisnet is the WHOIS-over-TCP client layer.

One exchange is: connect to (host, 43), write "query\r\n", read to EOF.
The transport rides on github.com/domainr/whois with separate connect and
read deadlines; retries never happen here. On top of the raw exchange the
package provides the static IRR server table, "refer:"/"whois:" referral
extraction with at-most-once following, and a storage-backed cache of IANA
routing decisions so repeated lookups for the same TLD or number block skip
the whois.iana.org round trip.
*/
package whoisnet
