package handlers

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/query"
)

// registryASN expands short DN42 ASN forms: 1 to 4 digit numbers map into
// the AS4242420000 block, anything longer keeps its own number.
func registryASN(payload string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(payload))
	s = strings.TrimPrefix(s, "AS")
	if s == "" {
		return "", false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	switch len(s) {
	case 1, 2, 3, 4:
		return "AS" + "4242420000"[:10-len(s)] + s, true
	default:
		return "AS" + s, true
	}
}

// handleDefault serves untagged queries: registry-flavored names go to the
// local mirror, everything else is proxied to the responsible public WHOIS
// server with the local mirror as fallback.
func (d *Dispatcher) handleDefault(ctx context.Context, q query.Query) (string, error) {
	if isRegistryQuery(q) {
		return d.registryLookup(q)
	}

	server := d.deps.Iana.ServerFor(ctx, q.Payload)
	body, err := d.deps.Whois.QueryWithReferral(ctx, server, q.Payload)
	if err == nil && !looksEmpty(body) {
		return body, nil
	}
	if err != nil {
		log.WithQuery(q.Raw).Debug().Err(err).Str("server", server).Msg("public whois failed, trying local mirror")
	}

	local, found := d.registryResolve(q)
	if found {
		return local, nil
	}
	if err != nil {
		// nothing local either, surface the upstream failure
		return "", err
	}
	return body, nil
}

// looksEmpty reports a WHOIS body that carried no object.
func looksEmpty(body string) bool {
	trimmed := strings.TrimSpace(body)
	return trimmed == "" ||
		strings.Contains(body, "No entries found") ||
		strings.Contains(body, "Not found")
}

// isRegistryQuery recognizes names that only exist in the local registry
// mirror namespace.
func isRegistryQuery(q query.Query) bool {
	upper := strings.ToUpper(q.Payload)
	return strings.HasPrefix(upper, "AS424242") ||
		strings.HasSuffix(upper, ".DN42") ||
		strings.HasSuffix(upper, "-DN42") ||
		strings.HasSuffix(upper, "-MNT") ||
		strings.HasSuffix(upper, "-SCHEMA") ||
		strings.HasPrefix(upper, "ORG-") ||
		strings.HasPrefix(upper, "RS-")
}

// registryLookup answers a query from the local registry mirror. A miss is
// rendered as a 404 body, never an error.
func (d *Dispatcher) registryLookup(q query.Query) (string, error) {
	body, _ := d.registryResolve(q)
	return body, nil
}

// registryResolve renders the mirror's answer and reports whether any
// object was actually found, so fallback paths can distinguish a miss from
// a hit.
func (d *Dispatcher) registryResolve(q query.Query) (string, bool) {
	var b strings.Builder
	comment(&b, "Query: %s", q.Payload)

	switch q.Kind {
	case query.KindIPv4, query.KindIPv6, query.KindCIDR:
		found := d.registryNetworkLookup(&b, q.Payload)
		return b.String(), found
	default:
		if content, ok := d.registryObjectLookup(q.Payload); ok {
			b.WriteString(content)
			return b.String(), true
		}
	}
	comment(&b, "404 Not Found")
	return b.String(), false
}

// registryNetworkLookup renders the inetnum/route (or inet6num/route6)
// pair covering an address or prefix, reporting whether either object
// exists in the mirror.
func (d *Dispatcher) registryNetworkLookup(b *strings.Builder, payload string) bool {
	prefix, err := parseNetwork(payload)
	if err != nil {
		comment(b, "404 Not Found")
		return false
	}

	netCategory, routeCategory := "inetnum", "route"
	if prefix.Addr().Is6() {
		netCategory, routeCategory = "inet6num", "route6"
	}

	found := false
	if content, ok := d.findCoveringNetwork(netCategory, prefix); ok {
		b.WriteString(content)
		found = true
	} else {
		comment(b, "404 - %s not found", netCategory)
	}
	comment(b, "Relevant route object:")
	if content, ok := d.findCoveringNetwork(routeCategory, prefix); ok {
		b.WriteString(content)
		found = true
	} else {
		comment(b, "404 - %s not found", routeCategory)
	}
	return found
}

func parseNetwork(payload string) (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(payload); err == nil {
		return p, nil
	}
	addr, err := netip.ParseAddr(payload)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// findCoveringNetwork walks candidate prefixes from the query mask down to
// /0 and returns the first object present in the mirror. Registry keys use
// underscores in place of slashes for network files.
func (d *Dispatcher) findCoveringNetwork(category string, prefix netip.Prefix) (string, bool) {
	for mask := prefix.Bits(); mask >= 0; mask-- {
		candidate, err := prefix.Addr().Prefix(mask)
		if err != nil {
			continue
		}
		network := fmt.Sprintf("%s/%d", candidate.Addr(), mask)
		for _, key := range []string{
			category + "/" + network,
			category + "/" + strings.ReplaceAll(network, "/", "_"),
		} {
			value, found, err := d.deps.Registry.Get(key)
			if err == nil && found {
				return string(value), true
			}
		}
	}
	return "", false
}

// registryObjectLookup tries each object category whose naming convention
// the query matches, most specific first.
func (d *Dispatcher) registryObjectLookup(payload string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(payload))

	if asn, ok := registryASN(payload); ok {
		if content, found := d.registryGet("aut-num/" + asn); found {
			return content, true
		}
	}
	if strings.HasSuffix(upper, "-DN42") {
		if content, found := d.registryGet("person/" + upper); found {
			return content, true
		}
	}
	if strings.HasSuffix(upper, "-MNT") {
		if content, found := d.registryGet("mntner/" + upper); found {
			return content, true
		}
	}
	if strings.HasSuffix(upper, "-SCHEMA") {
		if content, found := d.registryGet("schema/" + upper); found {
			return content, true
		}
	}
	if strings.HasPrefix(upper, "ORG-") {
		if content, found := d.registryGet("organisation/" + upper); found {
			return content, true
		}
	}
	if strings.HasPrefix(upper, "RS-") {
		if content, found := d.registryGet("route-set/" + upper); found {
			return content, true
		}
	}
	if strings.HasPrefix(upper, "AS") && strings.Contains(upper[2:], "-AS") {
		if content, found := d.registryGet("as-block/" + upper); found {
			return content, true
		}
	}
	if strings.HasPrefix(upper, "AS") && !allDigits(upper[2:]) {
		if content, found := d.registryGet("as-set/" + upper); found {
			return content, true
		}
	}
	// dns objects are the catch-all for name lookups
	if content, found := d.registryGet("dns/" + strings.ToLower(payload)); found {
		return content, true
	}
	return "", false
}

func (d *Dispatcher) registryGet(key string) (string, bool) {
	value, found, err := d.deps.Registry.Get(key)
	if err != nil || !found {
		return "", false
	}
	return string(value), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
