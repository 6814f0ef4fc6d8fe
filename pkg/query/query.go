package query

import (
	"net/netip"
	"regexp"
	"strings"
)

// Kind is the shape of a query payload. Kinds are informational: routing is
// decided by the tag first and falls back to kind for untagged queries.
type Kind int

const (
	KindBare Kind = iota
	KindIPv4
	KindIPv6
	KindCIDR
	KindASN
	KindDomain
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindCIDR:
		return "cidr"
	case KindASN:
		return "asn"
	case KindDomain:
		return "domain"
	default:
		return "bare"
	}
}

// Query is one classified input line.
type Query struct {
	// Raw is the line as received, surrounding whitespace stripped.
	Raw string

	// Payload is Raw with the suffix tag removed.
	Payload string

	// Kind is the detected shape of Payload.
	Kind Kind

	// Tag is the recognized suffix tag, or empty for plain lookups.
	Tag Tag

	// RPKIPrefix and RPKIOrigin carry the parts of a tri-part
	// "<prefix>-<asn>-RPKI" query. Only set when Tag == TagRPKI.
	RPKIPrefix string
	RPKIOrigin string
}

var (
	asnPattern   = regexp.MustCompile(`^(?i)(AS)?[0-9]+$`)
	labelPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
)

// Classify normalizes and classifies one query line.
func Classify(raw string) Query {
	q := Query{Raw: strings.TrimSpace(raw)}
	q.Payload = q.Raw

	if tag, payload, ok := matchTag(q.Raw); ok {
		q.Tag = tag
		q.Payload = payload
		if tag == TagRPKI {
			q.RPKIPrefix, q.RPKIOrigin = splitRPKI(payload)
		}
	}

	q.Kind = detectKind(q.Payload)
	return q
}

// detectKind tries, in order: CIDR, IP literal, ASN, domain; anything else
// is a bare word.
func detectKind(payload string) Kind {
	if payload == "" {
		return KindBare
	}
	if strings.ContainsAny(payload, " \t") {
		return KindBare
	}

	if _, err := netip.ParsePrefix(payload); err == nil {
		return KindCIDR
	}

	if addr, err := netip.ParseAddr(payload); err == nil {
		if addr.Is4() {
			return KindIPv4
		}
		return KindIPv6
	}

	if asnPattern.MatchString(payload) {
		return KindASN
	}

	if isDomain(payload) {
		return KindDomain
	}

	return KindBare
}

// isDomain applies the classic hostname rules: at least one dot, 1–253
// characters overall, labels of 1–63 [A-Za-z0-9-] not starting or ending
// with a hyphen.
func isDomain(s string) bool {
	if len(s) < 1 || len(s) > 253 || !strings.Contains(s, ".") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		if !labelPattern.MatchString(label) {
			return false
		}
	}
	return true
}

// splitRPKI parses "<prefix>-<origin-asn>" where prefix contains a '/'.
// A single IP is widened to a host prefix. Returns empty strings when the
// payload does not fit the tri-part shape.
func splitRPKI(payload string) (prefix, origin string) {
	dash := strings.LastIndex(payload, "-")
	if dash <= 0 {
		return "", ""
	}
	prefixPart := payload[:dash]
	asnPart := strings.TrimPrefix(strings.ToUpper(payload[dash+1:]), "AS")
	if asnPart == "" {
		return "", ""
	}
	for _, c := range asnPart {
		if c < '0' || c > '9' {
			return "", ""
		}
	}

	if p, err := netip.ParsePrefix(prefixPart); err == nil {
		return p.String(), asnPart
	}
	if addr, err := netip.ParseAddr(prefixPart); err == nil {
		if addr.Is4() {
			return prefixPart + "/32", asnPart
		}
		return prefixPart + "/128", asnPart
	}
	return "", ""
}
