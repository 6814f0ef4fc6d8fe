package dnsq

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// maxReferralDepth bounds delegation chases from the root.
const maxReferralDepth = 10

// queryTimeout bounds one UDP exchange.
const queryTimeout = 5 * time.Second

// ErrDepthExhausted means a delegation chain exceeded maxReferralDepth or
// a referral carried an empty nameserver set.
var ErrDepthExhausted = errors.New("referral depth exhausted")

// rootServers are the IPv4 addresses of the thirteen root nameservers.
var rootServers = []string{
	"198.41.0.4",     // a.root-servers.net
	"199.9.14.201",   // b.root-servers.net
	"192.33.4.12",    // c.root-servers.net
	"199.7.91.13",    // d.root-servers.net
	"192.203.230.10", // e.root-servers.net
	"192.5.5.241",    // f.root-servers.net
	"192.112.36.4",   // g.root-servers.net
	"198.97.190.53",  // h.root-servers.net
	"192.36.148.17",  // i.root-servers.net
	"192.58.128.30",  // j.root-servers.net
	"193.0.14.129",   // k.root-servers.net
	"199.7.83.42",    // l.root-servers.net
	"202.12.27.33",   // m.root-servers.net
}

// fallbackResolvers answer glueless referrals the iterative walk cannot
// continue on its own.
var fallbackResolvers = []string{"8.8.8.8", "1.1.1.1"}

// SupportedTypes maps the record type names the -DNS handler accepts onto
// wire types.
var SupportedTypes = map[string]uint16{
	"A":    dns.TypeA,
	"AAAA": dns.TypeAAAA,
	"MX":   dns.TypeMX,
	"TXT":  dns.TypeTXT,
	"NS":   dns.TypeNS,
	"SOA":  dns.TypeSOA,
	"PTR":  dns.TypePTR,
}

// Resolver walks the DNS tree iteratively from the roots, following
// referrals by extracting NS records and their glue from the authority and
// additional sections.
type Resolver struct {
	client *dns.Client
	roots  []string
	rnd    *rand.Rand
}

// NewResolver creates an iterative resolver seeded at the root servers.
func NewResolver() *Resolver {
	return &Resolver{
		client: &dns.Client{Net: "udp", Timeout: queryTimeout},
		roots:  rootServers,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve answers one (name, qtype) question, returning answer records.
func (r *Resolver) Resolve(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	logger := log.WithComponent("dnsq")
	fqdn := dns.Fqdn(name)
	servers := r.roots

	for depth := 0; depth < maxReferralDepth; depth++ {
		if len(servers) == 0 {
			return nil, fmt.Errorf("resolving %s: empty nameserver set: %w", name, ErrDepthExhausted)
		}

		msg, err := r.exchange(ctx, servers[r.rnd.Intn(len(servers))], fqdn, qtype)
		if err != nil {
			// try the remaining servers for this level once via fallback
			logger.Debug().Err(err).Str("name", name).Msg("exchange failed, using fallback resolvers")
			return r.resolveViaFallback(ctx, fqdn, qtype)
		}

		if msg.Rcode == dns.RcodeNameError {
			return nil, fmt.Errorf("no such name %s: %w", name, errkind.ErrNotFound)
		}
		if len(msg.Answer) > 0 {
			return msg.Answer, nil
		}

		nsNames := referralNameservers(msg)
		if len(nsNames) == 0 {
			return nil, fmt.Errorf("no answer and no referral for %s: %w", name, errkind.ErrNotFound)
		}

		glue := glueAddresses(msg, nsNames)
		if len(glue) == 0 {
			// glueless referral: hand the rest of the walk to the
			// public resolvers
			logger.Debug().Str("name", name).Msg("glueless referral")
			return r.resolveViaFallback(ctx, fqdn, qtype)
		}
		servers = glue
	}

	return nil, fmt.Errorf("resolving %s: %w", name, ErrDepthExhausted)
}

// ReverseName converts an IP to its PTR name. Invalid input is an
// invalid-query error.
func ReverseName(ip string) (string, error) {
	name, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("%s is not an IP address: %w", ip, errkind.ErrInvalidQuery)
	}
	return name, nil
}

// exchange sends one query over UDP and retries once over TCP when the
// response came back truncated.
func (r *Resolver) exchange(ctx context.Context, server, fqdn string, qtype uint16) (*dns.Msg, error) {
	req := new(dns.Msg)
	req.SetQuestion(fqdn, qtype)
	req.RecursionDesired = false

	addr := net.JoinHostPort(server, "53")
	msg, _, err := r.client.ExchangeContext(ctx, req, addr)
	if err != nil {
		return nil, fmt.Errorf("dns exchange with %s: %v: %w", addr, err, errkind.ErrUpstreamUnavailable)
	}
	if msg.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: queryTimeout}
		msg, _, err = tcp.ExchangeContext(ctx, req, addr)
		if err != nil {
			return nil, fmt.Errorf("dns tcp retry with %s: %v: %w", addr, err, errkind.ErrUpstreamUnavailable)
		}
	}
	return msg, nil
}

// resolveViaFallback asks the public resolvers with recursion desired.
func (r *Resolver) resolveViaFallback(ctx context.Context, fqdn string, qtype uint16) ([]dns.RR, error) {
	req := new(dns.Msg)
	req.SetQuestion(fqdn, qtype)
	req.RecursionDesired = true

	var lastErr error
	for _, server := range fallbackResolvers {
		msg, _, err := r.client.ExchangeContext(ctx, req, net.JoinHostPort(server, "53"))
		if err != nil {
			lastErr = err
			continue
		}
		if msg.Rcode == dns.RcodeNameError {
			return nil, fmt.Errorf("no such name %s: %w", fqdn, errkind.ErrNotFound)
		}
		return msg.Answer, nil
	}
	return nil, fmt.Errorf("fallback resolvers failed: %v: %w", lastErr, errkind.ErrUpstreamUnavailable)
}

// referralNameservers extracts delegated NS names from the authority
// section.
func referralNameservers(msg *dns.Msg) []string {
	var names []string
	for _, rr := range msg.Ns {
		if ns, ok := rr.(*dns.NS); ok {
			names = append(names, ns.Ns)
		}
	}
	return names
}

// glueAddresses extracts A-record glue for the referred nameservers from
// the additional section.
func glueAddresses(msg *dns.Msg, nsNames []string) []string {
	wanted := make(map[string]struct{}, len(nsNames))
	for _, name := range nsNames {
		wanted[name] = struct{}{}
	}
	var addrs []string
	for _, rr := range msg.Extra {
		if a, ok := rr.(*dns.A); ok {
			if _, ok := wanted[a.Hdr.Name]; ok {
				addrs = append(addrs, a.A.String())
			}
		}
	}
	return addrs
}
