package handlers

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/akaere/whoisd/pkg/dnsq"
	"github.com/akaere/whoisd/pkg/enrich"
	"github.com/akaere/whoisd/pkg/query"
)

// dnsRecordOrder fixes the section order of forward lookups.
var dnsRecordOrder = []string{"A", "AAAA", "MX", "TXT", "NS", "SOA"}

const dnsLookupTimeout = 10 * time.Second

// handleDNS answers -DNS queries: reverse lookup for IP payloads, a
// parallel sweep over the common record types for domain payloads.
func (d *Dispatcher) handleDNS(ctx context.Context, q query.Query) (string, error) {
	if net.ParseIP(q.Payload) != nil {
		return d.reverseDNS(ctx, q.Payload)
	}
	return d.forwardDNS(ctx, q.Payload)
}

func (d *Dispatcher) reverseDNS(ctx context.Context, ip string) (string, error) {
	ptrName, err := dnsq.ReverseName(ip)
	if err != nil {
		return "", err
	}
	records, err := d.deps.DNS.Resolve(ctx, ptrName, dns.TypePTR)
	if err != nil || len(records) == 0 {
		return fmt.Sprintf("No reverse DNS record found for IP: %s\n", ip), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reverse DNS Results for %s:\n\nPTR Records:\n", ip)
	for _, rr := range records {
		ptr, ok := rr.(*dns.PTR)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s (TTL: %d)\n", strings.TrimSuffix(ptr.Ptr, "."), rr.Header().Ttl)
	}
	return b.String(), nil
}

func (d *Dispatcher) forwardDNS(ctx context.Context, domain string) (string, error) {
	tasks := make([]enrich.Task, 0, len(dnsRecordOrder))
	for _, name := range dnsRecordOrder {
		qtype := dnsq.SupportedTypes[name]
		tasks = append(tasks, enrich.Task{
			ID:      name,
			Timeout: dnsLookupTimeout,
			Run: func(ctx context.Context) ([]byte, error) {
				records, err := d.deps.DNS.Resolve(ctx, domain, qtype)
				if err != nil {
					return nil, err
				}
				var section strings.Builder
				for _, rr := range records {
					if line := formatRecord(rr); line != "" {
						section.WriteString(line)
					}
				}
				return []byte(section.String()), nil
			},
		})
	}

	results := enrich.RunAll(ctx, tasks, len(tasks), 0)

	var b strings.Builder
	any := false
	for _, result := range results {
		if result.Err != nil || len(result.Output) == 0 {
			continue
		}
		if !any {
			fmt.Fprintf(&b, "DNS Records for %s:\n", domain)
			any = true
		}
		fmt.Fprintf(&b, "\n%s Records:\n", result.ID)
		b.Write(result.Output)
	}
	if !any {
		return fmt.Sprintf("No DNS records found for domain: %s\n", domain), nil
	}
	return b.String(), nil
}

// formatRecord renders one answer record as an indented data line. Records
// of a type other than the question (chased CNAMEs mostly) still render
// under the section that produced them.
func formatRecord(rr dns.RR) string {
	ttl := rr.Header().Ttl
	switch r := rr.(type) {
	case *dns.A:
		return fmt.Sprintf("  %s (TTL: %d)\n", r.A, ttl)
	case *dns.AAAA:
		return fmt.Sprintf("  %s (TTL: %d)\n", r.AAAA, ttl)
	case *dns.CNAME:
		return fmt.Sprintf("  %s (TTL: %d)\n", strings.TrimSuffix(r.Target, "."), ttl)
	case *dns.MX:
		return fmt.Sprintf("  %d %s (TTL: %d)\n", r.Preference, strings.TrimSuffix(r.Mx, "."), ttl)
	case *dns.TXT:
		return fmt.Sprintf("  %q (TTL: %d)\n", strings.Join(r.Txt, ""), ttl)
	case *dns.NS:
		return fmt.Sprintf("  %s (TTL: %d)\n", strings.TrimSuffix(r.Ns, "."), ttl)
	case *dns.SOA:
		return fmt.Sprintf("  %s %s %d %d %d %d %d (TTL: %d)\n",
			strings.TrimSuffix(r.Ns, "."), strings.TrimSuffix(r.Mbox, "."),
			r.Serial, r.Refresh, r.Retry, r.Expire, r.Minttl, ttl)
	case *dns.PTR:
		return fmt.Sprintf("  %s (TTL: %d)\n", strings.TrimSuffix(r.Ptr, "."), ttl)
	}
	return ""
}
