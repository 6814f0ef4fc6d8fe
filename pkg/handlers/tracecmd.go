package handlers

import (
	"context"
	"net"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
)

// handleTrace runs a traceroute to the target via the local helper.
func (d *Dispatcher) handleTrace(ctx context.Context, q query.Query) (string, error) {
	out, err := d.deps.Tracer.Run(ctx, q.Payload)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "Traceroute to %s", q.Payload)
	b.WriteByte('\n')
	b.WriteString(out)
	if !strings.HasSuffix(out, "\n") {
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// handleTracerouteRemote measures the route from a Globalping probe
// instead of this host. The payload may carry a probe location code:
// "1.1.1.1-us" traces from a United States probe.
func (d *Dispatcher) handleTracerouteRemote(ctx context.Context, q query.Query) (string, error) {
	if d.deps.Globalping == nil {
		return d.handleTrace(ctx, q)
	}

	target, location := splitTraceLocation(q.Payload)
	out, err := d.deps.Globalping.Traceroute(ctx, target, location)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "Remote traceroute to %s via Globalping", target)
	if location != "" {
		comment(&b, "Probe location: %s", location)
	}
	b.WriteByte('\n')
	b.WriteString(out)
	if !strings.HasSuffix(out, "\n") {
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// splitTraceLocation peels an optional probe location code off the payload.
// The code follows the last hyphen and is at most five characters; the
// remainder must still look like a host (contain a dot or parse as an IP)
// so hyphenated hostnames are left intact.
func splitTraceLocation(payload string) (target, location string) {
	i := strings.LastIndexByte(payload, '-')
	if i <= 0 {
		return payload, ""
	}
	head, tail := payload[:i], payload[i+1:]
	if len(tail) == 0 || len(tail) > 5 || strings.Contains(tail, ".") {
		return payload, ""
	}
	if !strings.Contains(head, ".") && net.ParseIP(head) == nil {
		return payload, ""
	}
	return head, tail
}
