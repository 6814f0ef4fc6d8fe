package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/tlscap"
)

// handleSSL captures and summarizes the TLS certificate of host or
// host:port targets.
func (d *Dispatcher) handleSSL(ctx context.Context, q query.Query) (string, error) {
	host, port := splitHostPort(q.Payload, tlscap.DefaultPort)

	cert, err := tlscap.Capture(ctx, host, port)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SSL Certificate Information for %s:%d\n", host, port)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Subject: %s\n", cert.Subject)
	fmt.Fprintf(&b, "Issuer: %s\n", cert.Issuer)
	fmt.Fprintf(&b, "Serial Number: %s\n", cert.SerialNumber)
	fmt.Fprintf(&b, "Version: %d\n", cert.Version)
	b.WriteByte('\n')

	b.WriteString("Validity Period:\n")
	fmt.Fprintf(&b, "  Valid From: %s\n", utcStampUnix(cert.NotBefore))
	fmt.Fprintf(&b, "  Valid Until: %s\n", utcStampUnix(cert.NotAfter))
	b.WriteByte('\n')

	b.WriteString("Algorithms:\n")
	fmt.Fprintf(&b, "  Signature Algorithm: %s\n", cert.SignatureAlg)
	fmt.Fprintf(&b, "  Public Key Algorithm: %s\n", cert.PublicKeyAlg)
	b.WriteByte('\n')

	if len(cert.SubjectAltNames) > 0 {
		b.WriteString("Subject Alternative Names:\n")
		for _, san := range cert.SubjectAltNames {
			fmt.Fprintf(&b, "  %s\n", san)
		}
		b.WriteByte('\n')
	}

	if len(cert.KeyUsage) > 0 {
		b.WriteString("Key Usage:\n")
		for _, usage := range cert.KeyUsage {
			fmt.Fprintf(&b, "  %s\n", usage)
		}
		b.WriteByte('\n')
	}

	b.WriteString("Certificate Properties:\n")
	fmt.Fprintf(&b, "  Is CA Certificate: %t\n", cert.IsCA)
	fmt.Fprintf(&b, "  Is Self-Signed: %t\n", cert.IsSelfSigned)
	fmt.Fprintf(&b, "  Certificate Chain Length: %d\n", cert.ChainLength)
	b.WriteByte('\n')

	b.WriteString("Fingerprints:\n")
	fmt.Fprintf(&b, "  SHA1: %s\n", cert.FingerprintSHA1)
	fmt.Fprintf(&b, "  SHA256: %s\n", cert.FingerprintSHA256)
	return b.String(), nil
}

// splitHostPort separates an optional :port suffix, falling back to def
// when absent or unparsable. IPv6 literals keep their colons.
func splitHostPort(target string, def int) (string, int) {
	i := strings.LastIndexByte(target, ':')
	if i < 0 || strings.Count(target, ":") > 1 {
		return target, def
	}
	port, err := strconv.Atoi(target[i+1:])
	if err != nil || port <= 0 || port > 65535 {
		return target, def
	}
	return target[:i], port
}
