package tlscap

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// DefaultPort is the TLS port probed when the query names no port.
const DefaultPort = 443

// DefaultTimeout bounds the dial plus handshake.
const DefaultTimeout = 10 * time.Second

// Summary is the projection of an X.509 leaf rendered by the -SSL handler.
type Summary struct {
	Subject           string
	Issuer            string
	SerialNumber      string
	Version           int
	NotBefore         time.Time
	NotAfter          time.Time
	SignatureAlg      string
	PublicKeyAlg      string
	SubjectAltNames   []string
	KeyUsage          []string
	FingerprintSHA1   string
	FingerprintSHA256 string
	IsCA              bool
	IsSelfSigned      bool
	ChainLength       int
}

// Capture connects to host:port, completes a TLS handshake that accepts
// every certificate (expired, self-signed, unknown CA — the whole point is
// inspecting broken ones), forces the handshake with a minimal HEAD request
// and summarizes the peer's leaf certificate.
func Capture(ctx context.Context, host string, port int) (*Summary, error) {
	if port <= 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	logger := log.WithUpstream(addr)
	logger.Debug().Msg("capturing TLS certificate")

	dialer := &net.Dialer{Timeout: DefaultTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("connect %s: %w", addr, errkind.ErrTimeout)
		}
		return nil, fmt.Errorf("connect %s: %v: %w", addr, err, errkind.ErrUpstreamUnavailable)
	}

	conn := tls.Client(rawConn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
	})
	defer conn.Close()

	deadline := time.Now().Add(DefaultTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("tls handshake %s: %v: %w", addr, err, errkind.ErrUpstreamUnavailable)
	}

	// A minimal request guarantees the handshake has fully completed on
	// servers that defer certificate delivery.
	fmt.Fprintf(conn, "HEAD / HTTP/1.0\r\nHost: %s\r\n\r\n", host)

	chain := conn.ConnectionState().PeerCertificates
	if len(chain) == 0 {
		return nil, fmt.Errorf("no certificate from %s: %w", addr, errkind.ErrUpstreamMalformed)
	}

	return Summarize(chain[0], len(chain)), nil
}

// Summarize projects a parsed leaf certificate onto the rendered summary.
func Summarize(leaf *x509.Certificate, chainLength int) *Summary {
	sha1Sum := sha1.Sum(leaf.Raw)
	sha256Sum := sha256.Sum256(leaf.Raw)
	s := &Summary{
		Subject:           leaf.Subject.String(),
		Issuer:            leaf.Issuer.String(),
		SerialNumber:      strings.ToUpper(leaf.SerialNumber.Text(16)),
		Version:           leaf.Version,
		NotBefore:         leaf.NotBefore,
		NotAfter:          leaf.NotAfter,
		SignatureAlg:      leaf.SignatureAlgorithm.String(),
		PublicKeyAlg:      leaf.PublicKeyAlgorithm.String(),
		FingerprintSHA1:   Fingerprint(sha1Sum[:]),
		FingerprintSHA256: Fingerprint(sha256Sum[:]),
		IsCA:              leaf.IsCA,
		IsSelfSigned:      leaf.Subject.String() == leaf.Issuer.String(),
		ChainLength:       chainLength,
	}

	for _, dns := range leaf.DNSNames {
		s.SubjectAltNames = append(s.SubjectAltNames, "DNS: "+dns)
	}
	for _, ip := range leaf.IPAddresses {
		s.SubjectAltNames = append(s.SubjectAltNames, "IP: "+ip.String())
	}
	for _, email := range leaf.EmailAddresses {
		s.SubjectAltNames = append(s.SubjectAltNames, "Email: "+email)
	}
	for _, uri := range leaf.URIs {
		s.SubjectAltNames = append(s.SubjectAltNames, "URI: "+uri.String())
	}

	s.KeyUsage = keyUsageNames(leaf.KeyUsage)
	return s
}

// Fingerprint renders a digest as lowercase hex with ':' between bytes.
func Fingerprint(digest []byte) string {
	parts := make([]string, len(digest))
	for i, b := range digest {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, ":")
}

var keyUsageBits = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "Digital Signature"},
	{x509.KeyUsageContentCommitment, "Non Repudiation"},
	{x509.KeyUsageKeyEncipherment, "Key Encipherment"},
	{x509.KeyUsageDataEncipherment, "Data Encipherment"},
	{x509.KeyUsageKeyAgreement, "Key Agreement"},
	{x509.KeyUsageCertSign, "Key Cert Sign"},
	{x509.KeyUsageCRLSign, "CRL Sign"},
	{x509.KeyUsageEncipherOnly, "Encipher Only"},
	{x509.KeyUsageDecipherOnly, "Decipher Only"},
}

func keyUsageNames(usage x509.KeyUsage) []string {
	var names []string
	for _, ku := range keyUsageBits {
		if usage&ku.bit != 0 {
			names = append(names, ku.name)
		}
	}
	return names
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
