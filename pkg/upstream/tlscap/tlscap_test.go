package tlscap

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

// selfSignedServer starts a TLS listener with an expired self-signed
// certificate and returns its host and port.
func selfSignedServer(t *testing.T) (string, int) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(0xABCD),
		Subject:      pkix.Name{CommonName: "expired.test"},
		NotBefore:    time.Now().Add(-48 * time.Hour),
		NotAfter:     time.Now().Add(-24 * time.Hour),
		DNSNames:     []string{"expired.test"},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 256)
				c.Read(buf)
				c.Close()
			}(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestCaptureAcceptsExpiredSelfSigned(t *testing.T) {
	host, port := selfSignedServer(t)

	summary, err := Capture(context.Background(), host, port)
	require.NoError(t, err)

	assert.Contains(t, summary.Subject, "CN=expired.test")
	assert.True(t, summary.IsSelfSigned)
	assert.Equal(t, 1, summary.ChainLength)
	assert.Contains(t, summary.SubjectAltNames, "DNS: expired.test")
	assert.Contains(t, summary.KeyUsage, "Digital Signature")
	assert.Contains(t, summary.KeyUsage, "Key Cert Sign")
	assert.True(t, summary.NotAfter.Before(time.Now()))
}

func TestFingerprintFormat(t *testing.T) {
	fp := Fingerprint([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Equal(t, "de:ad:be:ef", fp)

	host, port := selfSignedServer(t)
	summary, err := Capture(context.Background(), host, port)
	require.NoError(t, err)

	// 32 bytes → 95 chars of colon-separated lowercase hex
	assert.Len(t, summary.FingerprintSHA256, 95)
	assert.Len(t, summary.FingerprintSHA1, 59)
	assert.Equal(t, strings.ToLower(summary.FingerprintSHA256), summary.FingerprintSHA256)
}

func TestCaptureConnectFailure(t *testing.T) {
	_, err := Capture(context.Background(), "127.0.0.1", 1)
	assert.Error(t, err)
}
