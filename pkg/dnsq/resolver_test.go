package dnsq

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func TestReverseName(t *testing.T) {
	name, err := ReverseName("1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1.in-addr.arpa.", name)

	name, err = ReverseName("2001:4860:4860::8888")
	require.NoError(t, err)
	assert.Contains(t, name, "ip6.arpa.")

	_, err = ReverseName("not-an-ip")
	assert.Error(t, err)
}

func TestSupportedTypes(t *testing.T) {
	for _, name := range []string{"A", "AAAA", "MX", "TXT", "NS", "SOA", "PTR"} {
		_, ok := SupportedTypes[name]
		assert.True(t, ok, "type %s", name)
	}
	assert.Len(t, SupportedTypes, 7)
}

func TestReferralExtraction(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		mustRR(t, "com. 172800 IN NS a.gtld-servers.net."),
		mustRR(t, "com. 172800 IN NS b.gtld-servers.net."),
	}
	msg.Extra = []dns.RR{
		mustRR(t, "a.gtld-servers.net. 172800 IN A 192.5.6.30"),
		mustRR(t, "unrelated.example. 172800 IN A 10.0.0.1"),
	}

	names := referralNameservers(msg)
	assert.Equal(t, []string{"a.gtld-servers.net.", "b.gtld-servers.net."}, names)

	glue := glueAddresses(msg, names)
	assert.Equal(t, []string{"192.5.6.30"}, glue)
}

func TestGluelessReferralHasNoAddresses(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		mustRR(t, "example.org. 172800 IN NS ns1.elsewhere.net."),
	}

	names := referralNameservers(msg)
	require.Len(t, names, 1)
	assert.Empty(t, glueAddresses(msg, names))
}

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}
