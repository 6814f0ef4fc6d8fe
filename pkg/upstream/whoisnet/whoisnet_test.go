package whoisnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/query"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func TestExtractReferral(t *testing.T) {
	body := "% IANA WHOIS server\n" +
		"refer:        whois.verisign-grs.com\n" +
		"domain:       COM\n"
	server, ok := ExtractReferral(body)
	assert.True(t, ok)
	assert.Equal(t, "whois.verisign-grs.com", server)

	body = "as-block:       AS4200000000 - AS4294967294\n" +
		"whois:          whois.ripe.net\n"
	server, ok = ExtractReferral(body)
	assert.True(t, ok)
	assert.Equal(t, "whois.ripe.net", server)

	_, ok = ExtractReferral("domain: example.com\nstatus: active\n")
	assert.False(t, ok)
}

func TestIRRServerTable(t *testing.T) {
	for _, tag := range []query.Tag{
		query.TagRADB, query.TagALTDB, query.TagAFRINIC, query.TagAPNIC,
		query.TagARIN, query.TagBELL, query.TagJPIRR, query.TagLACNIC,
		query.TagLEVEL3, query.TagNTTCOM, query.TagRIPE, query.TagTC,
	} {
		server, ok := IRRServer(tag)
		assert.True(t, ok, "tag %s", tag)
		assert.NotEmpty(t, server, "tag %s", tag)
	}

	_, ok := IRRServer(query.TagSSL)
	assert.False(t, ok)
}

func TestIanaCacheToken(t *testing.T) {
	assert.Equal(t, "com", token("example.com"))
	assert.Equal(t, "net", token("Sub.Example.NET"))
	assert.Equal(t, "as13335", token("AS13335"))
	assert.Equal(t, "8.8.8.8", token("8.8.8.8"))
	assert.Equal(t, "2001:4860::", token("2001:4860::"))
	assert.Equal(t, "172.20.0.0/14", token("172.20.0.0/14"))
}
