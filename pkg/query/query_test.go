package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"1.1.1.1", KindIPv4},
		{"8.8.8.8", KindIPv4},
		{"2001:4860:4860::8888", KindIPv6},
		{"fd00::1", KindIPv6},
		{"172.20.0.0/14", KindCIDR},
		{"fd00::/8", KindCIDR},
		{"AS4242420000", KindASN},
		{"as13335", KindASN},
		{"13335", KindASN},
		{"example.com", KindDomain},
		{"sub.example-host.co.uk", KindDomain},
		{"burble.dn42", KindDomain},
		{"EXAMPLE-MNT", KindBare},
		{"-leading.example.com", KindBare},
		{"trailing-.example.com", KindBare},
		{"no dots here", KindBare},
		{"", KindBare},
	}

	for _, tt := range tests {
		q := Classify(tt.input)
		assert.Equal(t, tt.kind, q.Kind, "input %q", tt.input)
		assert.Empty(t, q.Tag, "input %q", tt.input)
	}
}

// Every tag in the closed set must dispatch regardless of case, and the
// payload must come back pre-stripped.
func TestClassifyEveryTag(t *testing.T) {
	for _, tag := range AllTags {
		for _, variant := range []string{
			"payload-" + string(tag),
			"payload-" + strings.ToLower(string(tag)),
		} {
			q := Classify(variant)
			assert.Equal(t, tag, q.Tag, "input %q", variant)
			assert.Equal(t, "payload", q.Payload, "input %q", variant)
		}
	}
}

func TestClassifyCompoundTagsWinOverPrefixes(t *testing.T) {
	assert.Equal(t, TagSteamSearch, Classify("portal-STEAMSEARCH").Tag)
	assert.Equal(t, TagTraceroute, Classify("1.1.1.1-TRACEROUTE").Tag)
	assert.Equal(t, TagMealCN, Classify("x-MEAL-CN").Tag)
	assert.Equal(t, TagMinecraft, Classify("mc.hypixel.net-MINECRAFT").Tag)
	assert.Equal(t, TagIMDBSearch, Classify("dune-IMDBSEARCH").Tag)
}

func TestClassifyTagRestoresKindDetection(t *testing.T) {
	q := Classify("8.8.8.8-ULTIMATEGEO")
	assert.Equal(t, TagUltimateGeo, q.Tag)
	assert.Equal(t, "8.8.8.8", q.Payload)
	assert.Equal(t, KindIPv4, q.Kind)

	q = Classify("AS13335-PREFIXES")
	assert.Equal(t, TagPrefixes, q.Tag)
	assert.Equal(t, KindASN, q.Kind)

	q = Classify("expired.badssl.com-SSL")
	assert.Equal(t, TagSSL, q.Tag)
	assert.Equal(t, KindDomain, q.Kind)

	q = Classify("9-PEN")
	assert.Equal(t, TagPEN, q.Tag)
	assert.Equal(t, "9", q.Payload)
}

func TestClassifyRPKITriPart(t *testing.T) {
	q := Classify("1.1.1.0/24-13335-RPKI")
	assert.Equal(t, TagRPKI, q.Tag)
	assert.Equal(t, "1.1.1.0/24", q.RPKIPrefix)
	assert.Equal(t, "13335", q.RPKIOrigin)

	// single IP widens to a host prefix
	q = Classify("1.1.1.1-13335-RPKI")
	assert.Equal(t, "1.1.1.1/32", q.RPKIPrefix)

	q = Classify("2606:4700::-13335-rpki")
	assert.Equal(t, "2606:4700::/128", q.RPKIPrefix)
	assert.Equal(t, "13335", q.RPKIOrigin)

	// malformed tri-part keeps the tag but yields no parts
	q = Classify("not-a-prefix-RPKI")
	assert.Equal(t, TagRPKI, q.Tag)
	assert.Empty(t, q.RPKIPrefix)
}

func TestClassifyBareHelp(t *testing.T) {
	assert.Equal(t, TagHelp, Classify("help").Tag)
	assert.Equal(t, TagHelp, Classify("HELP").Tag)
	assert.Equal(t, TagHelp, Classify("whats-up-HELP").Tag)
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	q := Classify("  example.com-GEO \r\n")
	assert.Equal(t, TagGeo, q.Tag)
	assert.Equal(t, "example.com", q.Payload)
}

func TestKindStringNames(t *testing.T) {
	cases := map[Kind]string{
		KindIPv4:   "ipv4",
		KindIPv6:   "ipv6",
		KindCIDR:   "cidr",
		KindASN:    "asn",
		KindDomain: "domain",
		KindBare:   "bare",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
