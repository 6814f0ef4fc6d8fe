package colorize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheme(t *testing.T) {
	scheme, ok := ParseScheme("ripe")
	require.True(t, ok)
	assert.Equal(t, SchemeRipe, scheme)

	scheme, ok = ParseScheme("  BGPTools ")
	require.True(t, ok)
	assert.Equal(t, SchemeBGPTools, scheme)

	_, ok = ParseScheme("mono")
	assert.False(t, ok)
}

func TestColorizeComments(t *testing.T) {
	out := Colorize(SchemeRipe, "% This query was served from cache")
	assert.True(t, strings.HasPrefix(out, "\x1b[90m"))
	assert.True(t, strings.HasSuffix(out, "\x1b[0m"))
}

func TestColorizeKnownAttribute(t *testing.T) {
	out := Colorize(SchemeRipe, "aut-num:            AS4242420000")
	assert.Contains(t, out, "aut-num:")
	assert.Contains(t, out, "\x1b[")
	// original text survives the escape sequences
	assert.Contains(t, stripEscapes(out), "AS4242420000")
}

func TestColorizeStatusConditional(t *testing.T) {
	valid := Colorize(SchemeRipe, "status:             VALID")
	invalid := Colorize(SchemeRipe, "status:             INVALID")
	assert.NotEqual(t, valid, invalid)
	// invalid must not reuse the valid palette
	assert.Contains(t, invalid, "\x1b[91m")
	assert.Contains(t, valid, "\x1b[92m")
}

func TestColorizePassthrough(t *testing.T) {
	// continuation lines and plain text stay untouched
	assert.Equal(t, "  continued value", Colorize(SchemeRipe, "  continued value"))
	assert.Equal(t, "plain text", Colorize(SchemeBGPTools, "plain text"))
}

func TestColorizeBGPToolsValueHighlighting(t *testing.T) {
	out := Colorize(SchemeBGPTools, "origin:             AS4242420000")
	assert.Contains(t, stripEscapes(out), "AS4242420000")
	assert.Contains(t, out, "\x1b[93m")
}

func TestColorizeStableFallback(t *testing.T) {
	a := Colorize(SchemeRipe, "flavour: vanilla")
	b := Colorize(SchemeRipe, "flavour: vanilla")
	assert.Equal(t, a, b)
}

func TestColorizeMultiline(t *testing.T) {
	in := "% header\naut-num: AS1\n\nperson: Test Person"
	out := Colorize(SchemeRipe, in)
	assert.Equal(t, len(strings.Split(in, "\n")), len(strings.Split(out, "\n")))
}

func stripEscapes(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
