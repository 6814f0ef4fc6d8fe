package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	colored := "\x1b[1;32m 1\x1b[0m  192.168.1.1  \x1b[33m0.5 ms\x1b[0m"
	assert.Equal(t, " 1  192.168.1.1  0.5 ms", StripANSI(colored))

	plain := " 2  10.0.0.1  1.2 ms"
	assert.Equal(t, plain, StripANSI(plain))
}

func TestNeedsCapability(t *testing.T) {
	assert.True(t, needsCapability("socket: operation not permitted", assert.AnError))
	assert.True(t, needsCapability("", errPermission{}))
	assert.False(t, needsCapability("traceroute to 1.1.1.1", assert.AnError))
}

type errPermission struct{}

func (errPermission) Error() string { return "permission denied" }

func TestReleaseAssetNaming(t *testing.T) {
	asset := releaseAsset()
	assert.Contains(t, asset, "nexttrace_")
}
