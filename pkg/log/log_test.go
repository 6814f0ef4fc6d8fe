package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	Logger.Info().Str("k", "v").Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestChildLoggersChainDirectly(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	WithComponent("storage").Info().Msg("opened")
	WithConnID("c1").Debug().Msg("accepted")
	WithQuery("AS64512").Warn().Msg("slow")
	WithUpstream("whois.ripe.net").Error().Msg("refused")

	out := buf.String()
	assert.Contains(t, out, `"component":"storage"`)
	assert.Contains(t, out, `"conn_id":"c1"`)
	assert.Contains(t, out, `"query":"AS64512"`)
	assert.Contains(t, out, `"upstream":"whois.ripe.net"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	WithComponent("quiet").Info().Msg("dropped")
	WithComponent("quiet").Warn().Msg("kept")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}
