package mcping

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, 127, 128, 255, 25565, 2097151, 1<<31 - 1, -1} {
		encoded := appendVarint(nil, v)
		decoded, err := readVarint(bufio.NewReader(bytes.NewReader(encoded)))
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, decoded, "value %d", v)
	}
}

func TestVarintKnownEncodings(t *testing.T) {
	assert.Equal(t, []byte{0x00}, appendVarint(nil, 0))
	assert.Equal(t, []byte{0x7f}, appendVarint(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, appendVarint(nil, 128))
	assert.Equal(t, []byte{0xdd, 0xc7, 0x01}, appendVarint(nil, 25565))
}

func TestParseTarget(t *testing.T) {
	host, port, err := ParseTarget("mc.hypixel.net")
	require.NoError(t, err)
	assert.Equal(t, "mc.hypixel.net", host)
	assert.Equal(t, DefaultPort, port)

	host, port, err = ParseTarget("play.example.org:25566")
	require.NoError(t, err)
	assert.Equal(t, "play.example.org", host)
	assert.Equal(t, 25566, port)

	_, _, err = ParseTarget("bad:port:extra")
	assert.Error(t, err)
}

func TestHandshakePacketShape(t *testing.T) {
	p := handshakePacket("mc.example.org", 25565)
	require.NotEmpty(t, p)
	assert.Equal(t, byte(0x00), p[0])
	assert.Contains(t, string(p), "mc.example.org")
	// last varint is next_state=1
	assert.Equal(t, byte(0x01), p[len(p)-1])
}

func TestReadString(t *testing.T) {
	buf := appendVarint(nil, 5)
	buf = append(buf, []byte("hello")...)
	buf = append(buf, 0xFF)

	s, rest, err := readString(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, []byte{0xFF}, rest)
}

func TestDecodeDescription(t *testing.T) {
	assert.Equal(t, "A Minecraft Server", decodeDescription([]byte(`"A Minecraft Server"`)))
	assert.Equal(t, "Hello World", decodeDescription([]byte(`{"text":"Hello ","extra":[{"text":"World"}]}`)))
	assert.Empty(t, decodeDescription(nil))
}
