package mcping

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// DefaultPort is the standard Minecraft server port.
const DefaultPort = 25565

// protocolVersion is sent in the handshake; servers answer a status
// request regardless of version, 760 corresponds to 1.19.1.
const protocolVersion = 760

const dialTimeout = 10 * time.Second

// Status is the decoded Server-List-Ping response.
type Status struct {
	VersionName     string
	ProtocolVersion int
	PlayersOnline   int
	PlayersMax      int
	MOTD            string
	Latency         time.Duration
}

// statusJSON is the wire projection of the status payload. Description can
// be either a plain string or a chat component object.
type statusJSON struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
}

// ParseTarget splits "host[:port]" with the default port applied.
func ParseTarget(target string) (string, int, error) {
	if !strings.Contains(target, ":") {
		return target, DefaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, fmt.Errorf("bad minecraft target %q: %w", target, errkind.ErrInvalidQuery)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("bad minecraft port %q: %w", portStr, errkind.ErrInvalidQuery)
	}
	return host, port, nil
}

// Ping performs the Server-List-Ping exchange: handshake (next_state=1),
// status request, status response, then a ping packet for round-trip time.
func Ping(ctx context.Context, host string, port int) (*Status, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	log.WithUpstream(addr).Debug().Msg("minecraft server list ping")

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %v: %w", addr, err, errkind.ErrUpstreamUnavailable)
	}
	defer conn.Close()

	deadline := time.Now().Add(dialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	r := bufio.NewReader(conn)

	if err := writePacket(conn, handshakePacket(host, port)); err != nil {
		return nil, fmt.Errorf("handshake: %v: %w", err, errkind.ErrUpstreamUnavailable)
	}
	// status request is an empty packet with ID 0x00
	if err := writePacket(conn, []byte{0x00}); err != nil {
		return nil, fmt.Errorf("status request: %v: %w", err, errkind.ErrUpstreamUnavailable)
	}

	payload, err := readPacket(r)
	if err != nil {
		return nil, fmt.Errorf("status response: %v: %w", err, errkind.ErrUpstreamUnavailable)
	}
	if len(payload) == 0 || payload[0] != 0x00 {
		return nil, fmt.Errorf("unexpected status packet id: %w", errkind.ErrUpstreamMalformed)
	}

	body, _, err := readString(payload[1:])
	if err != nil {
		return nil, fmt.Errorf("status body: %v: %w", err, errkind.ErrUpstreamMalformed)
	}

	var wire statusJSON
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("status json: %v: %w", err, errkind.ErrUpstreamMalformed)
	}

	status := &Status{
		VersionName:     wire.Version.Name,
		ProtocolVersion: wire.Version.Protocol,
		PlayersOnline:   wire.Players.Online,
		PlayersMax:      wire.Players.Max,
		MOTD:            decodeDescription(wire.Description),
	}

	// ping packet: ID 0x01 followed by an int64 payload echoed back
	start := time.Now()
	pingPayload := make([]byte, 9)
	pingPayload[0] = 0x01
	binary.BigEndian.PutUint64(pingPayload[1:], uint64(start.UnixMilli()))
	if err := writePacket(conn, pingPayload); err == nil {
		if pong, err := readPacket(r); err == nil && len(pong) == 9 && pong[0] == 0x01 {
			status.Latency = time.Since(start)
		}
	}

	return status, nil
}

// handshakePacket builds the handshake with next_state=1 (status).
func handshakePacket(host string, port int) []byte {
	var p []byte
	p = append(p, 0x00) // packet ID
	p = appendVarint(p, protocolVersion)
	p = appendVarint(p, int32(len(host)))
	p = append(p, host...)
	p = binary.BigEndian.AppendUint16(p, uint16(port))
	p = appendVarint(p, 1) // next state: status
	return p
}

// writePacket frames data with its varint length prefix.
func writePacket(w io.Writer, data []byte) error {
	frame := appendVarint(nil, int32(len(data)))
	frame = append(frame, data...)
	_, err := w.Write(frame)
	return err
}

// readPacket reads one length-prefixed packet.
func readPacket(r *bufio.Reader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > 1<<21 {
		return nil, errors.New("packet length out of range")
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// appendVarint appends the protocol's little-group varint encoding.
func appendVarint(dst []byte, value int32) []byte {
	v := uint32(value)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// readVarint decodes one varint from the stream, at most five bytes.
func readVarint(r io.ByteReader) (int32, error) {
	var value uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(value), nil
		}
	}
	return 0, errors.New("varint too long")
}

// readString decodes a varint-length-prefixed string from a buffer,
// returning the remainder.
func readString(buf []byte) (string, []byte, error) {
	var length int32
	var n int
	for i := 0; i < 5 && i < len(buf); i++ {
		b := buf[i]
		length |= int32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			n = i + 1
			break
		}
	}
	if n == 0 {
		return "", nil, errors.New("bad string length")
	}
	rest := buf[n:]
	if int(length) < 0 || int(length) > len(rest) {
		return "", nil, errors.New("string length out of range")
	}
	return string(rest[:length]), rest[length:], nil
}

// decodeDescription flattens a chat-component MOTD (or plain string) to
// text.
func decodeDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var component struct {
		Text  string `json:"text"`
		Extra []struct {
			Text string `json:"text"`
		} `json:"extra"`
	}
	if err := json.Unmarshal(raw, &component); err != nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(component.Text)
	for _, e := range component.Extra {
		sb.WriteString(e.Text)
	}
	return sb.String()
}
