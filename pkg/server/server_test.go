package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/config"
	"github.com/akaere/whoisd/pkg/handlers"
	"github.com/akaere/whoisd/pkg/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	drainTimeout = 50 * time.Millisecond

	registry, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	penStore, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = penStore.Close() })

	object := "aut-num: AS4242420000\nas-name: EXAMPLE\n"
	require.NoError(t, registry.Put("aut-num/AS4242420000", []byte(object)))

	dispatcher := handlers.New(&handlers.Deps{
		Registry: registry,
		PenStore: penStore,
	})
	return New(config.Server{Port: 43, ResponseTimeout: 5 * time.Second}, dispatcher)
}

// runConn feeds input through one side of a pipe and returns everything
// the server wrote back.
func runConn(t *testing.T, s *Server, input string) string {
	t.Helper()
	client, srv := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(context.Background(), srv)
	}()

	go func() {
		_, _ = io.WriteString(client, input)
	}()

	var out strings.Builder
	buf := make([]byte, 4096)
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		n, err := client.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			break
		}
	}
	_ = client.Close()
	<-done
	return out.String()
}

func TestLocalRegistryQuery(t *testing.T) {
	s := testServer(t)
	out := runConn(t, s, "AS4242420000\r\n")

	assert.Contains(t, out, "% Akaere NetWorks Whois Server\r\n")
	assert.Contains(t, out, "aut-num: AS4242420000")
	assert.Contains(t, out, "as-name: EXAMPLE")
}

func TestColourProbeNegotiation(t *testing.T) {
	s := testServer(t)
	out := runConn(t, s, "X-WHOIS-COLOR-PROBE: 1\r\n\r\nAS4242420000\r\n")

	assert.True(t, strings.HasPrefix(out, "X-WHOIS-COLOR: 1.0 ripe,bgptools\r\n"),
		"response must start with the probe acknowledgement, got %q", out[:minInt(len(out), 60)])
	assert.Contains(t, out, "aut-num: AS4242420000")
}

func TestColourSchemeApplied(t *testing.T) {
	s := testServer(t)
	out := runConn(t, s, "X-WHOIS-COLOR: ripe\r\nAS4242420000\r\n")

	assert.Contains(t, out, "\x1b[", "negotiated scheme must produce ANSI sequences")
	assert.NotContains(t, out, "X-WHOIS-COLOR: 1.0", "plain scheme line must not trigger the probe ack")
}

func TestHelpQuery(t *testing.T) {
	s := testServer(t)
	out := runConn(t, s, "HELP\r\n")
	assert.Contains(t, out, "WHOIS Server - Query Help")
}

func TestEmptyQueryRejected(t *testing.T) {
	s := testServer(t)
	client, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(context.Background(), srv)
	}()
	// Nothing but a close: the server must give up quietly.
	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConn did not return after client close")
	}
}

func TestOversizedLineRejected(t *testing.T) {
	s := testServer(t)
	out := runConn(t, s, strings.Repeat("a", maxLineBytes+10)+"\r\n")
	assert.Contains(t, out, "% Error: invalid query")
}

func TestCRLFNormalization(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\n", toCRLF("a\nb"))
	assert.Equal(t, "a\r\nb\r\n", toCRLF("a\r\nb\r\n"))
	assert.Equal(t, "\r\n", toCRLF(""))
}

func TestReadLineCap(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", maxLineBytes*2)), maxLineBytes)
	_, err := readLine(r)
	assert.ErrorIs(t, err, errLineTooLong)

	r = bufio.NewReaderSize(strings.NewReader("  hello \r\n"), maxLineBytes)
	line, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	// missing trailing newline still yields the data
	r = bufio.NewReaderSize(strings.NewReader("partial"), maxLineBytes)
	line, err = readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "partial", line)
}

func TestServeShutdown(t *testing.T) {
	s := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	_, err = io.WriteString(conn, "HELP\r\n")
	require.NoError(t, err)
	body, _ := io.ReadAll(conn)
	assert.Contains(t, string(body), "WHOIS Server - Query Help")
	_ = conn.Close()

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
