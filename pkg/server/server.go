package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akaere/whoisd/pkg/colorize"
	"github.com/akaere/whoisd/pkg/config"
	"github.com/akaere/whoisd/pkg/handlers"
	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/query"
)

const (
	// maxLineBytes caps a single input line; anything longer is rejected
	// without reading further.
	maxLineBytes = 4096

	// maxPrefaceLines bounds how many negotiation lines a client may send
	// before the query.
	maxPrefaceLines = 16

	probePrefix  = "X-WHOIS-COLOR-PROBE:"
	schemePrefix = "X-WHOIS-COLOR:"
)

// drainTimeout bounds how long teardown waits for the client to finish
// sending. Shortened in tests.
var drainTimeout = 2 * time.Second

// probeAck answers a colour probe with the protocol version and the
// advertised scheme list.
const probeAck = "X-WHOIS-COLOR: 1.0 " + colorize.Schemes + "\r\n"

const banner = "% Akaere NetWorks Whois Server\r\n" +
	"% The objects are in RPSL format\r\n" +
	"% Please report any issues to noc@akae.re\r\n" +
	"\r\n"

var errLineTooLong = errors.New("input line exceeds 4096 bytes")

// Server is the TCP front end. One goroutine per accepted connection,
// one query per connection.
type Server struct {
	cfg        config.Server
	dispatcher *handlers.Dispatcher
	wg         sync.WaitGroup
}

// New builds a Server around a compiled dispatcher.
func New(cfg config.Server, dispatcher *handlers.Dispatcher) *Server {
	return &Server{cfg: cfg, dispatcher: dispatcher}
}

// ListenAndServe binds the configured port and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	log.WithComponent("server").Info().Int("port", s.cfg.Port).Msg("whois server listening")
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then waits for
// in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			log.WithComponent("server").Warn().Err(err).Msg("accept failed")
			continue
		}

		metrics.ConnectionsTotal.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) responseTimeout() time.Duration {
	if s.cfg.ResponseTimeout > 0 {
		return s.cfg.ResponseTimeout
	}
	return 30 * time.Second
}

// handleConn drives the per-connection state machine: preface, query,
// response, teardown.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	logger := log.WithConnID(connID)

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()
	defer conn.Close()

	timeout := s.responseTimeout()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	reader := bufio.NewReaderSize(conn, maxLineBytes)
	raw, scheme, err := s.readPreface(reader, conn)
	if err != nil {
		logger.Debug().Err(err).Msg("connection ended before a query arrived")
		if errors.Is(err, errLineTooLong) {
			_, _ = io.WriteString(conn, "% Error: invalid query\r\n")
		}
		return
	}

	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := query.Classify(raw)
	logger.Info().
		Str("query", q.Raw).
		Str("kind", q.Kind.String()).
		Str("tag", string(q.Tag)).
		Msg("query received")

	body := s.dispatcher.Dispatch(qctx, q)
	if scheme != "" {
		body = colorize.Colorize(scheme, body)
	}

	if _, err := io.WriteString(conn, banner+toCRLF(body)); err != nil {
		logger.Debug().Err(err).Msg("response write failed")
		return
	}
	teardown(conn)
}

// readPreface consumes negotiation lines until the query line arrives. A
// probe is acknowledged immediately, a scheme line updates the negotiated
// scheme, and a blank line is skipped. The first other line is the query.
func (s *Server) readPreface(r *bufio.Reader, w io.Writer) (string, colorize.Scheme, error) {
	var scheme colorize.Scheme
	for i := 0; i < maxPrefaceLines; i++ {
		line, err := readLine(r)
		if err != nil {
			return "", scheme, err
		}
		upper := strings.ToUpper(line)
		switch {
		case line == "":
			// blank line ends the preface, the query follows
		case strings.HasPrefix(upper, probePrefix):
			if _, err := io.WriteString(w, probeAck); err != nil {
				return "", scheme, err
			}
		case strings.HasPrefix(upper, schemePrefix):
			if sc, ok := colorize.ParseScheme(line[len(schemePrefix):]); ok {
				scheme = sc
			}
		default:
			return line, scheme, nil
		}
	}
	return "", scheme, errors.New("preface exceeded line budget")
}

// readLine reads one trimmed line, enforcing the 4 KiB cap via the
// reader's own buffer.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return "", errLineTooLong
	}
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimSpace(string(line)), nil
}

// toCRLF normalizes a handler body to CRLF line endings with a final
// terminator.
func toCRLF(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return strings.ReplaceAll(body, "\n", "\r\n")
}

// teardown half-closes the write side so the client sees a clean EOF,
// then drains whatever it still has in flight.
func teardown(conn net.Conn) {
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.Copy(io.Discard, conn)
}
