package whoisnet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/domainr/whois"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// DefaultTimeout applies to both connect and read unless overridden.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes truncates runaway WHOIS responses.
const maxResponseBytes = 1 << 20

// Client performs one-shot WHOIS-over-TCP exchanges. No retries happen at
// this layer; referral following is the caller's concern.
type Client struct {
	wc          *whois.Client
	readTimeout time.Duration
}

// NewClient creates a client. Zero timeouts default to DefaultTimeout each.
func NewClient(connectTimeout, readTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultTimeout
	}
	return &Client{
		wc:          whois.NewClient(connectTimeout),
		readTimeout: readTimeout,
	}
}

// Query opens a TCP connection to (server, 43), writes "query\r\n" and
// reads until EOF or the read deadline. The raw response text is returned.
func (c *Client) Query(ctx context.Context, server, query string) (string, error) {
	logger := log.WithUpstream(server)
	logger.Debug().Str("query", query).Msg("whois query")

	req := &whois.Request{
		Query: query,
		Host:  server,
	}
	if err := req.Prepare(); err != nil {
		return "", fmt.Errorf("preparing whois request for %s: %w", server, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	resp, err := c.wc.FetchContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("whois %s: %w", server, errkind.ErrTimeout)
		}
		return "", fmt.Errorf("whois %s: %v: %w", server, err, errkind.ErrUpstreamUnavailable)
	}

	body := resp.Body
	if len(body) > maxResponseBytes {
		logger.Debug().Int("bytes", len(body)).Msg("truncating oversized whois response")
		body = body[:maxResponseBytes]
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response from %s: %w", server, errkind.ErrUpstreamUnavailable)
	}

	logger.Debug().Int("bytes", len(body)).Msg("whois response received")
	return string(body), nil
}

// ExtractReferral scans a WHOIS body for a "whois:" or "refer:" line and
// returns the referred server, if any.
func ExtractReferral(body string) (string, bool) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		for _, field := range []string{"whois:", "refer:"} {
			if strings.HasPrefix(line, field) {
				server := strings.TrimSpace(strings.TrimPrefix(line, field))
				if server != "" {
					return server, true
				}
			}
		}
	}
	return "", false
}

// QueryWithReferral queries server and follows at most one referral found
// in the response, concatenating both bodies. Deeper chains are truncated
// with a note.
func (c *Client) QueryWithReferral(ctx context.Context, server, query string) (string, error) {
	body, err := c.Query(ctx, server, query)
	if err != nil {
		return "", err
	}

	referred, ok := ExtractReferral(body)
	if !ok || strings.EqualFold(referred, server) {
		return body, nil
	}

	followed, err := c.Query(ctx, referred, query)
	if err != nil {
		log.WithUpstream(referred).Debug().Err(err).Msg("referral query failed, keeping first response")
		return body, nil
	}

	var out strings.Builder
	out.WriteString(body)
	out.WriteString("\n% Information related to referral server ")
	out.WriteString(referred)
	out.WriteString("\n\n")
	out.WriteString(followed)
	if _, deeper := ExtractReferral(followed); deeper {
		out.WriteString("\n% Further referrals not followed\n")
	}
	return out.String(), nil
}
