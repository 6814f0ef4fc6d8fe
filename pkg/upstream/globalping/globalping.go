// Package globalping submits remote network measurements to the Globalping
// API (https://globalping.io) and waits for the probe results. The API is
// public; a token is optional and only raises rate limits.
package globalping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

var apiBase = "https://api.globalping.io/v1/measurements"

// pollInterval is the wait between result polls; measurements typically
// finish within a few seconds. Var so tests can shorten it.
var pollInterval = time.Second

// maxPollAttempts caps how long a measurement is awaited.
const maxPollAttempts = 60

// Request is one measurement submission.
type Request struct {
	Type      string     `json:"type"`
	Target    string     `json:"target"`
	Limit     int        `json:"limit,omitempty"`
	Options   *Options   `json:"measurementOptions,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}

// Options narrows how the probe runs the measurement.
type Options struct {
	Protocol string `json:"protocol,omitempty"`
}

// Location filters which probes run the measurement. Magic accepts the
// free-form location grammar (country codes, cities, networks).
type Location struct {
	Magic string `json:"magic,omitempty"`
}

// Measurement is the completed result set for one submission.
type Measurement struct {
	Status  string        `json:"status"`
	Results []ProbeResult `json:"results"`
}

// ProbeResult pairs a probe's location with its test output.
type ProbeResult struct {
	Probe struct {
		City    string `json:"city"`
		Country string `json:"country"`
		ASN     int    `json:"asn"`
		Network string `json:"network"`
	} `json:"probe"`
	Result struct {
		Status          string `json:"status"`
		ResolvedAddress string `json:"resolvedAddress"`
		RawOutput       string `json:"rawOutput"`
	} `json:"result"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Client talks to the Globalping measurement API.
type Client struct {
	http  *fetch.Client
	token string
}

// NewClient wraps the shared HTTP client; token may be empty.
func NewClient(http *fetch.Client, token string) *Client {
	return &Client{http: http, token: token}
}

func (c *Client) opts() []fetch.Option {
	if c.token == "" {
		return nil
	}
	return []fetch.Option{fetch.WithBearer(c.token)}
}

// Traceroute measures an ICMP traceroute to target from one probe, by
// default the closest one; location narrows probe selection with the magic
// grammar. Returns the rendered probe output.
func (c *Client) Traceroute(ctx context.Context, target, location string) (string, error) {
	req := Request{
		Type:    "traceroute",
		Target:  target,
		Limit:   1,
		Options: &Options{Protocol: "ICMP"},
	}
	if location != "" {
		req.Locations = []Location{{Magic: location}}
	}

	m, err := c.measure(ctx, req)
	if err != nil {
		return "", err
	}
	return renderTraceroute(m, target), nil
}

// measure submits a request and polls until the measurement finishes.
func (c *Client) measure(ctx context.Context, req Request) (*Measurement, error) {
	logger := log.WithComponent("globalping")

	var submitted submitResponse
	if err := c.http.PostJSON(ctx, apiBase, req, &submitted, c.opts()...); err != nil {
		return nil, err
	}
	logger.Debug().Str("id", submitted.ID).Str("target", req.Target).Msg("measurement submitted")

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("measurement %s: %w", submitted.ID, errkind.ErrTimeout)
		case <-time.After(pollInterval):
		}

		var m Measurement
		if err := c.http.GetJSON(ctx, apiBase+"/"+submitted.ID, &m, c.opts()...); err != nil {
			return nil, err
		}
		switch m.Status {
		case "finished":
			return &m, nil
		case "failed":
			return nil, fmt.Errorf("measurement %s failed: %w", submitted.ID, errkind.ErrUpstreamUnavailable)
		}
	}
	return nil, fmt.Errorf("measurement %s: %w", submitted.ID, errkind.ErrTimeout)
}

// renderTraceroute formats each probe's raw traceroute output under a
// header naming the probe's vantage point.
func renderTraceroute(m *Measurement, target string) string {
	if len(m.Results) == 0 {
		return fmt.Sprintf("No results received for traceroute to %s\n", target)
	}

	var b strings.Builder
	for _, pr := range m.Results {
		addr := pr.Result.ResolvedAddress
		if addr == "" {
			addr = target
		}
		fmt.Fprintf(&b, "traceroute to %s, ICMP mode\n", addr)
		city := pr.Probe.City
		if city == "" {
			city = "Unknown"
		}
		fmt.Fprintf(&b, "Probe: %s (AS%d) - %s, %s\n\n", pr.Probe.Network, pr.Probe.ASN, city, pr.Probe.Country)

		out := pr.Result.RawOutput
		b.WriteString(out)
		if out != "" && !strings.HasSuffix(out, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
