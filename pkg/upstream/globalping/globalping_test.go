package globalping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

func TestRequestEncoding(t *testing.T) {
	req := Request{
		Type:      "traceroute",
		Target:    "1.1.1.1",
		Limit:     1,
		Options:   &Options{Protocol: "ICMP"},
		Locations: []Location{{Magic: "us"}},
	}
	encoded, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "traceroute",
		"target": "1.1.1.1",
		"limit": 1,
		"measurementOptions": {"protocol": "ICMP"},
		"locations": [{"magic": "us"}]
	}`, string(encoded))
}

func TestRequestEncodingOmitsEmptyLocations(t *testing.T) {
	encoded, err := json.Marshal(Request{Type: "traceroute", Target: "example.com", Limit: 1})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "locations")
	assert.NotContains(t, string(encoded), "measurementOptions")
}

func TestRenderTraceroute(t *testing.T) {
	var m Measurement
	require.NoError(t, json.Unmarshal([]byte(`{
		"status": "finished",
		"results": [{
			"probe": {"city": "Amsterdam", "country": "NL", "asn": 64512, "network": "Example Net"},
			"result": {"status": "finished", "resolvedAddress": "1.1.1.1", "rawOutput": "1  192.0.2.1  0.5 ms"}
		}]
	}`), &m))

	out := renderTraceroute(&m, "one.one.one.one")
	assert.Contains(t, out, "traceroute to 1.1.1.1, ICMP mode\n")
	assert.Contains(t, out, "Probe: Example Net (AS64512) - Amsterdam, NL\n")
	assert.Contains(t, out, "1  192.0.2.1  0.5 ms\n")
}

func TestRenderTracerouteEmpty(t *testing.T) {
	out := renderTraceroute(&Measurement{Status: "finished"}, "example.com")
	assert.Equal(t, "No results received for traceroute to example.com\n", out)
}

func TestMeasurePollsUntilFinished(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"id": "m1"}`))
		case http.MethodGet:
			polls++
			status := "in-progress"
			if polls >= 2 {
				status = "finished"
			}
			_, _ = w.Write([]byte(`{"status": "` + status + `", "results": []}`))
		}
	}))
	defer srv.Close()

	origBase, origInterval := apiBase, pollInterval
	apiBase, pollInterval = srv.URL, 10*time.Millisecond
	t.Cleanup(func() { apiBase, pollInterval = origBase, origInterval })

	c := NewClient(fetch.NewClient(5*time.Second), "test-token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := c.measure(ctx, Request{Type: "traceroute", Target: "1.1.1.1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "finished", m.Status)
	assert.Equal(t, 2, polls)
}
