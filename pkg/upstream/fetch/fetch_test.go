package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func TestGetJSONProjection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country":"NL","city":"Amsterdam","unknown_field":42}`))
	}))
	defer srv.Close()

	var out struct {
		Country string `json:"country"`
		City    string `json:"city"`
	}
	err := NewClient(time.Second).GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "NL", out.Country)
	assert.Equal(t, "Amsterdam", out.City)
}

func TestNon2xxCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(time.Second).GetBytes(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errkind.ErrUpstreamUnavailable)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(time.Second).GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, errkind.ErrUpstreamMalformed)
}

func TestTimeoutKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	_, err := NewClient(20*time.Millisecond).GetBytes(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errkind.ErrTimeout)
}

func TestRequestOptions(t *testing.T) {
	var gotUA, gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(time.Second).GetJSON(context.Background(), srv.URL, &out,
		WithBrowserUA(), WithBearer("tok"), WithAPIKey("key"))
	require.NoError(t, err)
	assert.Equal(t, BrowserUserAgent, gotUA)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "key", gotKey)
}
