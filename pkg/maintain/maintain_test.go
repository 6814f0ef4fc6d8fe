package maintain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/pen"
	"github.com/akaere/whoisd/pkg/storage"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

func openStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestManrsCheckRefreshesEmptyMirror(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"asns":[4242420000,4242420001,64512]}`))
	}))
	defer server.Close()

	m := NewManrs(openStore(t), fetch.NewClient(5*time.Second))
	m.apiURL = server.URL

	membership, ok, err := m.Check(context.Background(), 64512)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, membership.Member)
	assert.Equal(t, 3, membership.TotalMembers)
	assert.Equal(t, 1, calls)

	membership, ok, err = m.Check(context.Background(), 65000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, membership.Member)
	// fresh mirror, no second download
	assert.Equal(t, 1, calls)
}

func TestManrsServesStaleOnRefreshFailure(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.PutJSON(manrsKey, []uint32{64512}))
	staleTime := time.Now().Add(-manrsTTL - time.Hour).Unix()
	require.NoError(t, store.Put(manrsTimestampKey, []byte(strconv.FormatInt(staleTime, 10))))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewManrs(store, fetch.NewClient(5*time.Second))
	m.apiURL = server.URL

	membership, ok, err := m.Check(context.Background(), 64512)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, membership.Member)
	assert.Equal(t, staleTime, membership.LastUpdated)
}

func TestManrsUnknownWithoutMirror(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewManrs(openStore(t), fetch.NewClient(5*time.Second))
	m.apiURL = server.URL

	_, ok, err := m.Check(context.Background(), 64512)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPenRefresh(t *testing.T) {
	registry := "Decimal\n9\n  ciscoSystems\n    Greg Satz\n      satz&cisco.com\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(registry))
	}))
	defer server.Close()

	store := openStore(t)
	p := NewPen(store, fetch.NewClient(5*time.Second))
	p.sourceURL = server.URL

	assert.True(t, p.NeedsRefresh())
	require.NoError(t, p.Refresh(context.Background()))
	assert.False(t, p.NeedsRefresh())

	raw, found, err := store.Get(pen.SourceKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, registry, string(raw))

	entry, found, err := pen.Lookup(store, 9)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "satz@cisco.com", entry.Email)
}

func TestPenRefreshFailureKeepsStaleTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewPen(openStore(t), fetch.NewClient(5*time.Second))
	p.sourceURL = server.URL

	require.Error(t, p.Refresh(context.Background()))
	assert.True(t, p.NeedsRefresh())
}
