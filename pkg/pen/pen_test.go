package pen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/storage"
)

const sampleRegistry = `PRIVATE ENTERPRISE NUMBERS

(last updated 2026-08-01)

SMI Network Management Private Enterprise Codes:

Decimal
| Organization
| | Contact
| | | Email

0
  Reserved
    Internet Assigned Numbers Authority
      iana&iana.org
9
  ciscoSystems
    Greg Satz
      satz&cisco.com
32473
  Example Enterprise
    Jane Doe
      jane&example.com

End of Document
`

func openStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestParse(t *testing.T) {
	entries := Parse(sampleRegistry)
	require.Len(t, entries, 3)

	assert.Equal(t, uint32(0), entries[0].Number)
	assert.Equal(t, "1.3.6.1.4.1.0", entries[0].OID)
	assert.Equal(t, "Reserved", entries[0].Organization)

	assert.Equal(t, uint32(9), entries[1].Number)
	assert.Equal(t, "ciscoSystems", entries[1].Organization)
	assert.Equal(t, "Greg Satz", entries[1].Contact)
	assert.Equal(t, "satz@cisco.com", entries[1].Email)

	assert.Equal(t, uint32(32473), entries[2].Number)
	assert.Equal(t, "jane@example.com", entries[2].Email)
}

func TestParseFlushesEntryBeforeProse(t *testing.T) {
	entries := Parse("9\n  ciscoSystems\n    Greg Satz\n      satz&cisco.com\nSee also the SMI registry.\n32473\n  Example Enterprise\n")
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(9), entries[0].Number)
	assert.Equal(t, "satz@cisco.com", entries[0].Email)
	assert.Equal(t, uint32(32473), entries[1].Number)
}

func TestStoreAllAndLookup(t *testing.T) {
	store := openStore(t)

	require.NoError(t, StoreAll(context.Background(), store, Parse(sampleRegistry)))

	entry, found, err := Lookup(store, 9)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ciscoSystems", entry.Organization)
	assert.WithinDuration(t, time.Now(), time.Unix(entry.CachedAt, 0), time.Minute)

	_, found, err = Lookup(store, 424242)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupEvictsExpired(t *testing.T) {
	store := openStore(t)

	stale := Entry{
		Number:       9,
		OID:          "1.3.6.1.4.1.9",
		Organization: "ciscoSystems",
		CachedAt:     time.Now().Add(-EntryTTL - time.Hour).Unix(),
	}
	require.NoError(t, store.PutJSON(EntryKey(9), stale))

	_, found, err := Lookup(store, 9)
	require.NoError(t, err)
	assert.False(t, found)

	// evicted, not just hidden
	_, present, err := store.Get(EntryKey(9))
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSearch(t *testing.T) {
	store := openStore(t)
	require.NoError(t, StoreAll(context.Background(), store, Parse(sampleRegistry)))

	matches, overflow, err := Search(store, "CISCO", 20)
	require.NoError(t, err)
	assert.False(t, overflow)
	require.Len(t, matches, 1)
	assert.Equal(t, uint32(9), matches[0].Number)

	matches, overflow, err = Search(store, "a", 2)
	require.NoError(t, err)
	assert.True(t, overflow)
	assert.Len(t, matches, 2)
}
