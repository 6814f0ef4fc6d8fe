package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Get("aut-num/AS4242420000")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put("aut-num/AS4242420000", []byte("aut-num: AS4242420000\n")))

	value, found, err := s.Get("aut-num/AS4242420000")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "aut-num: AS4242420000\n", string(value))

	require.NoError(t, s.Delete("aut-num/AS4242420000"))
	_, found, err = s.Get("aut-num/AS4242420000")
	require.NoError(t, err)
	assert.False(t, found)

	// deleting a missing key is success
	require.NoError(t, s.Delete("aut-num/AS4242420000"))
}

func TestEmptyValueDistinctFromAbsent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("inetnum/empty", []byte{}))
	value, found, err := s.Get("inetnum/empty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, value)
}

func TestIteratePrefixSkipsMetaKeys(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutWithMeta("aut-num/AS1", []byte("a"), FileMeta{Size: 1, Modified: 1}))
	require.NoError(t, s.PutWithMeta("aut-num/AS2", []byte("b"), FileMeta{Size: 1, Modified: 2}))
	require.NoError(t, s.Put("inetnum/10.0.0.0_8", []byte("c")))

	var keys []string
	err := s.IteratePrefix("", func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aut-num/AS1", "aut-num/AS2", "inetnum/10.0.0.0_8"}, keys)
}

func TestIteratePrefixOrderAndStop(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("domain/a.dn42", []byte("1")))
	require.NoError(t, s.Put("domain/b.dn42", []byte("2")))
	require.NoError(t, s.Put("domain/c.dn42", []byte("3")))
	require.NoError(t, s.Put("mntner/X-MNT", []byte("4")))

	var keys []string
	err := s.IteratePrefix("domain/", func(key string, _ []byte) bool {
		keys = append(keys, key)
		return len(keys) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"domain/a.dn42", "domain/b.dn42"}, keys)
}

func TestJSONRoundTrip(t *testing.T) {
	type penEntry struct {
		Number       uint32 `json:"number"`
		OID          string `json:"oid"`
		Organization string `json:"organization"`
		Contact      string `json:"contact"`
		Email        string `json:"email"`
		CachedAt     int64  `json:"cached_at"`
	}

	s := openTestStore(t)

	in := penEntry{
		Number:       9,
		OID:          "1.3.6.1.4.1.9",
		Organization: "ACME Networks",
		Contact:      "Jo Smith",
		Email:        "noc@example.net",
		CachedAt:     1700000000,
	}
	require.NoError(t, s.PutJSON("pen/9", in))

	var out penEntry
	found, err := s.GetJSON("pen/9", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetJSONDecodeFailureIsError(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("pen/bad", []byte("not json")))

	var out map[string]any
	found, err := s.GetJSON("pen/bad", &out)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestFileMetaSidecar(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.GetFileMeta("aut-num/AS1")
	require.NoError(t, err)
	assert.False(t, found)

	meta := FileMeta{Size: 42, Modified: 1700000000}
	require.NoError(t, s.PutWithMeta("aut-num/AS1", []byte("aut-num: AS1\n"), meta))

	got, found, err := s.GetFileMeta("aut-num/AS1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Equal(meta))

	require.NoError(t, s.DeleteWithMeta("aut-num/AS1"))
	_, found, err = s.GetFileMeta("aut-num/AS1")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = s.Get("aut-num/AS1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClearRemovesEverything(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutWithMeta("aut-num/AS1", []byte("a"), FileMeta{Size: 1}))
	require.NoError(t, s.Put("manrs/members", []byte("{}")))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Keys)
	assert.Equal(t, 1, stats.MetaKeys)

	require.NoError(t, s.Clear())
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Keys)
	assert.Zero(t, stats.MetaKeys)
}
