package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/storage"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func writeRegistryFile(t *testing.T, root, category, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, "data", category)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func storedKeys(t *testing.T, s storage.Store) []string {
	t.Helper()
	var keys []string
	require.NoError(t, s.IteratePrefix("", func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	}))
	return keys
}

func TestSyncAddsNewFiles(t *testing.T) {
	s, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	root := t.TempDir()
	writeRegistryFile(t, root, "aut-num", "AS4242420000", "aut-num: AS4242420000\nas-name: EXAMPLE\n")
	writeRegistryFile(t, root, "mntner", "EXAMPLE-MNT", "mntner: EXAMPLE-MNT\n")

	stats, err := NewLoader(s).Sync(root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Zero(t, stats.Updated)
	assert.Zero(t, stats.Removed)

	value, found, err := s.Get("aut-num/AS4242420000")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(value), "as-name: EXAMPLE")

	// every content key has a meta sidecar
	for _, key := range storedKeys(t, s) {
		_, found, err := s.GetFileMeta(key)
		require.NoError(t, err)
		assert.True(t, found, "missing meta for %s", key)
	}
}

func TestSyncSkipsUnchangedAndRewritesChanged(t *testing.T) {
	s, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	root := t.TempDir()
	path := writeRegistryFile(t, root, "aut-num", "AS1", "aut-num: AS1\n")

	loader := NewLoader(s)
	_, err = loader.Sync(root)
	require.NoError(t, err)

	stats, err := loader.Sync(root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Zero(t, stats.Added)
	assert.Zero(t, stats.Updated)

	// Change content and push mtime forward so the sidecar goes stale.
	require.NoError(t, os.WriteFile(path, []byte("aut-num: AS1\nas-name: CHANGED\n"), 0o644))
	future := time.Now().Add(5 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err = loader.Sync(root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	value, _, err := s.Get("aut-num/AS1")
	require.NoError(t, err)
	assert.Contains(t, string(value), "CHANGED")
}

func TestSyncSweepsDeletedFiles(t *testing.T) {
	s, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	root := t.TempDir()
	keep := writeRegistryFile(t, root, "inetnum", "10.0.0.0_8", "inetnum: 10.0.0.0/8\n")
	gone := writeRegistryFile(t, root, "inetnum", "172.20.0.0_14", "inetnum: 172.20.0.0/14\n")
	_ = keep

	loader := NewLoader(s)
	_, err = loader.Sync(root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone))

	stats, err := loader.Sync(root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, []string{"inetnum/10.0.0.0_8"}, storedKeys(t, s))

	// sweep removes the sidecar with the content
	_, found, err := s.GetFileMeta("inetnum/172.20.0.0_14")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSyncMissingDataDirFails(t *testing.T) {
	s, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = NewLoader(s).Sync(t.TempDir())
	assert.Error(t, err)
}
