package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/storage"
)

// SyncStats counts the outcome of one incremental sync pass.
type SyncStats struct {
	Total     int
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int
}

// Loader mirrors a registry directory tree into a store. It is the only
// writer to registry keys; handlers only read.
type Loader struct {
	store storage.Store
}

// NewLoader creates a loader writing into store.
func NewLoader(store storage.Store) *Loader {
	return &Loader{store: store}
}

// Sync walks <registryPath>/data/<category>/<entry> and incrementally
// mirrors it into the store: new files are added, files whose size or mtime
// changed are rewritten, everything else is skipped. Keys present in the
// store but no longer on disk are swept afterwards, so at return the set of
// non-meta keys equals the set of files on disk.
//
// Per-file read errors are logged and counted but do not abort the walk.
func (l *Loader) Sync(registryPath string) (SyncStats, error) {
	logger := log.WithComponent("registry")

	var stats SyncStats
	dataPath := filepath.Join(registryPath, "data")
	categories, err := os.ReadDir(dataPath)
	if err != nil {
		metrics.RegistrySyncTotal.WithLabelValues("error").Inc()
		return stats, fmt.Errorf("registry data directory not found: %w", err)
	}

	seen := make(map[string]struct{})

	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		categoryPath := filepath.Join(dataPath, category.Name())
		entries, err := os.ReadDir(categoryPath)
		if err != nil {
			logger.Warn().Err(err).Str("category", category.Name()).Msg("failed to read category directory")
			stats.Failed++
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			stats.Total++
			key := category.Name() + "/" + entry.Name()
			seen[key] = struct{}{}

			if err := l.syncFile(filepath.Join(categoryPath, entry.Name()), key, &stats); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("failed to sync file")
				stats.Failed++
			}
		}
	}

	removed, err := l.sweep(seen)
	stats.Removed = removed
	if err != nil {
		metrics.RegistrySyncTotal.WithLabelValues("error").Inc()
		return stats, err
	}

	metrics.RegistrySyncTotal.WithLabelValues("ok").Inc()
	if dbStats, err := l.store.Stats(); err == nil {
		metrics.StoreKeysTotal.WithLabelValues("registry").Set(float64(dbStats.Keys))
		metrics.StoreSizeBytes.WithLabelValues("registry").Set(float64(dbStats.Size))
	}

	logger.Info().
		Int("total", stats.Total).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("unchanged", stats.Unchanged).
		Int("removed", stats.Removed).
		Int("failed", stats.Failed).
		Msg("registry sync completed")
	return stats, nil
}

// syncFile applies the per-file decision table: absent meta → add, changed
// meta → rewrite, identical meta → skip.
func (l *Loader) syncFile(path, key string, stats *SyncStats) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	current := storage.FileMeta{
		Size:     uint64(info.Size()),
		Modified: info.ModTime().Unix(),
	}

	stored, found, err := l.store.GetFileMeta(key)
	if err != nil {
		// Corrupt sidecar: treat as new and rewrite
		log.WithComponent("registry").Warn().Err(err).Str("key", key).Msg("unreadable meta, rewriting")
		found = false
	}
	if found && stored.Equal(current) {
		stats.Unchanged++
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := l.store.PutWithMeta(key, content, current); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if found {
		stats.Updated++
	} else {
		stats.Added++
	}
	return nil
}

// sweep deletes stored keys that no longer exist on disk, with their
// metadata sidecars.
func (l *Loader) sweep(seen map[string]struct{}) (int, error) {
	var stale []string
	err := l.store.IteratePrefix("", func(key string, _ []byte) bool {
		if _, ok := seen[key]; !ok {
			stale = append(stale, key)
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range stale {
		if err := l.store.DeleteWithMeta(key); err != nil {
			log.WithComponent("registry").Warn().Err(err).Str("key", key).Msg("failed to delete stale key")
			continue
		}
		removed++
	}
	return removed, nil
}
