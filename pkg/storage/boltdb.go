package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// maxStoreBytes caps the backing file at roughly 1 GiB. When the budget is
// exhausted writes fail with errkind.ErrStoreFull; reads keep working.
const maxStoreBytes = 1 << 30

var bucketKV = []byte("kv")

// BoltStore implements Store over a memory-mapped bbolt database. bbolt gives
// MVCC-style transactional reads: multiple readers see consistent snapshots
// while a single writer commits per transaction.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// Open opens (or creates) a store directory. The database file lives inside
// the directory, one store per dataset (registry mirror, MANRS, PEN).
func Open(dir string) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "data.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKV)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.WithComponent("storage").Info().Str("path", dbPath).Msg("store opened")
	return &BoltStore{db: db, path: dbPath}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Put overwrites the value under key.
func (s *BoltStore) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Size() >= maxStoreBytes {
			return fmt.Errorf("store at %s exceeds %d bytes: %w", s.path, maxStoreBytes, errkind.ErrStoreFull)
		}
		return tx.Bucket(bucketKV).Put([]byte(key), value)
	})
}

// Get returns the value under key and whether it exists.
func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketKV).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		// bbolt values are only valid inside the transaction
		value = append([]byte(nil), data...)
		return nil
	})
	return value, found, err
}

// Delete removes a key. Deleting an absent key succeeds.
func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).Delete([]byte(key))
	})
}

// IteratePrefix visits keys with the given prefix in lexicographic order.
// Metadata keys are never yielded. The callback returns false to stop.
func (s *BoltStore) IteratePrefix(prefix string, fn func(key string, value []byte) bool) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketKV).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil; k, v = c.Next() {
			key := string(k)
			if prefix != "" && !strings.HasPrefix(key, prefix) {
				break
			}
			if strings.HasPrefix(key, MetaPrefix) {
				continue
			}
			if !fn(key, append([]byte(nil), v...)) {
				break
			}
		}
		return nil
	})
}

// PutJSON stores the JSON encoding of v under key.
func (s *BoltStore) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetJSON decodes the value under key into v. Absence is (false, nil);
// a decode failure is an error distinct from absence.
func (s *BoltStore) GetJSON(key string, v any) (bool, error) {
	data, found, err := s.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// PutFileMeta stores the metadata sidecar for key.
func (s *BoltStore) PutFileMeta(key string, meta FileMeta) error {
	return s.PutJSON(MetaPrefix+key, meta)
}

// GetFileMeta fetches the metadata sidecar for key.
func (s *BoltStore) GetFileMeta(key string) (FileMeta, bool, error) {
	var meta FileMeta
	found, err := s.GetJSON(MetaPrefix+key, &meta)
	return meta, found, err
}

// DeleteWithMeta removes a content key and its metadata sidecar in one
// transaction, so readers never observe content without meta or vice versa.
func (s *BoltStore) DeleteWithMeta(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKV)
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		return b.Delete([]byte(MetaPrefix + key))
	})
}

// PutWithMeta writes a content key and its metadata sidecar in one
// transaction.
func (s *BoltStore) PutWithMeta(key string, value []byte, meta FileMeta) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode meta for %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Size() >= maxStoreBytes {
			return fmt.Errorf("store at %s exceeds %d bytes: %w", s.path, maxStoreBytes, errkind.ErrStoreFull)
		}
		b := tx.Bucket(bucketKV)
		if err := b.Put([]byte(key), value); err != nil {
			return err
		}
		return b.Put([]byte(MetaPrefix+key), metaData)
	})
}

// Stats returns diagnostic counters.
func (s *BoltStore) Stats() (Stats, error) {
	var stats Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		stats.Size = tx.Size()
		return tx.Bucket(bucketKV).ForEach(func(k, _ []byte) error {
			if strings.HasPrefix(string(k), MetaPrefix) {
				stats.MetaKeys++
			} else {
				stats.Keys++
			}
			return nil
		})
	})
	return stats, err
}

// Clear removes all keys including metadata.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketKV); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketKV)
		return err
	})
}
