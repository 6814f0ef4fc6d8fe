package storage

// MetaPrefix is the reserved key prefix for per-key file metadata.
// Iteration never yields keys under this prefix.
const MetaPrefix = "__meta__"

// FileMeta is the sidecar metadata tracked per registry file for change
// detection. A meta key exists iff its content key exists.
type FileMeta struct {
	Size     uint64 `json:"size"`
	Modified int64  `json:"modified"`
}

// Equal reports whether two metadata snapshots describe the same file state.
func (m FileMeta) Equal(other FileMeta) bool {
	return m.Size == other.Size && m.Modified == other.Modified
}

// Stats holds diagnostic counters for a store.
type Stats struct {
	Keys     int
	MetaKeys int
	Size     int64
}

// Store is the key→bytes contract every component above the storage layer
// programs against. Implemented by BoltStore.
type Store interface {
	// Put overwrites the value under key.
	Put(key string, value []byte) error

	// Get returns the value and whether the key exists. An existing key
	// with an empty value returns ([]byte{}, true, nil).
	Get(key string) ([]byte, bool, error)

	// Delete removes a key; deleting a missing key is success.
	Delete(key string) error

	// IteratePrefix visits keys with the given prefix in lexicographic
	// order, skipping metadata keys. The callback returns false to stop.
	IteratePrefix(prefix string, fn func(key string, value []byte) bool) error

	// PutJSON stores the JSON encoding of v under key.
	PutJSON(key string, v any) error

	// GetJSON decodes the value under key into v. Returns (false, nil)
	// when the key is absent; a decode failure is an error.
	GetJSON(key string, v any) (bool, error)

	// PutFileMeta stores the metadata sidecar for key.
	PutFileMeta(key string, meta FileMeta) error

	// GetFileMeta fetches the metadata sidecar for key.
	GetFileMeta(key string) (FileMeta, bool, error)

	// PutWithMeta writes a content key and its metadata sidecar atomically.
	PutWithMeta(key string, value []byte, meta FileMeta) error

	// DeleteWithMeta removes a content key and its metadata sidecar.
	DeleteWithMeta(key string) error

	// Stats returns diagnostic counters.
	Stats() (Stats, error)

	// Clear removes all keys including metadata.
	Clear() error

	// Close releases the underlying database.
	Close() error
}
