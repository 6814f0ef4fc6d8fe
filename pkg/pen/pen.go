package pen

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/storage"
)

// SourceURL is IANA's Private Enterprise Numbers registry file.
const SourceURL = "https://www.iana.org/assignments/enterprise-numbers.txt"

// SourceKey stores the raw downloaded file; entry keys hang off
// entryPrefix.
const (
	SourceKey   = "pen/source"
	entryPrefix = "pen/entry/"
)

// EntryTTL is the per-entry freshness window; expired entries are evicted
// on read.
const EntryTTL = 30 * 24 * time.Hour

// batchSize bounds how many entries are written per transaction burst so a
// full-registry parse does not starve query traffic.
const batchSize = 10000

// Entry is one Private Enterprise Number assignment.
type Entry struct {
	Number       uint32 `json:"number"`
	OID          string `json:"oid"`
	Organization string `json:"organization"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	CachedAt     int64  `json:"cached_at"`
}

// Parse decodes IANA's enterprise-numbers file: a bare decimal line starts
// an entry, followed by indented organization, contact and e-mail lines.
// The registry obfuscates "@" as "&" in e-mail addresses.
func Parse(text string) []Entry {
	var entries []Entry
	var current *Entry
	field := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" {
			continue
		}

		if !strings.HasPrefix(trimmed, " ") && !strings.HasPrefix(trimmed, "\t") {
			number, err := strconv.ParseUint(strings.TrimSpace(trimmed), 10, 32)
			if err != nil {
				// header or footer prose ("End of Document" follows the
				// last assignment)
				if current != nil {
					entries = append(entries, *current)
					current = nil
				}
				continue
			}
			if current != nil {
				entries = append(entries, *current)
			}
			current = &Entry{
				Number: uint32(number),
				OID:    fmt.Sprintf("1.3.6.1.4.1.%d", number),
			}
			field = 0
			continue
		}

		if current == nil {
			continue
		}
		value := strings.TrimSpace(trimmed)
		switch field {
		case 0:
			current.Organization = value
		case 1:
			current.Contact = value
		case 2:
			current.Email = strings.ReplaceAll(value, "&", "@")
		}
		field++
	}
	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}

// EntryKey is the storage key for a number.
func EntryKey(number uint32) string {
	return entryPrefix + strconv.FormatUint(uint64(number), 10)
}

// StoreAll writes parsed entries in batches, yielding between batches so
// long parses do not monopolize the storage writer.
func StoreAll(ctx context.Context, store storage.Store, entries []Entry) error {
	now := time.Now().Unix()
	for i, entry := range entries {
		entry.CachedAt = now
		if err := store.PutJSON(EntryKey(entry.Number), entry); err != nil {
			return fmt.Errorf("storing PEN %d: %w", entry.Number, err)
		}
		if (i+1)%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
			log.WithComponent("pen").Debug().Int("stored", i+1).Msg("batch checkpoint")
		}
	}
	return nil
}

// Lookup fetches one entry by number, evicting it when past its TTL.
func Lookup(store storage.Store, number uint32) (Entry, bool, error) {
	var entry Entry
	found, err := store.GetJSON(EntryKey(number), &entry)
	if err != nil || !found {
		return Entry{}, false, err
	}
	if time.Since(time.Unix(entry.CachedAt, 0)) > EntryTTL {
		if err := store.Delete(EntryKey(number)); err != nil {
			log.WithComponent("pen").Warn().Err(err).Uint32("number", number).Msg("failed to evict expired entry")
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Search scans organization, contact and e-mail fields for a
// case-insensitive substring, capped at limit results. The second return
// reports whether more matches exist beyond the cap.
func Search(store storage.Store, term string, limit int) ([]Entry, bool, error) {
	term = strings.ToLower(term)
	var matches []Entry
	overflow := false

	err := store.IteratePrefix(entryPrefix, func(_ string, value []byte) bool {
		var entry Entry
		if err := decodeEntry(value, &entry); err != nil {
			return true
		}
		if !entryMatches(entry, term) {
			return true
		}
		if len(matches) >= limit {
			overflow = true
			return false
		}
		matches = append(matches, entry)
		return true
	})
	return matches, overflow, err
}

func decodeEntry(value []byte, entry *Entry) error {
	return json.Unmarshal(value, entry)
}

func entryMatches(entry Entry, term string) bool {
	return strings.Contains(strings.ToLower(entry.Organization), term) ||
		strings.Contains(strings.ToLower(entry.Contact), term) ||
		strings.Contains(strings.ToLower(entry.Email), term)
}
