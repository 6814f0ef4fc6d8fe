package whoisnet

import (
	"context"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/storage"
)

// referralTTL bounds how long an IANA routing decision is reused.
const referralTTL = 7 * 24 * time.Hour

// cachedReferral is one IANA routing decision, cached per query token
// (TLD, "AS<n>" block representative, or address literal).
type cachedReferral struct {
	Server   string `json:"server"`
	CachedAt int64  `json:"cached_at"`
}

// IanaCache resolves "which WHOIS server is authoritative for this query"
// through whois.iana.org, with answers cached in local storage.
type IanaCache struct {
	store  storage.Store
	client *Client
}

// NewIanaCache creates a referral cache over store, issuing lookups
// through client on cache misses.
func NewIanaCache(store storage.Store, client *Client) *IanaCache {
	return &IanaCache{store: store, client: client}
}

// token reduces a query to its cacheable routing token: domains cache per
// TLD, everything else per full query.
func token(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if dot := strings.LastIndex(q, "."); dot >= 0 && !strings.ContainsAny(q, ":/") {
		if tld := q[dot+1:]; tld != "" && !isNumeric(tld) {
			return tld
		}
	}
	return q
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// ServerFor returns the authoritative WHOIS server for the query, asking
// IANA on a cache miss. Falls back to the default server when IANA has no
// referral.
func (c *IanaCache) ServerFor(ctx context.Context, q string) string {
	logger := log.WithComponent("iana-cache")
	key := "iana/" + token(q)

	var cached cachedReferral
	found, err := c.store.GetJSON(key, &cached)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("unreadable referral cache entry")
	}
	if found && time.Since(time.Unix(cached.CachedAt, 0)) < referralTTL {
		return cached.Server
	}

	body, err := c.client.Query(ctx, IANAServer, q)
	if err != nil {
		logger.Debug().Err(err).Str("query", q).Msg("IANA lookup failed")
		if found {
			// stale beats nothing
			return cached.Server
		}
		return DefaultServer
	}

	server, ok := ExtractReferral(body)
	if !ok {
		return DefaultServer
	}

	entry := cachedReferral{Server: server, CachedAt: time.Now().Unix()}
	if err := c.store.PutJSON(key, entry); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to cache referral")
	}
	return server
}
