package maintain

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/storage"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

// ManrsAPIURL lists every MANRS participant ASN.
const ManrsAPIURL = "https://api.manrs.org/asns"

const (
	manrsKey          = "manrs/asns"
	manrsTimestampKey = "manrs/last_updated"
	manrsTTL          = 14 * 24 * time.Hour
)

// Membership describes an ASN's MANRS standing at the time the mirror was
// last refreshed.
type Membership struct {
	ASN          uint32
	Member       bool
	TotalMembers int
	LastUpdated  int64
}

// Manrs serves MANRS membership checks from a locally mirrored participant
// list, refreshing it when the 14 day freshness window lapses.
type Manrs struct {
	store  storage.Store
	client *fetch.Client
	apiURL string
	group  singleflight.Group
}

// NewManrs builds a checker over the given dataset store.
func NewManrs(store storage.Store, client *fetch.Client) *Manrs {
	return &Manrs{store: store, client: client, apiURL: ManrsAPIURL}
}

type manrsResponse struct {
	ASNs []uint32 `json:"asns"`
}

// Check reports the ASN's membership. An expired mirror triggers a refresh;
// when the refresh fails the stale mirror keeps answering, and only a
// missing mirror yields ok=false.
func (m *Manrs) Check(ctx context.Context, asn uint32) (Membership, bool, error) {
	if m.expired() {
		if err := m.Refresh(ctx); err != nil {
			log.WithComponent("manrs").Warn().Err(err).Msg("refresh failed, serving stale mirror")
		}
	}

	var asns []uint32
	found, err := m.store.GetJSON(manrsKey, &asns)
	if err != nil || !found {
		return Membership{}, false, err
	}

	member := false
	for _, candidate := range asns {
		if candidate == asn {
			member = true
			break
		}
	}
	return Membership{
		ASN:          asn,
		Member:       member,
		TotalMembers: len(asns),
		LastUpdated:  m.lastUpdated(),
	}, true, nil
}

// Refresh downloads the participant list and replaces the mirror. Concurrent
// calls collapse into one download.
func (m *Manrs) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		timer := metrics.NewTimer()
		var payload manrsResponse
		if err := m.client.GetJSON(ctx, m.apiURL, &payload); err != nil {
			metrics.MaintenanceRunsTotal.WithLabelValues("manrs", "error").Inc()
			return nil, err
		}
		if err := m.store.PutJSON(manrsKey, payload.ASNs); err != nil {
			metrics.MaintenanceRunsTotal.WithLabelValues("manrs", "error").Inc()
			return nil, err
		}
		now := strconv.FormatInt(time.Now().Unix(), 10)
		if err := m.store.Put(manrsTimestampKey, []byte(now)); err != nil {
			metrics.MaintenanceRunsTotal.WithLabelValues("manrs", "error").Inc()
			return nil, err
		}
		metrics.MaintenanceRunsTotal.WithLabelValues("manrs", "ok").Inc()
		log.WithComponent("manrs").Info().
			Int("asns", len(payload.ASNs)).
			Dur("took", timer.Duration()).
			Msg("mirror refreshed")
		return nil, nil
	})
	return err
}

// NeedsRefresh reports whether the mirror is past its freshness window.
func (m *Manrs) NeedsRefresh() bool {
	return m.expired()
}

func (m *Manrs) expired() bool {
	last := m.lastUpdated()
	if last == 0 {
		return true
	}
	return time.Since(time.Unix(last, 0)) > manrsTTL
}

func (m *Manrs) lastUpdated() int64 {
	raw, found, err := m.store.Get(manrsTimestampKey)
	if err != nil || !found {
		return 0
	}
	last, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return last
}
