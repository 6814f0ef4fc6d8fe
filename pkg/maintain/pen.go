package maintain

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/pen"
	"github.com/akaere/whoisd/pkg/storage"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

const (
	penTimestampKey = "pen/last_update"
	penTTL          = 24 * time.Hour
)

// Pen refreshes the Private Enterprise Numbers mirror once a day.
type Pen struct {
	store     storage.Store
	client    *fetch.Client
	sourceURL string
	inFlight  atomic.Bool
}

// NewPen builds a refresher over the given dataset store.
func NewPen(store storage.Store, client *fetch.Client) *Pen {
	return &Pen{store: store, client: client, sourceURL: pen.SourceURL}
}

// NeedsRefresh reports whether the last successful refresh is older than a
// day, or never happened.
func (p *Pen) NeedsRefresh() bool {
	raw, found, err := p.store.Get(penTimestampKey)
	if err != nil || !found {
		return true
	}
	last, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return true
	}
	return time.Since(time.Unix(last, 0)) > penTTL
}

// Refresh downloads the registry file, stores the raw copy and re-parses it
// into per-entry cache records. A refresh already in flight is skipped.
func (p *Pen) Refresh(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.WithComponent("pen").Debug().Msg("refresh already in progress, skipping")
		return nil
	}
	defer p.inFlight.Store(false)

	timer := metrics.NewTimer()
	body, err := p.client.GetBytes(ctx, p.sourceURL)
	if err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("pen", "error").Inc()
		return err
	}
	if err := p.store.Put(pen.SourceKey, body); err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("pen", "error").Inc()
		return err
	}

	entries := pen.Parse(string(body))
	if err := pen.StoreAll(ctx, p.store, entries); err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("pen", "error").Inc()
		return err
	}

	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := p.store.Put(penTimestampKey, []byte(now)); err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("pen", "error").Inc()
		return err
	}

	metrics.MaintenanceRunsTotal.WithLabelValues("pen", "ok").Inc()
	log.WithComponent("pen").Info().
		Int("entries", len(entries)).
		Dur("took", timer.Duration()).
		Msg("mirror refreshed")
	return nil
}
