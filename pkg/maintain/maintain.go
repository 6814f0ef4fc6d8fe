package maintain

import (
	"context"
	"time"

	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
)

// checkInterval is how often each dataset's freshness is re-examined. The
// datasets themselves decide whether a refresh is due.
const checkInterval = time.Hour

// dataset is one periodically refreshed mirror.
type dataset interface {
	NeedsRefresh() bool
	Refresh(ctx context.Context) error
}

// Maintainer drives the background refresh loops for the MANRS and PEN
// mirrors.
type Maintainer struct {
	Manrs *Manrs
	Pen   *Pen
}

// New wires a maintainer over the two refreshers.
func New(manrs *Manrs, pen *Pen) *Maintainer {
	return &Maintainer{Manrs: manrs, Pen: pen}
}

// Run checks both datasets immediately, then hourly, until the context is
// cancelled. Refresh failures are logged and retried on the next tick.
func (m *Maintainer) Run(ctx context.Context) {
	logger := log.WithComponent("maintain")
	logger.Info().Dur("interval", checkInterval).Msg("maintenance loop started")

	m.checkAll(ctx)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("maintenance loop stopped")
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

func (m *Maintainer) checkAll(ctx context.Context) {
	m.check(ctx, "manrs", m.Manrs)
	m.check(ctx, "pen", m.Pen)

	// MANRS, PEN and the IANA referral cache share one store.
	if stats, err := m.Manrs.store.Stats(); err == nil {
		metrics.StoreKeysTotal.WithLabelValues("datasets").Set(float64(stats.Keys))
		metrics.StoreSizeBytes.WithLabelValues("datasets").Set(float64(stats.Size))
	}
}

func (m *Maintainer) check(ctx context.Context, name string, d dataset) {
	if !d.NeedsRefresh() {
		log.WithComponent("maintain").Debug().Str("dataset", name).Msg("mirror fresh")
		return
	}
	if err := d.Refresh(ctx); err != nil {
		log.WithComponent("maintain").Warn().Err(err).Str("dataset", name).Msg("refresh failed")
	}
}
