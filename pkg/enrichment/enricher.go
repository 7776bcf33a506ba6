// Package enrichment runs the full address resolution pipeline:
// collect source records, fuse them into an identity, score the
// result. Results are cached per address so repeat visitors do not
// trigger fresh lookups, with singleflight collapsing concurrent
// requests for the same address.
package enrichment

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/fusion"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/scoring"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/sources"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// collectorAPI lets tests substitute the network fan-out.
type collectorAPI interface {
	Collect(ctx context.Context, ip string) []*types.SourceRecord
}

var _ collectorAPI = (*sources.Collector)(nil)

// Enricher resolves visitor addresses to scored identities.
type Enricher struct {
	collector collectorAPI
	engine    *fusion.Engine
	scorer    *scoring.Scorer
	cache     *sfcache.TieredCache[string, types.Identity]
	log       *logger.Logger
}

func NewEnricher(collector collectorAPI, engine *fusion.Engine, scorer *scoring.Scorer, ttl time.Duration, log *logger.Logger) (*Enricher, error) {
	cache, err := sfcache.NewTiered[string, types.Identity](
		null.New[string, types.Identity](),
		sfcache.TTL(ttl),
	)
	if err != nil {
		return nil, err
	}
	return &Enricher{
		collector: collector,
		engine:    engine,
		scorer:    scorer,
		cache:     cache,
		log:       log,
	}, nil
}

// Enrich resolves an address to a scored identity. It never fails: an
// address no source can describe comes back as an unidentified visitor,
// and private or unparseable addresses short-circuit to the local
// identity without any external calls.
func (e *Enricher) Enrich(ctx context.Context, address string) types.Identity {
	if fusion.IsPrivateAddress(address) {
		return e.scorer.Score(e.engine.LocalIdentity())
	}

	// Lookups outlive the request: a client that disconnects mid-visit
	// must not abort in-flight adapter calls or cache a failed resolve.
	ctx = context.WithoutCancel(ctx)

	identity, err := e.cache.GetSet(ctx, address, func(ctx context.Context) (types.Identity, error) {
		return e.resolve(ctx, address), nil
	})
	if err != nil {
		// Cache failures degrade to a direct resolve.
		e.log.WithContext(ctx).Warnw("Identity cache unavailable",
			"address", address,
			"error", err)
		return e.resolve(ctx, address)
	}
	return identity
}

func (e *Enricher) resolve(ctx context.Context, address string) types.Identity {
	start := time.Now()
	records := e.collector.Collect(ctx, address)
	identity := e.scorer.Score(e.engine.Fuse(records))

	e.log.WithContext(ctx).Debugw("Address enriched",
		"address", address,
		"company", identity.Company,
		"method", string(identity.DetectionMethod),
		"lead_score", identity.LeadScore,
		"sources", len(records),
		"duration", time.Since(start))
	return identity
}
