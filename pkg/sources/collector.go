package sources

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// Collector fans out one address to every adapter concurrently and joins
// once all branches settle. Each branch carries its own timeout; a slow or
// dead source never blocks the others, and no branch is retried.
type Collector struct {
	adapters []Adapter
	timeout  time.Duration
	logger   *logger.Logger
}

func NewCollector(adapters []Adapter, timeout time.Duration, log *logger.Logger) *Collector {
	return &Collector{
		adapters: adapters,
		timeout:  timeout,
		logger:   log.WithComponent("collector"),
	}
}

// Collect returns the records of every adapter that answered in time,
// preserving adapter-priority order. Absence of any or all records is a
// normal outcome.
func (c *Collector) Collect(ctx context.Context, ip string) []*types.SourceRecord {
	results := make([]*types.SourceRecord, len(c.adapters))

	g := new(errgroup.Group)
	for i, adapter := range c.adapters {
		g.Go(func() error {
			branchCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			rec, err := adapter.Lookup(branchCtx, ip)
			if err != nil {
				c.logger.Debugw("Source contributed no record",
					"source", adapter.Name(),
					"address", ip,
					"error", err,
					"duration_ms", time.Since(start).Milliseconds(),
				)
				return nil
			}

			c.logger.Debugw("Source record collected",
				"source", adapter.Name(),
				"address", ip,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	records := make([]*types.SourceRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}
