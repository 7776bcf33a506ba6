// Package sources wraps the external lookup services that contribute
// signals about a visitor address. Each adapter is independent and
// timeout-bounded; a failed or slow adapter contributes no record and never
// propagates a transport error past its boundary.
package sources

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// Adapter wraps one external lookup service. Lookup returns a populated
// record or an error; the collector treats any error as absence.
type Adapter interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*types.SourceRecord, error)
}
