// Package classify turns raw hostnames and organization strings into
// organization verdicts.
package classify

import (
	"fmt"
	"strings"
	"sync"
)

// AliasTable maps known VPN/anonymizer identifiers to the real organization
// behind them. Read concurrently by every in-flight fusion; entries are
// only ever added, never removed by the pipeline.
type AliasTable struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewAliasTable() *AliasTable {
	return &AliasTable{
		entries: make(map[string]string),
	}
}

// Add registers identifier -> realCompany. The identifier is lowercased;
// both arguments must be non-empty. Visible to concurrent readers
// immediately.
func (t *AliasTable) Add(identifier, realCompany string) error {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	realCompany = strings.TrimSpace(realCompany)
	if identifier == "" || realCompany == "" {
		return fmt.Errorf("alias identifier and real company must both be non-empty")
	}

	t.mu.Lock()
	t.entries[identifier] = realCompany
	t.mu.Unlock()
	return nil
}

// Match reports the real company behind s if any registered identifier
// appears in it as a substring, case-insensitively.
func (t *AliasTable) Match(s string) (string, bool) {
	lower := strings.ToLower(s)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for identifier, real := range t.entries {
		if strings.Contains(lower, identifier) {
			return real, true
		}
	}
	return "", false
}

// Len returns the number of registered aliases.
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Seed bulk-loads entries, skipping invalid ones.
func (t *AliasTable) Seed(entries map[string]string) {
	for identifier, real := range entries {
		_ = t.Add(identifier, real)
	}
}
