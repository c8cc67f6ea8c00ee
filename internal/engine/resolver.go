package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kwhalen/slate/internal/domain"
)

// Fingerprint returns a stable content hash for one item. Hashing the
// encoded form keeps the result independent of in-memory layout.
func Fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintItems computes the fingerprint map for a server snapshot
func FingerprintItems[T domain.Resource](items []T) domain.Fingerprints {
	fps := make(domain.Fingerprints, len(items))
	for _, item := range items {
		fps[item.GetID()] = Fingerprint(item)
	}
	return fps
}

// ConflictReport names the cached items that no longer match the
// server. The server copy always wins; the report only tells the user
// which of their local copies were out of date.
type ConflictReport struct {
	Kind        domain.ResourceKind
	DivergedIDs []string // changed on the server, or deleted from it
	CachedCount int
	ServerCount int
}

// HasConflicts reports whether any cached item diverged
func (r ConflictReport) HasConflicts() bool { return len(r.DivergedIDs) > 0 }

// Summary returns a short line for status displays
func (r ConflictReport) Summary() string {
	if !r.HasConflicts() {
		return fmt.Sprintf("%s: up to date", r.Kind)
	}
	return fmt.Sprintf("%s: %d of %d cached items changed on the server", r.Kind, len(r.DivergedIDs), r.CachedCount)
}

// Reconcile applies server-wins resolution. The returned items are the
// server snapshot untouched; the fingerprints are recomputed from it;
// the report lists every previously cached item whose fingerprint
// disagrees with, or is absent from, that snapshot. Items the server
// added are not divergence.
func Reconcile[T domain.Resource](kind domain.ResourceKind, server []T, cached domain.Fingerprints) ([]T, domain.Fingerprints, ConflictReport) {
	fresh := FingerprintItems(server)
	report := ConflictReport{Kind: kind, CachedCount: len(cached), ServerCount: len(server)}
	for id, fp := range cached {
		current, ok := fresh[id]
		if !ok || current != fp {
			report.DivergedIDs = append(report.DivergedIDs, id)
		}
	}
	sort.Strings(report.DivergedIDs)
	return server, fresh, report
}
