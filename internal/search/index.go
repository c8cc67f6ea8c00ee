package search

import (
	"strings"

	sahilm "github.com/sahilm/fuzzy"

	"github.com/kwhalen/slate/internal/domain"
)

// Query is one search request
type Query struct {
	Text string
	Kind domain.ResourceKind // empty = all kinds
}

// Entry is one searchable item in the local index
type Entry struct {
	Kind  domain.ResourceKind
	ID    string
	Label string
}

// Result is a ranked search hit with match metadata for highlighting.
// Results are always returned best match first; the raw score scale
// differs between local and server ranking.
type Result struct {
	Entry
	MatchedIndexes []int // character positions that matched
	Score          int
}

// filterIndex implements sahilm/fuzzy.Source over pre-lowered labels
type filterIndex struct {
	entries     []Entry
	lowerLabels []string
}

func (idx *filterIndex) String(i int) string { return idx.lowerLabels[i] }
func (idx *filterIndex) Len() int            { return len(idx.entries) }

// Index replaces the indexed entries for one kind. Called after every
// successful collection fold so offline search always reflects the
// latest cached window.
func (s *Service) Index(kind domain.ResourceKind, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[kind] = entries
	s.logger.Debug("search index updated", "kind", kind, "count", len(entries))
}

// ClearIndex drops every indexed entry. Used on logout.
func (s *Service) ClearIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[domain.ResourceKind][]Entry)
}

// IndexCount returns the number of indexed entries for one kind
func (s *Service) IndexCount(kind domain.ResourceKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[kind])
}

// Local matches the query against the index without touching the
// network. Safe to call offline.
func (s *Service) Local(q Query) []Result {
	if strings.TrimSpace(q.Text) == "" {
		return nil
	}

	s.mu.RLock()
	idx := s.gatherLocked(q.Kind)
	s.mu.RUnlock()

	if idx.Len() == 0 {
		return nil
	}

	matches := sahilm.FindFrom(strings.ToLower(q.Text), idx)

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Entry:          idx.entries[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// gatherLocked builds a match source for the requested kinds.
// Caller holds at least a read lock.
func (s *Service) gatherLocked(kind domain.ResourceKind) *filterIndex {
	kinds := []domain.ResourceKind{kind}
	if kind == "" {
		kinds = domain.AllKinds()
	}

	idx := &filterIndex{}
	for _, k := range kinds {
		for _, e := range s.entries[k] {
			idx.entries = append(idx.entries, e)
			idx.lowerLabels = append(idx.lowerLabels, strings.ToLower(e.Label))
		}
	}
	return idx
}
