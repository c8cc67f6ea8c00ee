package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/kwhalen/slate/internal/domain"
)

// remoteLimit caps how many hits we request per kind from the server
const remoteLimit = 25

// Service handles fuzzy search across collections: server-side when
// reachable, ranked locally, with the cached index as fallback.
type Service struct {
	repo   domain.CampusRepository
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[domain.ResourceKind][]Entry
}

// NewService creates a new search service
func NewService(repo domain.CampusRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		entries: make(map[domain.ResourceKind][]Entry),
	}
}

// Search performs a search across the requested kinds. Server results
// are preferred; when the server is unreachable the local index
// answers instead, so search keeps working offline.
func (s *Service) Search(ctx context.Context, scope domain.Scope, q Query) ([]Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	s.logger.Debug("searching", "query", q.Text, "kind", q.Kind)

	results, err := s.remote(ctx, scope, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("server search failed, falling back to local", "error", err)
		return s.Local(q), nil
	}

	ranked := s.rank(results, q.Text)
	s.logger.Debug("search complete", "query", q.Text, "results", len(ranked))
	return ranked, nil
}

// remote queries the server for each requested kind
func (s *Service) remote(ctx context.Context, scope domain.Scope, q Query) ([]Result, error) {
	kinds := []domain.ResourceKind{q.Kind}
	if q.Kind == "" {
		kinds = domain.AllKinds()
	}

	page := domain.PageQuery{Search: q.Text, Limit: remoteLimit}

	var out []Result
	for _, kind := range kinds {
		switch kind {
		case domain.KindCourses:
			items, err := s.repo.FetchCourses(ctx, scope, page)
			if err != nil {
				return nil, err
			}
			out = append(out, toResults(kind, items)...)
		case domain.KindAssignments:
			items, err := s.repo.FetchAssignments(ctx, scope, page)
			if err != nil {
				return nil, err
			}
			out = append(out, toResults(kind, items)...)
		case domain.KindGrades:
			items, err := s.repo.FetchGrades(ctx, scope, page)
			if err != nil {
				return nil, err
			}
			out = append(out, toResults(kind, items)...)
		case domain.KindConversations:
			items, err := s.repo.FetchConversations(ctx, scope, page)
			if err != nil {
				return nil, err
			}
			out = append(out, toResults(kind, items)...)
		case domain.KindUsers:
			items, err := s.repo.FetchUsers(ctx, scope, page)
			if err != nil {
				return nil, err
			}
			out = append(out, toResults(kind, items)...)
		}
	}
	return out, nil
}

func toResults[T domain.Resource](kind domain.ResourceKind, items []T) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, Result{
			Entry: Entry{Kind: kind, ID: item.GetID(), Label: item.GetLabel()},
		})
	}
	return results
}

// rank orders server results by how well each label matches the query
func (s *Service) rank(results []Result, query string) []Result {
	if len(results) == 0 {
		return results
	}

	query = strings.ToLower(query)
	for i := range results {
		results[i].Score = matchScore(strings.ToLower(results[i].Label), query)
	}

	// Lower score = better match
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

// matchScore calculates a match score for ranking.
// Lower score = better match.
func matchScore(label, query string) int {
	if label == query {
		return 0
	}
	if strings.HasPrefix(label, query) {
		return 10
	}
	if strings.Contains(label, query) {
		return 50
	}
	return 100 + fuzzy.LevenshteinDistance(query, label)
}
