// Package search picks stored activities that match a free-text request.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
)

// DefaultLimit is the number of inspirations used when none is configured
const DefaultLimit = 3

// Result is one matched activity with its overlap score
type Result struct {
	Activity *models.Activity
	Score    int
}

// KeywordSearchService scores activities by word overlap with a request.
// Tokens are lowercased and split on whitespace; a record scores one point
// for each distinct request token found in its topic, description or
// games_and_methods.
type KeywordSearchService struct {
	storage interfaces.ActivityStorage
	logger  arbor.ILogger
}

// NewKeywordSearchService creates a new keyword search service
func NewKeywordSearchService(storage interfaces.ActivityStorage, logger arbor.ILogger) *KeywordSearchService {
	return &KeywordSearchService{
		storage: storage,
		logger:  logger,
	}
}

// Search returns up to limit activities with a positive score, best first.
// Equal scores keep id order.
func (s *KeywordSearchService) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	activities, err := s.storage.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return rank(activities, query, normalizeLimit(limit)), nil
}

// Inspirations returns the best matches for query. When nothing matches it
// falls back to the first limit activities by id, with score 0.
func (s *KeywordSearchService) Inspirations(ctx context.Context, query string, limit int) ([]Result, error) {
	activities, err := s.storage.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}

	limit = normalizeLimit(limit)
	results := rank(activities, query, limit)
	if len(results) > 0 {
		s.logger.Debug().Int("matches", len(results)).Int("top_score", results[0].Score).Msg("Inspirations matched by keyword")
		return results, nil
	}

	if len(activities) < limit {
		limit = len(activities)
	}
	results = make([]Result, 0, limit)
	for _, activity := range activities[:limit] {
		results = append(results, Result{Activity: activity})
	}

	s.logger.Debug().Int("fallback", len(results)).Msg("No keyword matches, using first stored activities")
	return results, nil
}

func rank(activities []*models.Activity, query string, limit int) []Result {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return []Result{}
	}

	results := make([]Result, 0)
	for _, activity := range activities {
		if score := Score(queryTokens, activity); score > 0 {
			results = append(results, Result{Activity: activity, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Activity.ID < results[j].Activity.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Score counts the query tokens present in the activity's searchable text
func Score(queryTokens map[string]struct{}, activity *models.Activity) int {
	text := activity.Topic + " " + activity.Description + " " + activity.GamesAndMethods
	activityTokens := tokenSet(text)

	score := 0
	for token := range queryTokens {
		if _, ok := activityTokens[token]; ok {
			score++
		}
	}
	return score
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
