// Package services is the presentation boundary: read-side views over the
// enriched article store, interaction recording, and the personalized feed.
package services

import (
	"context"
	"fmt"
	"time"

	"newsintel/internal/core"
	"newsintel/internal/recommend"
	"newsintel/internal/store"
)

// ArticleReader is the slice of the article store the service layer reads.
type ArticleReader interface {
	Get(ctx context.Context, fingerprint string) (*core.Article, error)
	ListByStatus(ctx context.Context, status core.EnrichmentStatus, limit int) ([]core.Article, error)
	ListReady(ctx context.Context, filter store.FeedFilter, limit int) ([]core.Article, error)
	SourceSentiment(ctx context.Context) ([]core.SourceSentiment, error)
}

// InteractionWriter records user interactions and profile updates.
type InteractionWriter interface {
	Append(ctx context.Context, userID string, interaction core.Interaction) error
	SaveProfile(ctx context.Context, profile core.UserProfile) error
}

// Ranker orders candidate articles for a user.
type Ranker interface {
	Recommend(ctx context.Context, userID string, candidates []core.Article, limit int) ([]core.RecommendationScore, error)
}

// Service exposes the read and interaction surface of the pipeline.
type Service struct {
	articles     ArticleReader
	interactions InteractionWriter
	ranker       Ranker
}

// NewService creates the presentation service.
func NewService(articles ArticleReader, interactions InteractionWriter, ranker Ranker) *Service {
	return &Service{articles: articles, interactions: interactions, ranker: ranker}
}

// ReadyArticles returns fully enriched articles, newest published first,
// optionally filtered by category, country, or language.
func (s *Service) ReadyArticles(ctx context.Context, filter store.FeedFilter, limit int) ([]core.Article, error) {
	articles, err := s.articles.ListReady(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready articles: %w", err)
	}
	return articles, nil
}

// RankedArticle pairs an article with its feed score.
type RankedArticle struct {
	Article core.Article             `json:"article"`
	Score   core.RecommendationScore `json:"score"`
}

// Feed returns a personalized, ranked view of the ready articles. The
// candidate pool honors the caller's filters before ranking, so a feed
// scoped to one category never leaks articles from another.
func (s *Service) Feed(ctx context.Context, userID string, filter store.FeedFilter, limit int) ([]RankedArticle, error) {
	// Rank over a wider pool than the page size so personalization can
	// reorder beyond the first screen.
	poolSize := limit * 10
	if poolSize <= 0 {
		poolSize = 200
	}

	candidates, err := s.articles.ListReady(ctx, filter, poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores, err := s.ranker.Recommend(ctx, userID, candidates, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank feed: %w", err)
	}

	byFingerprint := make(map[string]core.Article, len(candidates))
	for _, article := range candidates {
		byFingerprint[article.Fingerprint] = article
	}

	ranked := make([]RankedArticle, 0, len(scores))
	for _, score := range scores {
		article, ok := byFingerprint[score.Fingerprint]
		if !ok {
			continue
		}
		ranked = append(ranked, RankedArticle{Article: article, Score: score})
	}
	return ranked, nil
}

// FailedArticle is the diagnostic view of an article stuck in the failed
// state.
type FailedArticle struct {
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	FailedStage string    `json:"failed_stage"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FailedArticles lists articles that exhausted their retries, with the
// stage that gave up. Re-ingesting the same record clears them.
func (s *Service) FailedArticles(ctx context.Context, limit int) ([]FailedArticle, error) {
	articles, err := s.articles.ListByStatus(ctx, core.StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed articles: %w", err)
	}

	failed := make([]FailedArticle, 0, len(articles))
	for _, article := range articles {
		title := article.Title
		if title == "" {
			title = article.RawTitle
		}
		failed = append(failed, FailedArticle{
			Fingerprint: article.Fingerprint,
			Source:      article.Source,
			Title:       title,
			FailedStage: article.FailedStage,
			UpdatedAt:   article.UpdatedAt,
		})
	}
	return failed, nil
}

// SourceSentiment returns the per-source sentiment distribution over
// classified articles, for dashboard use.
func (s *Service) SourceSentiment(ctx context.Context) ([]core.SourceSentiment, error) {
	return s.articles.SourceSentiment(ctx)
}

// RecordInteraction appends a user interaction after verifying the article
// exists and is readable.
func (s *Service) RecordInteraction(ctx context.Context, userID, fingerprint string, action core.InteractionAction) error {
	switch action {
	case core.ActionView, core.ActionLike, core.ActionBookmark:
	default:
		return fmt.Errorf("unknown interaction action %q", action)
	}

	if _, err := s.articles.Get(ctx, fingerprint); err != nil {
		return fmt.Errorf("cannot record interaction: %w", err)
	}

	interaction := core.Interaction{
		Fingerprint: fingerprint,
		Action:      action,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.interactions.Append(ctx, userID, interaction); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// SaveProfile stores a user's stated preferences.
func (s *Service) SaveProfile(ctx context.Context, profile core.UserProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("profile requires a user id")
	}
	if err := s.interactions.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

var _ Ranker = (*recommend.Recommender)(nil)
