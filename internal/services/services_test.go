package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsintel/internal/core"
	"newsintel/internal/store"
)

// mockArticles implements ArticleReader for tests
type mockArticles struct {
	ready  []core.Article
	failed []core.Article
}

func (m *mockArticles) Get(ctx context.Context, fingerprint string) (*core.Article, error) {
	for _, article := range m.ready {
		if article.Fingerprint == fingerprint {
			clone := article
			return &clone, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *mockArticles) ListByStatus(ctx context.Context, status core.EnrichmentStatus, limit int) ([]core.Article, error) {
	if status == core.StatusFailed {
		return m.failed, nil
	}
	return nil, nil
}

func (m *mockArticles) ListReady(ctx context.Context, filter store.FeedFilter, limit int) ([]core.Article, error) {
	if filter.Category == "" {
		return m.ready, nil
	}
	var filtered []core.Article
	for _, article := range m.ready {
		if article.Category == filter.Category {
			filtered = append(filtered, article)
		}
	}
	return filtered, nil
}

func (m *mockArticles) SourceSentiment(ctx context.Context) ([]core.SourceSentiment, error) {
	return []core.SourceSentiment{{Source: "bbc", ArticleCount: 2}}, nil
}

// mockInteractionWriter implements InteractionWriter for tests
type mockInteractionWriter struct {
	appended []core.Interaction
	profiles []core.UserProfile
}

func (m *mockInteractionWriter) Append(ctx context.Context, userID string, interaction core.Interaction) error {
	m.appended = append(m.appended, interaction)
	return nil
}

func (m *mockInteractionWriter) SaveProfile(ctx context.Context, profile core.UserProfile) error {
	m.profiles = append(m.profiles, profile)
	return nil
}

// mockRanker reverses the candidate order so tests can see ranking applied
type mockRanker struct{}

func (m *mockRanker) Recommend(ctx context.Context, userID string, candidates []core.Article, limit int) ([]core.RecommendationScore, error) {
	var scores []core.RecommendationScore
	for i := len(candidates) - 1; i >= 0; i-- {
		scores = append(scores, core.RecommendationScore{
			UserID:      userID,
			Fingerprint: candidates[i].Fingerprint,
			Value:       float64(len(candidates) - i),
		})
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

func readyArticle(fingerprint, category string) core.Article {
	return core.Article{
		Fingerprint: fingerprint,
		Category:    category,
		Title:       "Title " + fingerprint,
		Summary:     "Summary",
		Status:      core.StatusReady,
		PublishedAt: time.Now().UTC(),
	}
}

func TestFeedRanksCandidates(t *testing.T) {
	articles := &mockArticles{ready: []core.Article{
		readyArticle("fp-1", "sports"),
		readyArticle("fp-2", "sports"),
	}}
	service := NewService(articles, &mockInteractionWriter{}, &mockRanker{})

	ranked, err := service.Feed(context.Background(), "alice", store.FeedFilter{}, 10)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked articles, got %d", len(ranked))
	}
	// The mock ranker reverses order; the service must honor it.
	if ranked[0].Article.Fingerprint != "fp-2" {
		t.Errorf("Expected ranker order preserved, got %q first", ranked[0].Article.Fingerprint)
	}
	if ranked[0].Score.Value == 0 {
		t.Error("Expected score attached to ranked article")
	}
}

func TestFeedHonorsFilter(t *testing.T) {
	articles := &mockArticles{ready: []core.Article{
		readyArticle("fp-sports", "sports"),
		readyArticle("fp-geo", "geopolitics"),
	}}
	service := NewService(articles, &mockInteractionWriter{}, &mockRanker{})

	ranked, err := service.Feed(context.Background(), "alice", store.FeedFilter{Category: "sports"}, 10)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Article.Fingerprint != "fp-sports" {
		t.Errorf("Expected only the filtered category, got %v", ranked)
	}
}

func TestFeedEmptyPool(t *testing.T) {
	service := NewService(&mockArticles{}, &mockInteractionWriter{}, &mockRanker{})

	ranked, err := service.Feed(context.Background(), "alice", store.FeedFilter{}, 10)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("Expected empty feed, got %d entries", len(ranked))
	}
}

func TestRecordInteraction(t *testing.T) {
	articles := &mockArticles{ready: []core.Article{readyArticle("fp-1", "sports")}}
	writer := &mockInteractionWriter{}
	service := NewService(articles, writer, &mockRanker{})

	err := service.RecordInteraction(context.Background(), "alice", "fp-1", core.ActionLike)
	if err != nil {
		t.Fatalf("RecordInteraction failed: %v", err)
	}
	if len(writer.appended) != 1 || writer.appended[0].Action != core.ActionLike {
		t.Errorf("Expected one like recorded, got %v", writer.appended)
	}
	if writer.appended[0].Timestamp.IsZero() {
		t.Error("Expected interaction timestamped")
	}
}

func TestRecordInteractionUnknownArticle(t *testing.T) {
	service := NewService(&mockArticles{}, &mockInteractionWriter{}, &mockRanker{})

	err := service.RecordInteraction(context.Background(), "alice", "fp-missing", core.ActionView)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecordInteractionRejectsUnknownAction(t *testing.T) {
	articles := &mockArticles{ready: []core.Article{readyArticle("fp-1", "sports")}}
	service := NewService(articles, &mockInteractionWriter{}, &mockRanker{})

	err := service.RecordInteraction(context.Background(), "alice", "fp-1", "share")
	if err == nil {
		t.Error("Expected error for unsupported action")
	}
}

func TestFailedArticlesView(t *testing.T) {
	articles := &mockArticles{failed: []core.Article{
		{Fingerprint: "fp-bad", Source: "bbc", RawTitle: "Raw Only", FailedStage: "classify"},
	}}
	service := NewService(articles, &mockInteractionWriter{}, &mockRanker{})

	failed, err := service.FailedArticles(context.Background(), 10)
	if err != nil {
		t.Fatalf("FailedArticles failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failed article, got %d", len(failed))
	}
	if failed[0].FailedStage != "classify" {
		t.Errorf("Expected failing stage surfaced, got %q", failed[0].FailedStage)
	}
	// Falls back to the raw title when cleaning never produced one.
	if failed[0].Title != "Raw Only" {
		t.Errorf("Expected raw title fallback, got %q", failed[0].Title)
	}
}

func TestSaveProfileRequiresUserID(t *testing.T) {
	service := NewService(&mockArticles{}, &mockInteractionWriter{}, &mockRanker{})

	if err := service.SaveProfile(context.Background(), core.UserProfile{}); err == nil {
		t.Error("Expected error for profile without user id")
	}
}
