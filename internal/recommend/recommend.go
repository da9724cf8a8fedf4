package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"newsintel/internal/core"
	"newsintel/internal/logger"
)

// ProfileReader supplies the requesting user's preferences and history.
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (*core.UserProfile, error)
}

// InteractionReader supplies other users' interactions over the candidate
// set, the input for collaborative scoring.
type InteractionReader interface {
	HistoriesTouching(ctx context.Context, fingerprints []string, excludeUser string) (map[string][]core.Interaction, error)
}

// Options configures the hybrid blend.
type Options struct {
	ContentWeight       float64 // Weight of the content-based score
	CollaborativeWeight float64 // Weight of the collaborative score
	Neighbors           int     // Max similar users considered per request
	ExcludeViewed       bool    // Drop articles the user already viewed
}

// DefaultOptions returns the default blend configuration.
func DefaultOptions() Options {
	return Options{
		ContentWeight:       0.6,
		CollaborativeWeight: 0.4,
		Neighbors:           20,
		ExcludeViewed:       false,
	}
}

// Validate checks the blend weights.
func (o Options) Validate() error {
	sum := o.ContentWeight + o.CollaborativeWeight
	if sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("blend weights must sum to 1, got %.4f", sum)
	}
	if o.ContentWeight < 0 || o.CollaborativeWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	return nil
}

// Recommender ranks enriched articles for a user by blending a
// content-based score against the user's stated preferences with a
// collaborative score derived from similar users' interactions.
type Recommender struct {
	profiles     ProfileReader
	interactions InteractionReader
	opts         Options
}

// NewRecommender creates a hybrid recommender.
func NewRecommender(profiles ProfileReader, interactions InteractionReader, opts Options) (*Recommender, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Neighbors <= 0 {
		opts.Neighbors = DefaultOptions().Neighbors
	}
	return &Recommender{profiles: profiles, interactions: interactions, opts: opts}, nil
}

// Recommend scores and orders the candidate articles for the user. When the
// profile service is unavailable the feed degrades to recency order rather
// than failing; a user with no interaction history gets a purely
// content-based ranking.
func (r *Recommender) Recommend(ctx context.Context, userID string, candidates []core.Article, limit int) ([]core.RecommendationScore, error) {
	log := logger.Get()

	profile, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrProfileUnavailable) {
			log.Warn().Str("user_id", userID).Msg("profile unavailable, falling back to recency order")
			return r.recencyFallback(userID, candidates, limit), nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	viewed := viewedSet(profile.History)
	pool := candidates
	if r.opts.ExcludeViewed {
		pool = make([]core.Article, 0, len(candidates))
		for _, article := range candidates {
			if !viewed[article.Fingerprint] {
				pool = append(pool, article)
			}
		}
	}

	contentScores := scoreContent(profile, candidates, pool)

	coldStart := len(profile.History) == 0
	var collabScores map[string]float64
	if !coldStart {
		collabScores, err = r.scoreCollaborative(ctx, profile, pool)
		if err != nil {
			// Collaborative input is an optimization; a read failure must
			// not take the feed down with it.
			log.Warn().Err(err).Str("user_id", userID).Msg("collaborative scoring unavailable")
			coldStart = true
		}
	}

	now := time.Now().UTC()
	scores := make([]core.RecommendationScore, 0, len(pool))
	for _, article := range pool {
		score := core.RecommendationScore{
			UserID:      userID,
			Fingerprint: article.Fingerprint,
			Content:     contentScores[article.Fingerprint],
			ComputedAt:  now,
		}
		if coldStart {
			// No history means no collaborative signal; content carries
			// the full weight instead of being scaled down by the blend.
			score.Value = score.Content
		} else {
			score.Collaborative = collabScores[article.Fingerprint]
			score.Value = r.opts.ContentWeight*score.Content + r.opts.CollaborativeWeight*score.Collaborative
		}
		scores = append(scores, score)
	}

	sortScores(scores, pool)

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// recencyFallback orders candidates newest first with zero scores.
func (r *Recommender) recencyFallback(userID string, candidates []core.Article, limit int) []core.RecommendationScore {
	ordered := append([]core.Article(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].PublishedAt.Equal(ordered[j].PublishedAt) {
			return ordered[i].PublishedAt.After(ordered[j].PublishedAt)
		}
		return ordered[i].Fingerprint < ordered[j].Fingerprint
	})

	now := time.Now().UTC()
	scores := make([]core.RecommendationScore, 0, len(ordered))
	for _, article := range ordered {
		scores = append(scores, core.RecommendationScore{
			UserID:      userID,
			Fingerprint: article.Fingerprint,
			ComputedAt:  now,
		})
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// sortScores orders by blended value descending, breaking ties by recency
// and finally by fingerprint so equal inputs always produce equal output.
func sortScores(scores []core.RecommendationScore, pool []core.Article) {
	published := make(map[string]time.Time, len(pool))
	for _, article := range pool {
		published[article.Fingerprint] = article.PublishedAt
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		pi, pj := published[scores[i].Fingerprint], published[scores[j].Fingerprint]
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return scores[i].Fingerprint < scores[j].Fingerprint
	})
}

func viewedSet(history []core.Interaction) map[string]bool {
	viewed := make(map[string]bool, len(history))
	for _, interaction := range history {
		viewed[interaction.Fingerprint] = true
	}
	return viewed
}
