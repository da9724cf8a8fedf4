package recommend

import (
	"strings"

	"newsintel/internal/core"
)

// Content score component weights. Category affinity dominates, with
// country, language, and keyword overlap refining the order within a
// category.
const (
	categoryWeight = 0.45
	countryWeight  = 0.15
	languageWeight = 0.10
	keywordWeight  = 0.25
	positiveBonus  = 0.05
)

// scoreContent computes the content-based score for each pooled article
// against the user's stated preferences and keyword affinity. The affinity
// vocabulary is learned from the candidates the user already interacted
// with, so candidates outside the pool still contribute taste signal.
func scoreContent(profile *core.UserProfile, candidates, pool []core.Article) map[string]float64 {
	categories := lowerSet(profile.Categories)
	countries := lowerSet(profile.Countries)
	affinity := keywordAffinity(profile, candidates)

	scores := make(map[string]float64, len(pool))
	for _, article := range pool {
		var score float64

		if categories[strings.ToLower(article.Category)] {
			score += categoryWeight
		}
		if countries[strings.ToLower(article.Country)] {
			score += countryWeight
		}
		if profile.Language != "" && strings.EqualFold(profile.Language, article.Language) {
			score += languageWeight
		}
		score += keywordWeight * keywordOverlap(article.Keywords, affinity)

		// Mild preference for upbeat coverage, only when the signal is
		// confident enough to mean something.
		if article.Sentiment != nil &&
			article.Sentiment.Label == core.SentimentPositive &&
			article.Sentiment.Confidence >= 0.6 {
			score += positiveBonus
		}

		scores[article.Fingerprint] = score
	}
	return scores
}

// keywordAffinity collects the keywords of candidates the user interacted
// with, weighted by how strong the interaction was.
func keywordAffinity(profile *core.UserProfile, candidates []core.Article) map[string]float64 {
	byFingerprint := make(map[string]core.Article, len(candidates))
	for _, article := range candidates {
		byFingerprint[article.Fingerprint] = article
	}

	affinity := make(map[string]float64)
	for _, interaction := range profile.History {
		article, ok := byFingerprint[interaction.Fingerprint]
		if !ok {
			continue
		}
		weight := actionWeight(interaction.Action)
		for _, keyword := range article.Keywords {
			affinity[strings.ToLower(keyword)] += weight
		}
	}
	return affinity
}

// keywordOverlap returns the fraction of the article's keywords the user
// has shown affinity for, in [0, 1].
func keywordOverlap(keywords []string, affinity map[string]float64) float64 {
	if len(keywords) == 0 || len(affinity) == 0 {
		return 0
	}
	matched := 0
	for _, keyword := range keywords {
		if affinity[strings.ToLower(keyword)] > 0 {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
