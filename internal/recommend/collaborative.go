package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"newsintel/internal/core"
)

// actionWeight maps an interaction to its strength in a user vector. A
// bookmark says more about taste than a passing view.
func actionWeight(action core.InteractionAction) float64 {
	switch action {
	case core.ActionView:
		return 1
	case core.ActionLike:
		return 3
	case core.ActionBookmark:
		return 4
	default:
		return 0
	}
}

// scoreCollaborative computes, per pooled article, how strongly the user's
// most similar neighbors engaged with it. Similarity is the cosine between
// interaction vectors over article fingerprints; each neighbor's engagement
// is weighted by that similarity and the result normalized to [0, 1].
func (r *Recommender) scoreCollaborative(ctx context.Context, profile *core.UserProfile, pool []core.Article) (map[string]float64, error) {
	fingerprints := make([]string, 0, len(pool))
	for _, article := range pool {
		fingerprints = append(fingerprints, article.Fingerprint)
	}

	histories, err := r.interactions.HistoriesTouching(ctx, fingerprints, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load neighbor interactions: %w", err)
	}

	userVector := interactionVector(profile.History)

	type neighbor struct {
		id         string
		similarity float64
		vector     map[string]float64
	}

	neighbors := make([]neighbor, 0, len(histories))
	for id, history := range histories {
		vector := interactionVector(history)
		similarity := cosine(userVector, vector)
		if similarity > 0 {
			neighbors = append(neighbors, neighbor{id: id, similarity: similarity, vector: vector})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].id < neighbors[j].id
	})
	if len(neighbors) > r.opts.Neighbors {
		neighbors = neighbors[:r.opts.Neighbors]
	}

	scores := make(map[string]float64, len(pool))
	if len(neighbors) == 0 {
		return scores, nil
	}

	var totalSimilarity float64
	for _, n := range neighbors {
		totalSimilarity += n.similarity
	}

	maxWeight := actionWeight(core.ActionBookmark)
	for _, fp := range fingerprints {
		var weighted float64
		for _, n := range neighbors {
			weighted += n.similarity * math.Min(n.vector[fp], maxWeight)
		}
		scores[fp] = weighted / (totalSimilarity * maxWeight)
	}

	return scores, nil
}

// interactionVector folds a history into per-article engagement weights.
func interactionVector(history []core.Interaction) map[string]float64 {
	vector := make(map[string]float64, len(history))
	for _, interaction := range history {
		vector[interaction.Fingerprint] += actionWeight(interaction.Action)
	}
	return vector
}

// cosine computes cosine similarity between two sparse vectors.
func cosine(a, b map[string]float64) float64 {
	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (norm(a) * norm(b))
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
