package classify

import (
	"context"
	"fmt"

	"newsintel/internal/core"
	"newsintel/internal/llm"
)

// ModelClient is the slice of the model endpoint the classifier needs.
type ModelClient interface {
	// ScoreSentiment returns per-class probabilities for the text.
	// modelName may be empty to use the endpoint's default model.
	ScoreSentiment(ctx context.Context, text, modelName string) (llm.SentimentScores, error)

	// Translate translates text between language codes.
	Translate(ctx context.Context, text, fromLang, toLang string) (string, error)
}

// Options configures the classifier behavior
type Options struct {
	// Epsilon is the band within which the top two class probabilities are
	// considered tied. Ties resolve to Neutral: precision on the extreme
	// classes is preferred over Neutral recall.
	Epsilon float64

	// PivotLanguage is the language unsupported inputs are translated to
	// before scoring.
	PivotLanguage string

	// Models maps language codes to language-specific model names. The
	// lookup is a plain map hit, so routing is deterministic per language
	// code: identical text always takes the identical route.
	Models map[string]string
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Epsilon:       0.05,
		PivotLanguage: "en",
	}
}

// Classifier assigns a sentiment label and confidence to one article at a
// time. It holds no cross-article state, so classification is safe to run
// concurrently and to retry.
type Classifier struct {
	model ModelClient
	opts  Options
}

// NewClassifier creates a classifier backed by the given model endpoint.
func NewClassifier(model ModelClient, opts Options) *Classifier {
	return &Classifier{model: model, opts: opts}
}

// Classify scores the article's canonical text and resolves a label.
// Model failures are reported as core.ErrClassificationUnavailable; the
// orchestrator owns the bounded retry around this call.
func (c *Classifier) Classify(ctx context.Context, article *core.Article) (*core.Sentiment, error) {
	text := article.Body
	if text == "" {
		text = article.Title
	}
	if text == "" {
		return nil, fmt.Errorf("article %s has no text to classify: %w", article.Fingerprint, core.ErrMalformedInput)
	}

	modelName, needsPivot := c.route(article.Language)

	if needsPivot {
		translated, err := c.model.Translate(ctx, text, article.Language, c.opts.PivotLanguage)
		if err != nil {
			return nil, fmt.Errorf("pivot translation from %s failed: %w: %v", article.Language, core.ErrClassificationUnavailable, err)
		}
		text = translated
	}

	scores, err := c.model.ScoreSentiment(ctx, text, modelName)
	if err != nil {
		return nil, fmt.Errorf("sentiment scoring failed: %w: %v", core.ErrClassificationUnavailable, err)
	}

	sentiment := Resolve(scores, c.opts.Epsilon)
	return &sentiment, nil
}

// route decides how a language is scored: a language-specific model when
// one is configured, the default model for the pivot language, or pivot
// translation for everything else.
func (c *Classifier) route(language string) (modelName string, needsPivot bool) {
	if name, ok := c.opts.Models[language]; ok {
		return name, false
	}
	if language == c.opts.PivotLanguage || language == "" {
		return "", false
	}
	return "", true
}

// Resolve converts class probabilities into a label and confidence. When
// the top two probabilities are within epsilon of each other the label is
// Neutral regardless of which classes tied.
func Resolve(scores llm.SentimentScores, epsilon float64) core.Sentiment {
	type class struct {
		label core.SentimentLabel
		prob  float64
	}

	classes := []class{
		{core.SentimentPositive, scores.Positive},
		{core.SentimentNegative, scores.Negative},
		{core.SentimentNeutral, scores.Neutral},
	}

	top := classes[0]
	second := classes[1]
	if second.prob > top.prob {
		top, second = second, top
	}
	if classes[2].prob > top.prob {
		second = top
		top = classes[2]
	} else if classes[2].prob > second.prob {
		second = classes[2]
	}

	if top.prob-second.prob <= epsilon {
		return core.Sentiment{Label: core.SentimentNeutral, Confidence: scores.Neutral}
	}

	return core.Sentiment{Label: top.label, Confidence: top.prob}
}
