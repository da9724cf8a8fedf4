package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"newsintel/internal/core"
	"newsintel/internal/llm"
)

// mockModelClient implements ModelClient for tests
type mockModelClient struct {
	scores       llm.SentimentScores
	scoreErr     error
	translateErr error

	scoredModel    string
	scoredText     string
	translateCalls int
}

func (m *mockModelClient) ScoreSentiment(ctx context.Context, text, modelName string) (llm.SentimentScores, error) {
	m.scoredText = text
	m.scoredModel = modelName
	return m.scores, m.scoreErr
}

func (m *mockModelClient) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	m.translateCalls++
	if m.translateErr != nil {
		return "", m.translateErr
	}
	return "[translated] " + text, nil
}

func testArticle(language string) *core.Article {
	return &core.Article{
		Fingerprint: "fp-1",
		Title:       "Team clinches title",
		Body:        "An extraordinary comeback sealed the win.",
		Language:    language,
	}
}

func TestClassifyClearWinner(t *testing.T) {
	model := &mockModelClient{
		scores: llm.SentimentScores{Positive: 0.9, Negative: 0.05, Neutral: 0.05},
	}
	classifier := NewClassifier(model, DefaultOptions())

	sentiment, err := classifier.Classify(context.Background(), testArticle("en"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if sentiment.Label != core.SentimentPositive {
		t.Errorf("Expected positive, got %q", sentiment.Label)
	}
	if sentiment.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %f", sentiment.Confidence)
	}
}

func TestClassifyEpsilonTieResolvesNeutral(t *testing.T) {
	// Positive and negative within the tie band; neither extreme wins.
	model := &mockModelClient{
		scores: llm.SentimentScores{Positive: 0.46, Negative: 0.44, Neutral: 0.10},
	}
	classifier := NewClassifier(model, Options{Epsilon: 0.05, PivotLanguage: "en"})

	sentiment, err := classifier.Classify(context.Background(), testArticle("en"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if sentiment.Label != core.SentimentNeutral {
		t.Errorf("Expected tie to resolve neutral, got %q", sentiment.Label)
	}
	if sentiment.Confidence != 0.10 {
		t.Errorf("Expected neutral probability as confidence, got %f", sentiment.Confidence)
	}
}

func TestClassifyRoutesLanguageModel(t *testing.T) {
	model := &mockModelClient{
		scores: llm.SentimentScores{Positive: 0.2, Negative: 0.7, Neutral: 0.1},
	}
	classifier := NewClassifier(model, Options{
		Epsilon:       0.05,
		PivotLanguage: "en",
		Models:        map[string]string{"hi": "sentiment-hi-v2"},
	})

	_, err := classifier.Classify(context.Background(), testArticle("hi"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if model.scoredModel != "sentiment-hi-v2" {
		t.Errorf("Expected language-specific model, got %q", model.scoredModel)
	}
	if model.translateCalls != 0 {
		t.Error("Expected no pivot translation for a configured language")
	}
}

func TestClassifyPivotsUnsupportedLanguage(t *testing.T) {
	model := &mockModelClient{
		scores: llm.SentimentScores{Positive: 0.1, Negative: 0.8, Neutral: 0.1},
	}
	classifier := NewClassifier(model, DefaultOptions())

	_, err := classifier.Classify(context.Background(), testArticle("sw"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if model.translateCalls != 1 {
		t.Errorf("Expected one pivot translation, got %d", model.translateCalls)
	}
	if model.scoredModel != "" {
		t.Errorf("Expected default model after pivot, got %q", model.scoredModel)
	}
	if model.scoredText != "[translated] An extraordinary comeback sealed the win." {
		t.Errorf("Expected translated text to be scored, got %q", model.scoredText)
	}
}

func TestClassifyRoutingIsDeterministic(t *testing.T) {
	classifier := NewClassifier(&mockModelClient{}, Options{
		Epsilon:       0.05,
		PivotLanguage: "en",
		Models:        map[string]string{"hi": "sentiment-hi-v2"},
	})

	for i := 0; i < 10; i++ {
		model, pivot := classifier.route("hi")
		if model != "sentiment-hi-v2" || pivot {
			t.Fatal("Expected identical route for identical language code")
		}
	}
}

func TestClassifyScoringOutage(t *testing.T) {
	model := &mockModelClient{scoreErr: fmt.Errorf("503 service unavailable")}
	classifier := NewClassifier(model, DefaultOptions())

	_, err := classifier.Classify(context.Background(), testArticle("en"))
	if err == nil {
		t.Fatal("Expected error on scoring outage")
	}
	if !errors.Is(err, core.ErrClassificationUnavailable) {
		t.Errorf("Expected ErrClassificationUnavailable, got %v", err)
	}
	if !core.IsTransient(err) {
		t.Error("Expected scoring outage to be transient")
	}
}

func TestClassifyTranslationOutage(t *testing.T) {
	model := &mockModelClient{translateErr: fmt.Errorf("timeout")}
	classifier := NewClassifier(model, DefaultOptions())

	_, err := classifier.Classify(context.Background(), testArticle("sw"))
	if !errors.Is(err, core.ErrClassificationUnavailable) {
		t.Errorf("Expected ErrClassificationUnavailable, got %v", err)
	}
}

func TestClassifyEmptyArticle(t *testing.T) {
	classifier := NewClassifier(&mockModelClient{}, DefaultOptions())

	_, err := classifier.Classify(context.Background(), &core.Article{Fingerprint: "fp-2", Language: "en"})
	if !errors.Is(err, core.ErrMalformedInput) {
		t.Errorf("Expected ErrMalformedInput for empty article, got %v", err)
	}
}

func TestResolveNeutralWinsOutright(t *testing.T) {
	scores := llm.SentimentScores{Positive: 0.1, Negative: 0.1, Neutral: 0.8}
	sentiment := Resolve(scores, 0.05)
	if sentiment.Label != core.SentimentNeutral || sentiment.Confidence != 0.8 {
		t.Errorf("Expected confident neutral, got %+v", sentiment)
	}
}

func TestResolveTieBetweenNeutralAndExtreme(t *testing.T) {
	// Top two are neutral and negative, within epsilon. Still neutral.
	scores := llm.SentimentScores{Positive: 0.1, Negative: 0.44, Neutral: 0.46}
	sentiment := Resolve(scores, 0.05)
	if sentiment.Label != core.SentimentNeutral {
		t.Errorf("Expected neutral on any tie, got %q", sentiment.Label)
	}
}
