package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model used for enrichment calls.
	DefaultModel = "gemini-flash-lite-latest"

	sentimentPromptTemplate = `Classify the sentiment of the following news article text.
Respond with only a JSON object of class probabilities, for example:
{"positive": 0.80, "negative": 0.05, "neutral": 0.15}
The three values must sum to 1.

Text:
%s`

	summaryPromptTemplate = `Summarize the following news article in at most %d words.
Write plain prose, no headings, no bullet points, no meta-commentary.

Text:
%s`

	combinePromptTemplate = `The following are summaries of consecutive parts of one news article.
Combine them into a single coherent summary of at most %d words.
Write plain prose, no headings, no bullet points.

Partial summaries:
%s`

	translatePromptTemplate = `Translate the following text from %s to %s.
Respond with only the translation.

Text:
%s`
)

// SentimentScores holds per-class probabilities returned by the model.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Client wraps the Gemini API for the enrichment stages. Generation runs
// at temperature 0 so repeated calls on identical input and model version
// are comparable.
type Client struct {
	modelName   string
	temperature float32
	maxTokens   int32
	gClient     *genai.Client
}

// NewClient creates a new model endpoint client.
// The API key is read from (in order): GEMINI_API_KEY and alternatives,
// then the ai.gemini.api_key config key.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.gemini.api_key")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName:   modelName,
		temperature: float32(viper.GetFloat64("ai.gemini.temperature")),
		maxTokens:   viper.GetInt32("ai.gemini.max_tokens"),
		gClient:     gClient,
	}, nil
}

// Close releases the client. The SDK holds no persistent connection, but
// callers defer this so the client lifecycle stays explicit.
func (c *Client) Close() error {
	c.gClient = nil
	return nil
}

// generateContent wraps the SDK's GenerateContent call with deterministic
// generation settings.
func (c *Client) generateContent(ctx context.Context, modelName, prompt string) (string, error) {
	if modelName == "" {
		modelName = c.modelName
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// ScoreSentiment asks the model for per-class sentiment probabilities.
// modelName may be empty to use the client's default model.
func (c *Client) ScoreSentiment(ctx context.Context, text, modelName string) (SentimentScores, error) {
	prompt := fmt.Sprintf(sentimentPromptTemplate, text)

	response, err := c.generateContent(ctx, modelName, prompt)
	if err != nil {
		return SentimentScores{}, err
	}

	scores, err := parseSentimentResponse(response)
	if err != nil {
		return SentimentScores{}, fmt.Errorf("model returned unparseable sentiment response: %w", err)
	}

	return scores, nil
}

// GenerateSummary asks the model for a summary of at most targetWords words.
func (c *Client) GenerateSummary(ctx context.Context, text string, targetWords int) (string, error) {
	prompt := fmt.Sprintf(summaryPromptTemplate, targetWords, text)

	summary, err := c.generateContent(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

// CombineSummaries merges chunk summaries of one article into a single
// summary of at most targetWords words.
func (c *Client) CombineSummaries(ctx context.Context, partials []string, targetWords int) (string, error) {
	joined := "- " + strings.Join(partials, "\n- ")
	prompt := fmt.Sprintf(combinePromptTemplate, targetWords, joined)

	summary, err := c.generateContent(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

// Translate translates text between language codes, used for routing
// unsupported languages through the pivot language before scoring.
func (c *Client) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	prompt := fmt.Sprintf(translatePromptTemplate, fromLang, toLang, text)

	translated, err := c.generateContent(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(translated), nil
}

// parseSentimentResponse extracts the probability JSON from the model
// response, tolerating surrounding prose or markdown fences.
func parseSentimentResponse(response string) (SentimentScores, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return SentimentScores{}, fmt.Errorf("no JSON object in response")
	}

	var scores SentimentScores
	if err := json.Unmarshal([]byte(response[start:end+1]), &scores); err != nil {
		return SentimentScores{}, err
	}

	total := scores.Positive + scores.Negative + scores.Neutral
	if total <= 0 {
		return SentimentScores{}, fmt.Errorf("probabilities sum to %f", total)
	}

	// Renormalize mild drift so downstream comparisons work on a proper
	// distribution.
	scores.Positive /= total
	scores.Negative /= total
	scores.Neutral /= total

	return scores, nil
}
