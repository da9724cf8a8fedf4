package core

import "time"

// EnrichmentStatus tracks how far an article has progressed through the
// enrichment pipeline. Stages advance strictly in order; Failed is an
// absorbing state that a later re-ingestion of the same fingerprint can
// leave again.
type EnrichmentStatus string

const (
	StatusIngested   EnrichmentStatus = "ingested"
	StatusClassified EnrichmentStatus = "classified"
	StatusSummarized EnrichmentStatus = "summarized"
	StatusReady      EnrichmentStatus = "ready"
	StatusFailed     EnrichmentStatus = "failed"
)

// SentimentLabel is the discrete sentiment category assigned to an article.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment pairs a label with the classifier's confidence in it.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`      // One of positive/negative/neutral
	Confidence float64        `json:"confidence"` // Confidence in the label (0.0 to 1.0)
}

// Article is the canonical representation of one scraped news article.
// Identity is the content fingerprint; a re-scrape of the same URL with a
// changed title produces a new fingerprint and therefore a new article.
type Article struct {
	Fingerprint string    `json:"fingerprint"`  // Stable hash of source URL + normalized title
	Source      string    `json:"source"`       // Source name (e.g., "bbc", "aljazeera")
	URL         string    `json:"url"`          // Source URL the article was scraped from
	Category    string    `json:"category"`     // Editorial category (e.g., "sports", "geopolitics")
	Country     string    `json:"country"`      // Country code of the source edition
	PublishedAt time.Time `json:"published_at"` // Publication timestamp
	Language    string    `json:"language"`     // ISO 639-1 language code
	RawTitle    string    `json:"raw_title"`    // Title as scraped, before cleaning
	RawBody     string    `json:"raw_body"`     // Body as scraped, may contain markup
	Title       string    `json:"title"`        // Canonical cleaned title
	Body        string    `json:"body"`         // Canonical cleaned body text
	Keywords    []string  `json:"keywords"`     // Keywords extracted from the canonical text

	Sentiment *Sentiment       `json:"sentiment,omitempty"` // Nil until classified
	Summary   string           `json:"summary,omitempty"`   // Empty until summarized
	Status    EnrichmentStatus `json:"status"`
	// FailedStage names the stage that exhausted its retries when Status is
	// Failed ("classify" or "summarize"). Empty otherwise.
	FailedStage string    `json:"failed_stage,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enriched reports whether the article carries both enrichment outputs.
// Ready implies Enriched; Failed articles may carry a partial set.
func (a *Article) Enriched() bool {
	return a.Sentiment != nil && a.Summary != ""
}

// EnrichmentText is the canonical text fed to classification and
// summarization: the cleaned title and body together, so short-bodied
// articles still carry signal.
func (a *Article) EnrichmentText() string {
	switch {
	case a.Title == "":
		return a.Body
	case a.Body == "":
		return a.Title
	default:
		return a.Title + "\n\n" + a.Body
	}
}

// InteractionAction is the kind of signal a user left on an article.
type InteractionAction string

const (
	ActionView     InteractionAction = "view"
	ActionLike     InteractionAction = "like"
	ActionBookmark InteractionAction = "bookmark"
)

// Interaction is one entry of a user's ordered interaction log. The
// fingerprint is a weak reference: it may point at an article that has
// since been purged by store retention.
type Interaction struct {
	Fingerprint string            `json:"fingerprint"`
	Action      InteractionAction `json:"action"`
	Timestamp   time.Time         `json:"timestamp"`
}

// UserProfile holds the reader-side inputs to recommendation. The profile
// is owned by the external account system; the pipeline only reads it.
type UserProfile struct {
	UserID     string        `json:"user_id"`
	Categories []string      `json:"categories"` // Preferred categories
	Countries  []string      `json:"countries"`  // Preferred source countries
	Language   string        `json:"language"`   // Preferred language code
	History    []Interaction `json:"history"`    // Ordered interaction log, oldest first
}

// RecommendationScore is the ephemeral per (user, article) ranking score.
// It is computed at request time and never persisted by the pipeline.
type RecommendationScore struct {
	UserID        string    `json:"user_id"`
	Fingerprint   string    `json:"fingerprint"`
	Content       float64   `json:"content"`       // Content-based component (0.0 to 1.0)
	Collaborative float64   `json:"collaborative"` // Collaborative component (0.0 to 1.0)
	Value         float64   `json:"value"`         // Weighted blend of the two components
	ComputedAt    time.Time `json:"computed_at"`
}

// SourceSentiment is the derived per-source sentiment distribution used by
// dashboard views. It is computed from classified articles on demand and is
// read-only; per-article classification stays authoritative.
type SourceSentiment struct {
	Source        string  `json:"source"`
	ArticleCount  int     `json:"article_count"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	AverageScore  float64 `json:"average_score"` // Mean signed confidence (-1.0 to 1.0)
}
