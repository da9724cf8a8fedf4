package pipeline

import (
	"context"

	"newsintel/internal/core"
)

// ArticleStore persists articles and enforces the enrichment state machine.
// Every transition is conditional on the expected current status; a
// concurrent writer losing that race gets core.ErrStoreConflict.
type ArticleStore interface {
	// Ingest inserts a new article or resets a failed one. The boolean
	// reports whether the article should (re-)enter enrichment.
	Ingest(ctx context.Context, article *core.Article) (bool, error)

	// Get loads an article by fingerprint.
	Get(ctx context.Context, fingerprint string) (*core.Article, error)

	// CommitSentiment moves ingested -> classified, storing the result.
	CommitSentiment(ctx context.Context, fingerprint string, sentiment core.Sentiment) error

	// CommitSummary moves classified -> summarized, storing the summary.
	CommitSummary(ctx context.Context, fingerprint string, summary string) error

	// CommitReady moves summarized -> ready.
	CommitReady(ctx context.Context, fingerprint string) error

	// MarkFailed moves the article to the failed state, recording which
	// stage gave up.
	MarkFailed(ctx context.Context, fingerprint string, expected core.EnrichmentStatus, stage string) error

	// ListByStatus returns articles in the given state, oldest first.
	ListByStatus(ctx context.Context, status core.EnrichmentStatus, limit int) ([]core.Article, error)
}

// Classifier assigns a sentiment to an article. A transient outage is
// reported as core.ErrClassificationUnavailable.
type Classifier interface {
	Classify(ctx context.Context, article *core.Article) (*core.Sentiment, error)
}

// Summarizer produces a bounded-length summary of article text. A
// transient outage is reported as core.ErrSummarizationUnavailable.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
