package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newsintel/internal/core"
)

// Store is the SQLite-backed persistent article store. Stage transitions
// are conditional writes keyed on the current status, which is what gives
// the orchestrator its at-most-one-in-flight guarantee across processes.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a store instance with a SQLite database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "newsintel.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		fingerprint TEXT PRIMARY KEY,
		source TEXT,
		url TEXT,
		category TEXT,
		country TEXT,
		published_at DATETIME,
		language TEXT,
		raw_title TEXT,
		raw_body TEXT,
		title TEXT,
		body TEXT,
		keywords TEXT,
		sentiment_label TEXT,
		sentiment_confidence REAL,
		summary TEXT,
		status TEXT NOT NULL,
		failed_stage TEXT,
		updated_at DATETIME
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles (status);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published ON articles (published_at);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source);`,
	}

	if _, err := s.db.Exec(articlesTable); err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}
	for _, index := range indexes {
		if _, err := s.db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ingest records a freshly normalized article. First sight of a
// fingerprint inserts it; a Failed article is reset to Ingested with the
// new scrape's content so enrichment retries from scratch. Any other
// existing status is left untouched (idempotent by fingerprint).
// The returned bool reports whether enrichment should run.
func (s *Store) Ingest(ctx context.Context, article *core.Article) (bool, error) {
	keywords, _ := json.Marshal(article.Keywords)

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO articles
	(fingerprint, source, url, category, country, published_at, language,
	 raw_title, raw_body, title, body, keywords,
	 sentiment_label, sentiment_confidence, summary, status, failed_stage, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, '', ?, '', ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		source = excluded.source,
		url = excluded.url,
		category = excluded.category,
		country = excluded.country,
		published_at = excluded.published_at,
		language = excluded.language,
		raw_title = excluded.raw_title,
		raw_body = excluded.raw_body,
		title = excluded.title,
		body = excluded.body,
		keywords = excluded.keywords,
		sentiment_label = NULL,
		sentiment_confidence = NULL,
		summary = '',
		status = excluded.status,
		failed_stage = '',
		updated_at = excluded.updated_at
	WHERE articles.status = ?`,
		article.Fingerprint, article.Source, article.URL, article.Category, article.Country,
		article.PublishedAt, article.Language,
		article.RawTitle, article.RawBody, article.Title, article.Body, string(keywords),
		core.StatusIngested, article.UpdatedAt,
		core.StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to ingest article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read ingest result: %w", err)
	}

	return affected > 0, nil
}

// Get returns the article stored under fingerprint.
func (s *Store) Get(ctx context.Context, fingerprint string) (*core.Article, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM articles WHERE fingerprint = ?`, fingerprint)
	return scanArticle(row)
}

// CommitSentiment advances Ingested -> Classified, recording the label.
// A concurrent transition surfaces as core.ErrStoreConflict.
func (s *Store) CommitSentiment(ctx context.Context, fingerprint string, sentiment core.Sentiment) error {
	return s.transition(ctx, fingerprint, core.StatusIngested, `
		UPDATE articles
		SET sentiment_label = ?, sentiment_confidence = ?, status = ?, updated_at = ?
		WHERE fingerprint = ? AND status = ?`,
		sentiment.Label, sentiment.Confidence, core.StatusClassified, time.Now().UTC(),
		fingerprint, core.StatusIngested,
	)
}

// CommitSummary advances Classified -> Summarized, recording the summary.
func (s *Store) CommitSummary(ctx context.Context, fingerprint, summary string) error {
	return s.transition(ctx, fingerprint, core.StatusClassified, `
		UPDATE articles
		SET summary = ?, status = ?, updated_at = ?
		WHERE fingerprint = ? AND status = ?`,
		summary, core.StatusSummarized, time.Now().UTC(),
		fingerprint, core.StatusClassified,
	)
}

// CommitReady advances Summarized -> Ready.
func (s *Store) CommitReady(ctx context.Context, fingerprint string) error {
	return s.transition(ctx, fingerprint, core.StatusSummarized, `
		UPDATE articles
		SET status = ?, updated_at = ?
		WHERE fingerprint = ? AND status = ?`,
		core.StatusReady, time.Now().UTC(),
		fingerprint, core.StatusSummarized,
	)
}

// MarkFailed moves the article into the Failed state from the expected
// stage, retaining every output committed so far.
func (s *Store) MarkFailed(ctx context.Context, fingerprint string, expected core.EnrichmentStatus, stage string) error {
	return s.transition(ctx, fingerprint, expected, `
		UPDATE articles
		SET status = ?, failed_stage = ?, updated_at = ?
		WHERE fingerprint = ? AND status = ?`,
		core.StatusFailed, stage, time.Now().UTC(),
		fingerprint, expected,
	)
}

// transition runs a conditional update and maps a zero-row result to
// ErrNotFound or ErrStoreConflict.
func (s *Store) transition(ctx context.Context, fingerprint string, expected core.EnrichmentStatus, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article %s: %w", fingerprint, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM articles WHERE fingerprint = ?`, fingerprint).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("article %s: %w", fingerprint, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check article %s: %w", fingerprint, err)
	}

	return fmt.Errorf("article %s at stage %s, expected %s: %w", fingerprint, status, expected, core.ErrStoreConflict)
}

// ListByStatus returns up to limit articles at the given stage, oldest
// update first so stalled articles surface early.
func (s *Store) ListByStatus(ctx context.Context, status core.EnrichmentStatus, limit int) ([]core.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM articles WHERE status = ? ORDER BY updated_at ASC LIMIT ?`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// FeedFilter narrows ListReady results. Zero values match everything.
type FeedFilter struct {
	Category string
	Country  string
	Language string
}

// ListReady returns Ready articles matching the filter, most recent
// first. This is the only listing the presentation layer sees.
func (s *Store) ListReady(ctx context.Context, filter FeedFilter, limit int) ([]core.Article, error) {
	query := selectColumns + ` FROM articles WHERE status = ?`
	args := []any{core.StatusReady}

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, strings.ToLower(filter.Country))
	}
	if filter.Language != "" {
		query += ` AND language = ?`
		args = append(args, strings.ToLower(filter.Language))
	}

	query += ` ORDER BY published_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SourceSentiment aggregates the sentiment distribution per source over
// classified articles. Derived view only; per-article labels stay
// authoritative.
func (s *Store) SourceSentiment(ctx context.Context) ([]core.SourceSentiment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source,
			COUNT(*),
			SUM(CASE WHEN sentiment_label = 'positive' THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_label = 'negative' THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_label = 'neutral' THEN 1 ELSE 0 END),
			AVG(CASE WHEN sentiment_label = 'positive' THEN sentiment_confidence
				WHEN sentiment_label = 'negative' THEN -sentiment_confidence
				ELSE 0 END)
		FROM articles
		WHERE sentiment_label IS NOT NULL
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate source sentiment: %w", err)
	}
	defer rows.Close()

	var results []core.SourceSentiment
	for rows.Next() {
		var ss core.SourceSentiment
		var avg sql.NullFloat64
		if err := rows.Scan(&ss.Source, &ss.ArticleCount, &ss.PositiveCount, &ss.NegativeCount, &ss.NeutralCount, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan source sentiment: %w", err)
		}
		ss.AverageScore = avg.Float64
		results = append(results, ss)
	}

	return results, rows.Err()
}

const selectColumns = `
	SELECT fingerprint, source, url, category, country, published_at, language,
	       raw_title, raw_body, title, body, keywords,
	       sentiment_label, sentiment_confidence, summary, status, failed_stage, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var article core.Article
	var keywords string
	var label sql.NullString
	var confidence sql.NullFloat64

	err := row.Scan(
		&article.Fingerprint, &article.Source, &article.URL, &article.Category, &article.Country,
		&article.PublishedAt, &article.Language,
		&article.RawTitle, &article.RawBody, &article.Title, &article.Body, &keywords,
		&label, &confidence, &article.Summary, &article.Status, &article.FailedStage, &article.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	if keywords != "" {
		_ = json.Unmarshal([]byte(keywords), &article.Keywords)
	}
	if label.Valid {
		article.Sentiment = &core.Sentiment{
			Label:      core.SentimentLabel(label.String),
			Confidence: confidence.Float64,
		}
	}

	return &article, nil
}

func scanArticles(rows *sql.Rows) ([]core.Article, error) {
	var articles []core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}
