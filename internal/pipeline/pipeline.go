package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsintel/internal/core"
	"newsintel/internal/logger"
	"newsintel/internal/normalize"
)

// Stage names recorded on failure so operators can see where an article
// got stuck.
const (
	StageIngest    = "ingest"
	StageClassify  = "classify"
	StageSummarize = "summarize"
	StageFinalize  = "finalize"
)

// Options configures orchestrator behavior.
type Options struct {
	Workers       int           // Max articles enriched concurrently
	RetryAttempts int           // Attempts per transient stage failure
	RetryBackoff  time.Duration // Base delay between attempts, doubled each retry
}

// DefaultOptions returns the default orchestration configuration.
func DefaultOptions() Options {
	return Options{
		Workers:       4,
		RetryAttempts: 3,
		RetryBackoff:  time.Second,
	}
}

// Orchestrator drives each article through the enrichment state machine:
// ingested -> classified -> summarized -> ready, with failed as the
// absorbing state for anything that exhausts its retries. One article's
// failure never blocks the rest of a batch.
type Orchestrator struct {
	store      ArticleStore
	normalizer *normalize.Normalizer
	classifier Classifier
	summarizer Summarizer
	locks      *fingerprintLocks
	opts       Options
}

// NewOrchestrator wires the enrichment pipeline together.
func NewOrchestrator(store ArticleStore, normalizer *normalize.Normalizer, classifier Classifier, summarizer Summarizer, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultOptions().RetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultOptions().RetryBackoff
	}
	return &Orchestrator{
		store:      store,
		normalizer: normalizer,
		classifier: classifier,
		summarizer: summarizer,
		locks:      newFingerprintLocks(),
		opts:       opts,
	}
}

// BatchResult reports the outcome of one ingestion batch.
type BatchResult struct {
	BatchID   string   // Unique id of this ingestion run, for log correlation
	Ingested  int      // Articles accepted into the pipeline
	Skipped   int      // Duplicates already enriched or in flight
	Rejected  int      // Malformed records dropped at the door
	Ready     int      // Articles that reached the ready state
	Failed    []string // Fingerprints that ended in the failed state
	Malformed []error  // Per-record normalization errors
}

// IngestBatch normalizes and persists a batch of raw records, then enriches
// every accepted article concurrently. Malformed records are reported and
// skipped rather than failing the batch.
func (o *Orchestrator) IngestBatch(ctx context.Context, records []normalize.RawRecord) (*BatchResult, error) {
	log := logger.Get()
	result := &BatchResult{BatchID: uuid.NewString()}

	log.Info().Str("batch_id", result.BatchID).Int("records", len(records)).Msg("ingestion batch started")

	var accepted []string
	for _, record := range records {
		article, err := o.normalizer.Normalize(record)
		if err != nil {
			if errors.Is(err, core.ErrMalformedInput) {
				result.Rejected++
				result.Malformed = append(result.Malformed, err)
				log.Warn().Err(err).Msg("rejected malformed record")
				continue
			}
			return result, fmt.Errorf("normalization failed: %w", err)
		}

		enrich, err := o.store.Ingest(ctx, article)
		if err != nil {
			return result, fmt.Errorf("failed to ingest %s: %w", article.Fingerprint, err)
		}
		if !enrich {
			result.Skipped++
			continue
		}
		result.Ingested++
		accepted = append(accepted, article.Fingerprint)
	}

	ready, failed := o.enrichAll(ctx, accepted)
	result.Ready = ready
	result.Failed = failed

	log.Info().
		Str("batch_id", result.BatchID).
		Int("ingested", result.Ingested).
		Int("skipped", result.Skipped).
		Int("rejected", result.Rejected).
		Int("ready", result.Ready).
		Int("failed", len(result.Failed)).
		Msg("ingestion batch finished")
	return result, nil
}

// ResumePending re-enters enrichment for articles stranded mid-pipeline,
// e.g. after a crash. Failed articles are not resumed; they only re-enter
// through re-ingestion.
func (o *Orchestrator) ResumePending(ctx context.Context, limit int) (int, []string, error) {
	var fingerprints []string
	for _, status := range []core.EnrichmentStatus{core.StatusIngested, core.StatusClassified, core.StatusSummarized} {
		articles, err := o.store.ListByStatus(ctx, status, limit)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to list %s articles: %w", status, err)
		}
		for _, article := range articles {
			fingerprints = append(fingerprints, article.Fingerprint)
		}
	}

	ready, failed := o.enrichAll(ctx, fingerprints)
	return ready, failed, nil
}

// enrichAll runs Enrich for each fingerprint on a bounded worker pool.
// Stage errors are absorbed into the failed state per article, so the
// group only surfaces infrastructure errors.
func (o *Orchestrator) enrichAll(ctx context.Context, fingerprints []string) (ready int, failed []string) {
	log := logger.Get()

	type outcome struct {
		fingerprint string
		ready       bool
	}
	outcomes := make(chan outcome, len(fingerprints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, fingerprint := range fingerprints {
		fingerprint := fingerprint
		g.Go(func() error {
			err := o.Enrich(gctx, fingerprint)
			if err != nil {
				log.Error().Err(err).Str("fingerprint", fingerprint).Msg("enrichment failed")
			}
			outcomes <- outcome{fingerprint: fingerprint, ready: err == nil}
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)

	for out := range outcomes {
		if out.ready {
			ready++
		} else {
			failed = append(failed, out.fingerprint)
		}
	}
	return ready, failed
}

// Enrich drives one article from its current state to ready. The
// per-fingerprint lock guarantees at most one enrichment flow per article
// in this process; the store's conditional transitions guarantee it across
// processes.
func (o *Orchestrator) Enrich(ctx context.Context, fingerprint string) error {
	unlock := o.locks.lock(fingerprint)
	defer unlock()

	log := logger.Get()

	article, err := o.store.Get(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}

	if article.Status == core.StatusIngested {
		if err := o.classifyStage(ctx, article); err != nil {
			return err
		}
		article.Status = core.StatusClassified
	}

	if article.Status == core.StatusClassified {
		if err := o.summarizeStage(ctx, article); err != nil {
			return err
		}
		article.Status = core.StatusSummarized
	}

	if article.Status == core.StatusSummarized {
		if err := o.store.CommitReady(ctx, fingerprint); err != nil {
			if errors.Is(err, core.ErrStoreConflict) {
				log.Warn().Str("fingerprint", fingerprint).Msg("lost finalize race, another writer advanced the article")
				return nil
			}
			return o.fail(ctx, article, StageFinalize, err)
		}
		article.Status = core.StatusReady
	}

	log.Debug().Str("fingerprint", fingerprint).Str("status", string(article.Status)).Msg("enrichment complete")
	return nil
}

// classifyStage runs the classifier with bounded retries and commits the
// sentiment.
func (o *Orchestrator) classifyStage(ctx context.Context, article *core.Article) error {
	var sentiment *core.Sentiment
	err := o.withRetry(ctx, article.Fingerprint, StageClassify, func() error {
		var cerr error
		sentiment, cerr = o.classifier.Classify(ctx, article)
		return cerr
	})
	if err != nil {
		return o.fail(ctx, article, StageClassify, err)
	}

	if err := o.store.CommitSentiment(ctx, article.Fingerprint, *sentiment); err != nil {
		if errors.Is(err, core.ErrStoreConflict) {
			return nil
		}
		return o.fail(ctx, article, StageClassify, err)
	}
	article.Sentiment = sentiment
	return nil
}

// summarizeStage runs the summarizer with bounded retries and commits the
// summary.
func (o *Orchestrator) summarizeStage(ctx context.Context, article *core.Article) error {
	var summary string
	err := o.withRetry(ctx, article.Fingerprint, StageSummarize, func() error {
		var serr error
		summary, serr = o.summarizer.Summarize(ctx, article.EnrichmentText())
		return serr
	})
	if err != nil {
		return o.fail(ctx, article, StageSummarize, err)
	}

	if err := o.store.CommitSummary(ctx, article.Fingerprint, summary); err != nil {
		if errors.Is(err, core.ErrStoreConflict) {
			return nil
		}
		return o.fail(ctx, article, StageSummarize, err)
	}
	article.Summary = summary
	return nil
}

// withRetry retries fn on transient stage errors with exponential backoff.
// Non-transient errors and context cancellation stop immediately.
func (o *Orchestrator) withRetry(ctx context.Context, fingerprint, stage string, fn func() error) error {
	log := logger.Get()

	var lastErr error
	backoff := o.opts.RetryBackoff
	for attempt := 1; attempt <= o.opts.RetryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !core.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == o.opts.RetryAttempts {
			break
		}

		log.Warn().
			Err(lastErr).
			Str("fingerprint", fingerprint).
			Str("stage", stage).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("transient stage failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("stage %s exhausted %d attempts: %w", stage, o.opts.RetryAttempts, lastErr)
}

// fail records the absorbing failed state, preserving the original stage
// error for the caller.
func (o *Orchestrator) fail(ctx context.Context, article *core.Article, stage string, cause error) error {
	if err := o.store.MarkFailed(ctx, article.Fingerprint, article.Status, stage); err != nil && !errors.Is(err, core.ErrStoreConflict) {
		return fmt.Errorf("failed to mark %s failed after %s error: %v (original: %w)", article.Fingerprint, stage, err, cause)
	}
	return cause
}
