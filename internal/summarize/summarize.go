package summarize

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"newsintel/internal/core"
)

// ModelClient is the slice of the model endpoint the summarizer needs.
type ModelClient interface {
	// GenerateSummary summarizes text into at most targetWords words.
	GenerateSummary(ctx context.Context, text string, targetWords int) (string, error)

	// CombineSummaries merges chunk summaries into one bounded summary.
	CombineSummaries(ctx context.Context, partials []string, targetWords int) (string, error)
}

// Options configures the summarizer behavior
type Options struct {
	TargetWords int // Target summary length in words
	MaxChars    int // Hard upper bound on the returned summary
	ChunkChars  int // Maximum characters sent to the model per call
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		TargetWords: 150,
		MaxChars:    1200,
		ChunkChars:  4000,
	}
}

// Summarizer produces bounded-length abstractive summaries. Inputs already
// shorter than the target are returned unchanged, and the output never
// exceeds MaxChars regardless of input size.
type Summarizer struct {
	model ModelClient
	opts  Options
}

// NewSummarizer creates a summarizer backed by the given model endpoint.
func NewSummarizer(model ModelClient, opts Options) *Summarizer {
	if opts.TargetWords <= 0 {
		opts = DefaultOptions()
	}
	return &Summarizer{model: model, opts: opts}
}

// Summarize returns a summary of text bounded by the configured cap.
// Model failures are reported as core.ErrSummarizationUnavailable; the
// orchestrator owns the bounded retry around this call.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no content to summarize: %w", core.ErrMalformedInput)
	}

	// Short inputs are never "summarized" into something longer than the
	// source; they pass through untouched.
	if len(strings.Fields(text)) <= s.opts.TargetWords && len(text) <= s.opts.MaxChars {
		return text, nil
	}

	var summary string
	var err error
	if len(text) <= s.opts.ChunkChars {
		summary, err = s.model.GenerateSummary(ctx, text, s.opts.TargetWords)
	} else {
		summary, err = s.summarizeChunked(ctx, text)
	}
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w: %v", core.ErrSummarizationUnavailable, err)
	}

	return Clamp(summary, s.opts.MaxChars), nil
}

// summarizeChunked handles inputs exceeding the model's context window:
// the text is split into sentence-aligned chunks, each chunk is summarized
// independently, and the chunk summaries are combined (recursively, if the
// partials themselves exceed the window) into one final summary.
func (s *Summarizer) summarizeChunked(ctx context.Context, text string) (string, error) {
	chunks := ChunkSentences(text, s.opts.ChunkChars)

	partials := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		partial, err := s.model.GenerateSummary(ctx, chunk, s.opts.TargetWords)
		if err != nil {
			return "", err
		}
		partials = append(partials, partial)
	}

	for len(partials) > 1 {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		combined, err := s.combineBatches(ctx, partials)
		if err != nil {
			return "", err
		}

		// A round that batched nothing means every partial on its own
		// overflows the window, so further rounds would never shrink the
		// slice. Force one combine over all of them instead of spinning.
		if len(combined) >= len(partials) {
			return s.model.CombineSummaries(ctx, partials, s.opts.TargetWords)
		}
		partials = combined
	}

	return partials[0], nil
}

// combineBatches merges partial summaries in groups small enough for one
// model call each.
func (s *Summarizer) combineBatches(ctx context.Context, partials []string) ([]string, error) {
	var result []string

	batch := make([]string, 0, len(partials))
	batchSize := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if len(batch) == 1 {
			result = append(result, batch[0])
		} else {
			combined, err := s.model.CombineSummaries(ctx, batch, s.opts.TargetWords)
			if err != nil {
				return err
			}
			result = append(result, combined)
		}
		batch = batch[:0]
		batchSize = 0
		return nil
	}

	for _, partial := range partials {
		if batchSize+len(partial) > s.opts.ChunkChars && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, partial)
		batchSize += len(partial)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return result, nil
}

// Clamp enforces the hard character bound, cutting at a sentence boundary
// when one exists within the limit. The cut never splits a rune, so the
// result is valid UTF-8 even for scripts without ASCII terminators.
func Clamp(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxChars {
		return text
	}

	cut := text[:maxChars]
	for len(cut) > 0 && !utf8.RuneStart(cut[len(cut)-1]) {
		cut = cut[:len(cut)-1]
	}
	if r, size := utf8.DecodeLastRuneInString(cut); r == utf8.RuneError && size <= 1 {
		cut = cut[:len(cut)-1]
	}

	if idx := strings.LastIndexAny(cut, sentenceTerminators); idx > maxChars/2 {
		_, size := utf8.DecodeRuneInString(cut[idx:])
		return strings.TrimSpace(cut[:idx+size])
	}

	// No usable sentence boundary; cut at the last word instead.
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return strings.TrimSpace(cut[:idx])
	}
	return cut
}
