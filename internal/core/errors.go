package core

import "errors"

// Error taxonomy for the pipeline. Stage code wraps these sentinels with
// fmt.Errorf("...: %w", err) so callers can branch with errors.Is.
var (
	// ErrMalformedInput marks a raw record whose title and body are both
	// empty after cleaning. Permanent: the record is dropped, not retried.
	ErrMalformedInput = errors.New("malformed input")

	// ErrClassificationUnavailable marks a transient sentiment model
	// failure. Retried with backoff up to the configured attempt cap.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrSummarizationUnavailable marks a transient summarization model
	// failure. Same retry policy as classification.
	ErrSummarizationUnavailable = errors.New("summarization unavailable")

	// ErrStoreConflict marks a conditional write that found the article at
	// a different stage than expected. The stage transition is retried.
	ErrStoreConflict = errors.New("store conflict")

	// ErrProfileUnavailable marks a profile read failure. The recommender
	// falls back to content-only scoring instead of failing the request.
	ErrProfileUnavailable = errors.New("user profile unavailable")

	// ErrNotFound marks a fingerprint with no stored article.
	ErrNotFound = errors.New("article not found")
)

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrClassificationUnavailable) ||
		errors.Is(err, ErrSummarizationUnavailable) ||
		errors.Is(err, ErrStoreConflict)
}
