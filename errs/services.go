package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Third-Party & Upstream Errors
var (
	ErrUpstream          = errors.New("upstream unavailable")
	ErrMediaUpload       = errors.New("media upload failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Data Consistency Errors. These are logged and counted, never returned to a caller.
var (
	ErrConsistency       = errors.New("consistency warning")
	ErrOrphanedComment   = errors.New("orphaned comment")
	ErrLikeCountDiverged = errors.New("like counter diverged")
)

// NewUpstreamError is the retryable failure of a media host or store.
func NewUpstreamError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrUpstream,
		Details:    fmt.Sprintf("%s is unavailable", service),
		Cause:      cause,
	}
}

func NewMediaUploadError(provider string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrMediaUpload,
		kinds:      []error{ErrUpstream},
		Details:    fmt.Sprintf("Upload to %s failed", provider),
		Cause:      cause,
		Field:      "file",
	}
}

func NewRateLimitError(retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Rate limit exceeded. Retry after %v", retryAfter),
		Field:      "rate_limit",
	}
}

// NewConsistencyWarning describes a detected divergence between denormalized and
// authoritative state.
func NewConsistencyWarning(kind error, entity, details string) error {
	return fmt.Errorf("%w: %w on %s: %s", ErrConsistency, kind, entity, details)
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

func IsMediaUploadError(err error) bool {
	return errors.Is(err, ErrMediaUpload)
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsConsistencyWarning(err error) bool {
	return errors.Is(err, ErrConsistency)
}
