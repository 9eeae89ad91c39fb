package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrDatabaseTimeout    = errors.New("database timeout")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrWriteConflict      = errors.New("write conflict")
)

// NewNotFound is the NotFoundError for a referenced entity that does not exist.
func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewDatabaseError classifies a store failure. Not-found and validation errors raised by a
// store pass through untouched; everything else is an UpstreamError.
func NewDatabaseError(operation, entity string, cause error) error {
	if cause == nil {
		return nil
	}

	var apiErr *ApiErr
	if errors.As(cause, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return apiErr
	}

	details := fmt.Sprintf("Failed to %s %s", operation, entity)
	errStr := cause.Error()
	switch {
	case errors.Is(cause, context.DeadlineExceeded), strings.Contains(errStr, "timeout"):
		return &ApiErr{
			StatusCode: http.StatusServiceUnavailable,
			err:        ErrDatabaseTimeout,
			kinds:      []error{ErrUpstream},
			Details:    details,
			Cause:      cause,
		}
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "server selection"):
		return &ApiErr{
			StatusCode: http.StatusServiceUnavailable,
			err:        ErrDatabaseConnection,
			kinds:      []error{ErrUpstream},
			Details:    details,
			Cause:      cause,
		}
	case errors.Is(cause, ErrWriteConflict):
		return &ApiErr{
			StatusCode: http.StatusServiceUnavailable,
			err:        ErrWriteConflict,
			kinds:      []error{ErrUpstream},
			Details:    details,
			Cause:      cause,
		}
	}

	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrDatabaseQuery,
		kinds:      []error{ErrUpstream},
		Details:    details,
		Cause:      cause,
	}
}

func NewTransactionFailedError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrTransactionFailed,
		kinds:      []error{ErrUpstream},
		Details:    fmt.Sprintf("Transaction failed during %s", operation),
		Cause:      cause,
		Field:      "transaction",
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDatabaseTimeoutError(err error) bool {
	return errors.Is(err, ErrDatabaseTimeout)
}
