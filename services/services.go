// Package services holds the campus feed and messaging logic between the HTTP handlers and
// the stores, plus the integrations they call out to.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rpupo63/campus-connect-backend/errs"
)

const defaultStoreTimeout = 10 * time.Second

// storeCtx bounds a single store round trip.
func storeCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError classifies a store failure and counts the ones that become upstream errors.
func storeError(m *Metrics, operation, entity string, err error) error {
	if err == nil {
		return nil
	}
	classified := errs.NewDatabaseError(operation, entity, err)
	if errs.IsUpstream(classified) {
		m.RecordStoreError(operation + " " + entity)
	}
	return classified
}

// required returns a missing-field error when value is blank.
func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.NewMissingRequiredFieldError(field)
	}
	return nil
}
