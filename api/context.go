package api

import (
	"context"
	"net/http"
	"strings"
)

type keyType string

const userIDKey keyType = "userID"

// ctxWithUserID adds a verified user ID to the context
func ctxWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ctxGetUserID retrieves the verified user ID, if the request carried a valid token
func ctxGetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// callerID is the verified subject when there is one, otherwise the id the client supplied.
func callerID(r *http.Request, supplied string) string {
	if userID, ok := ctxGetUserID(r.Context()); ok {
		return userID
	}
	return strings.TrimSpace(supplied)
}
