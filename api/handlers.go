package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/services"
)

// Dependencies are the stores and services the router serves.
type Dependencies struct {
	Database   database.Database
	Feed       *services.FeedService
	Chat       *services.ChatService
	Users      *services.UserDirectory
	Reconciler *services.Reconciler
	Metrics    *services.Metrics
	// Gatherer backs /metrics. Nil means the process-wide default registry.
	Gatherer prometheus.Gatherer
	// Verifier is optional. Without it requests are identified by the userId they carry.
	Verifier services.IdentityVerifier
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, maxUploadBytes int64, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(deps.Feed, maxUploadBytes),
		commentHandler: newCommentHandler(deps.Feed),
		chatHandler:    newChatHandler(deps.Chat),
		userHandler:    newUserHandler(deps.Users, deps.Feed),
		adminHandler:   newAdminHandler(deps.Reconciler, startupTime, deps.Database.Kind()),
	}
}
