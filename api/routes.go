package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes mounts the public API, the admin endpoints and the operational probes.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, limiter *rateLimiter, gatherer prometheus.Gatherer) {
	r.Get("/health", handlers.adminHandler.health())

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(authMiddleware.authenticate)

		r.Group(func(r chi.Router) {
			r.Use(limiter.limitWrites)

			// Project Handler endpoints
			r.Get("/projects", handlers.projectHandler.listProjects())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Get("/projects/{projectId}", handlers.projectHandler.getProject())
			r.Post("/projects/{projectId}/like", handlers.projectHandler.toggleLike())
			r.Get("/projects/{projectId}/likes", handlers.projectHandler.getLikes())

			// Comment Handler endpoints
			r.Post("/comments", handlers.commentHandler.createComment())
			r.Get("/comments/{projectId}", handlers.commentHandler.listComments())

			// Chat Handler endpoints
			r.Post("/chats", handlers.chatHandler.sendMessage())
			r.Get("/chats/{recipientId}", handlers.chatHandler.getHistory())

			// User Handler endpoints
			r.Post("/users", handlers.userHandler.upsertUser())
			r.Get("/users/{userId}", handlers.userHandler.getUser())
			r.Get("/users/{userId}/projects", handlers.userHandler.listUserProjects())
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireAdmin)
			r.Post("/admin/reconcile", handlers.adminHandler.reconcile())
		})
	})
}
