package api

import "github.com/rpupo63/campus-connect-backend/models"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	commentHandler commentHandler
	chatHandler    chatHandler
	userHandler    userHandler
	adminHandler   adminHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error     string `json:"error" example:"missing required field"`
	Status    string `json:"status" example:"error"`
	Field     string `json:"field,omitempty" example:"title"`
	Details   string `json:"details,omitempty" example:"Missing required field: title"`
	Retryable bool   `json:"retryable,omitempty" example:"false"`
}

// LikeRequest is the body of a like toggle
type LikeRequest struct {
	UserID string `json:"userId" example:"user_2abc"`
}

// LikeResponse is the result of a like toggle
type LikeResponse struct {
	Project *models.Project `json:"project"`
	Liked   bool            `json:"liked"`
}

// CommentRequest is the body of a new comment
type CommentRequest struct {
	Text      string `json:"text" example:"Nice work!"`
	ProjectID string `json:"projectId" example:"6651f0c2a1b2c3d4e5f60718"`
	UserID    string `json:"userId" example:"user_2abc"`
}

// MessageRequest is the body of a new direct message
type MessageRequest struct {
	RecipientID string `json:"recipientId" example:"user_2def"`
	Content     string `json:"content" example:"Want to team up?"`
	UserID      string `json:"userId" example:"user_2abc"`
}

// UserRequest is a profile synced from the identity provider
type UserRequest struct {
	ID       string `json:"id" example:"user_2abc"`
	Name     string `json:"name" example:"Ada Lovelace"`
	ImageURL string `json:"imageUrl" example:"https://img.clerk.com/ada.png"`
	Email    string `json:"email,omitempty" example:"ada@campus.edu"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Uptime string `json:"uptime" example:"1h2m3s"`
	Store  string `json:"store" example:"postgres"`
}
