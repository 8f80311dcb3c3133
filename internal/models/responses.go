package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// QueryRequest represents the request body for the query endpoint
// @Description Mailbox question payload
type QueryRequest struct {
	Question  string  `json:"question" example:"what did the bank say about my mortgage"` // Free-text question
	TopK      int     `json:"top_k,omitempty" example:"5"`                                 // Optional retrieval width override
	Threshold float64 `json:"threshold,omitempty" example:"0.5"`                           // Optional similarity floor override
}

// ErrorResponse represents an error payload returned by any endpoint
// @Description Error payload
type ErrorResponse struct {
	Error string `json:"error" example:"question cannot be empty"` // Error message
}
