package models

import "time"

// RemovalRequest is the body of POST /api/remove-background.
type RemovalRequest struct {
	// ImageData is a base64 image, with or without a data URI prefix.
	ImageData string `json:"imageData"`
}

// RemovalResult holds either ProcessedImageURL (Success true) or Error
// (Success false), never both.
type RemovalResult struct {
	Success           bool   `json:"success"`
	ProcessedImageURL string `json:"processedImageUrl,omitempty"`
	Error             string `json:"error,omitempty"`
	// Degraded marks a successful response that echoes the input because
	// the local transform could not process it.
	Degraded bool `json:"degraded,omitempty"`
}

func Processed(dataURI string) RemovalResult {
	return RemovalResult{Success: true, ProcessedImageURL: dataURI}
}

func Failed(msg string) RemovalResult {
	return RemovalResult{Success: false, Error: msg}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Message   string    `json:"message"`
	Method    string    `json:"method"`
	HasAPIKey bool      `json:"hasApiKey"`
	Timestamp time.Time `json:"timestamp"`
}
