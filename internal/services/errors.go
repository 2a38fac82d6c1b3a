// Package services holds the application logic behind the HTTP handlers:
// document ingestion and listing, the system prompt, and the retrieval
// augmented chat flow. This file centralizes service-level error values so
// handlers can map them to HTTP results consistently.
package services

import "errors"

var (
	// ErrLLMNotConfigured is returned before any model call when no model
	// credential is configured.
	ErrLLMNotConfigured = errors.New("LLM is not configured: set an API key for the selected provider")

	// ErrModelFailed wraps any error reported by the model provider.
	ErrModelFailed = errors.New("failed to get response")

	// ErrEmptyMessage is returned when a chat request has no message text.
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyPrompt is returned when saving a blank system prompt.
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrDocumentNotFound covers both unknown ids and documents the caller
	// may not delete.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNoFile is returned when an upload carries no file.
	ErrNoFile = errors.New("no file uploaded")
)
