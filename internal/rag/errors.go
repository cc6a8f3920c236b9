package rag

import "errors"

// Error taxonomy for the ingestion and answer pipelines. Handlers map these
// to user-facing messages; anything else surfaces as a generic failure.
var (
	// ErrMissingAPIKey means the organization has not configured its OpenAI
	// key. Precondition failure, checked before any network call.
	ErrMissingAPIKey = errors.New("organization has no OpenAI API key configured")

	// ErrNoFiles means the chat room storage namespace holds no real files.
	ErrNoFiles = errors.New("no files uploaded for this chat room")

	// ErrNoChunks means every uploaded file failed extraction.
	ErrNoChunks = errors.New("no text could be extracted from the uploaded files")

	// ErrIngestRunning means another ingestion run holds the per-room lock.
	ErrIngestRunning = errors.New("ingestion already in progress for this chat room")

	// Per-file errors, tolerated during ingestion (file skipped).
	ErrFetch      = errors.New("document fetch failed")
	ErrExtraction = errors.New("document extraction failed")

	// Upstream provider errors.
	ErrCredential  = errors.New("provider rejected the API key")
	ErrRateLimited = errors.New("provider rate limit exceeded")
	ErrProvider    = errors.New("provider request failed")
)
