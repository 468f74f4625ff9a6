package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline and RAG layers.
var (
	// ErrInvalidIdentifier means no video id could be parsed from a URL.
	ErrInvalidIdentifier = errors.New("no video id in URL")
	// ErrSourceNotFound means an expected artifact (audio file) is missing.
	ErrSourceNotFound = errors.New("source artifact not found")
	// ErrIndexNotFound means a query hit a namespace that was never built.
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrSessionNotFound means a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotReady means the video has no built index yet.
	ErrNotReady = errors.New("video not processed yet")
)

// AcquireCause classifies why the upstream source refused a download.
type AcquireCause string

const (
	CauseAccessDenied  AcquireCause = "access-denied"
	CauseUnavailable   AcquireCause = "unavailable"
	CausePrivate       AcquireCause = "private"
	CauseAgeRestricted AcquireCause = "age-restricted"
	CauseRateLimited   AcquireCause = "rate-limited"
	CauseUnknown       AcquireCause = "unknown"
)

// AcquisitionError reports that every download strategy was exhausted.
// Cause carries the most specific upstream failure signature seen.
type AcquisitionError struct {
	VideoID string
	Cause   AcquireCause
	Last    error
}

func (e *AcquisitionError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("acquisition failed for %s (%s): %v", e.VideoID, e.Cause, e.Last)
	}
	return fmt.Sprintf("acquisition failed for %s (%s)", e.VideoID, e.Cause)
}

func (e *AcquisitionError) Unwrap() error { return e.Last }

// GenerationError wraps a generation backend failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
