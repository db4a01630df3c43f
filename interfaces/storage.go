package interfaces

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when no record exists for the requested
	// filename. Distinct from ErrAllProvidersFailed so callers can tell
	// "never existed" from "currently unreachable".
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateFilename is returned by a record store when the filename
	// uniqueness constraint rejects an insert. This is the structured signal
	// the upload retry loop keys on.
	ErrDuplicateFilename = errors.New("filename already exists")

	// ErrIdentifierSpaceExhausted is returned after the maximum number of
	// consecutive filename collisions during an upload commit.
	ErrIdentifierSpaceExhausted = errors.New("failed to allocate a unique filename")

	// ErrSizeLimitExceeded is returned for uploads over the size ceiling,
	// before any backend call is made.
	ErrSizeLimitExceeded = errors.New("upload size limit exceeded")

	// ErrAllProvidersFailed is returned when a record exists but every
	// stored backend URL failed to serve the blob.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// ProviderError wraps a single backend's upload failure. It is never fatal
// to replication on its own; only the combined ReplicationError is.
type ProviderError struct {
	Provider ProviderID
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ReplicationError is returned when both backends reject the blob. It
// carries both underlying reasons.
type ReplicationError struct {
	CloudSkyErr error
	CatboxErr   error
}

func (e *ReplicationError) Error() string {
	return fmt.Sprintf("both providers failed: cloudsky: %v; catbox: %v", e.CloudSkyErr, e.CatboxErr)
}

// BlobProvider uploads a blob to one external backend and returns the
// durable URL it is served from. Implementations must not retry.
type BlobProvider interface {
	// Store pushes data to the backend. mimeHint is the caller-declared
	// content type and may be empty. Failures are *ProviderError.
	Store(ctx context.Context, data []byte, mimeHint string) (string, error)

	// ID returns the provider identifier used in records.
	ID() ProviderID

	// Name returns identifier for logging.
	Name() string
}

// RecordStore persists blob records keyed by filename. The store's
// uniqueness constraint on filename is the sole concurrency-control
// mechanism for identifier allocation.
type RecordStore interface {
	// Insert persists a record if no record with the same filename exists.
	// Returns ErrDuplicateFilename on a uniqueness violation; any other
	// error is a hard persistence failure.
	Insert(ctx context.Context, record *BlobRecord) error

	// GetByFilename returns the record for filename, or ErrRecordNotFound.
	GetByFilename(ctx context.Context, filename string) (*BlobRecord, error)
}
