package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
	"github.com/google/uuid"
)

const (
	// maxFilenameAttempts bounds the identifier-collision retry loop.
	maxFilenameAttempts = 10

	// shortIdentLength is used for the first collision attempts,
	// longIdentLength from attempt longIdentFromAttempt on.
	shortIdentLength     = 6
	longIdentLength      = 8
	longIdentFromAttempt = 5
)

// Replicator writes one blob to both backends. Implemented by
// provider.Replicator.
type Replicator interface {
	Replicate(ctx context.Context, data []byte, mimeHint string) (interfaces.ReplicationResult, error)
}

// UploadResult is returned to callers after a successful commit.
type UploadResult struct {
	Filename     string
	PublicURL    string
	OriginalName string
	Providers    interfaces.ProviderStatus
}

// Uploader glues replication, identifier allocation, and record persistence
// into one write transaction.
type Uploader struct {
	replicator Replicator
	store      interfaces.RecordStore
	log        *slog.Logger

	// generate allocates candidate identifiers; swappable in tests.
	generate func(length int) (string, error)
}

// NewUploader creates an upload orchestrator.
func NewUploader(replicator Replicator, store interfaces.RecordStore, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		replicator: replicator,
		store:      store,
		log:        logger,
		generate:   GenerateIdentifier,
	}
}

// Commit replicates data to both backends, allocates a unique public
// filename, and persists the record. buildURL derives the public URL for a
// candidate filename.
//
// Replication errors propagate unchanged; nothing is persisted when both
// backends fail. Filename collisions are retried up to maxFilenameAttempts
// times with fresh identifiers, after which Commit fails with
// interfaces.ErrIdentifierSpaceExhausted. Any non-collision persistence
// failure aborts immediately. Blobs already uploaded to the backends are
// not rolled back when persistence ultimately fails.
func (u *Uploader) Commit(ctx context.Context, data []byte, originalName, mimeHint string, buildURL func(filename string) string) (*UploadResult, error) {
	start := time.Now()

	replication, err := u.replicator.Replicate(ctx, data, mimeHint)
	if err != nil {
		return nil, err
	}

	ext := path.Ext(originalName)
	recordID := uuid.New().String()

	for attempt := 1; attempt <= maxFilenameAttempts; attempt++ {
		length := shortIdentLength
		if attempt >= longIdentFromAttempt {
			length = longIdentLength
		}

		ident, err := u.generate(length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate identifier: %w", err)
		}
		filename := ident + ext

		record := &interfaces.BlobRecord{
			ID:              recordID,
			Filename:        filename,
			OriginalName:    originalName,
			Size:            int64(len(data)),
			MimeType:        mimeHint,
			CloudSkyURL:     replication.CloudSkyURL,
			CatboxURL:       replication.CatboxURL,
			PrimaryProvider: replication.Primary,
			PublicURL:       buildURL(filename),
		}

		err = u.store.Insert(ctx, record)
		if errors.Is(err, interfaces.ErrDuplicateFilename) {
			u.log.Warn("Filename collision, retrying",
				slog.String("filename", filename),
				slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to persist record: %w", err)
		}

		u.log.Info("Upload committed",
			slog.String("filename", filename),
			slog.String("primary", replication.Primary.String()),
			slog.Int64("size", record.Size),
			slog.Int("attempts", attempt),
			slog.Duration("duration", time.Since(start)))

		return &UploadResult{
			Filename:     filename,
			PublicURL:    record.PublicURL,
			OriginalName: originalName,
			Providers:    replication.Status(),
		}, nil
	}

	u.log.Error("Identifier space exhausted",
		slog.String("original_name", originalName),
		slog.Int("attempts", maxFilenameAttempts))

	return nil, interfaces.ErrIdentifierSpaceExhausted
}
