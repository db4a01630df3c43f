package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
)

// Replicator fans one blob out to both backends concurrently and collects
// both outcomes independently. One backend's failure never cancels or
// delays collection of the other's result, and no backend is ever retried
// within a single replication call.
type Replicator struct {
	cloudsky interfaces.BlobProvider
	catbox   interfaces.BlobProvider
	log      *slog.Logger
}

// NewReplicator creates a replicator over the two configured providers.
func NewReplicator(cloudsky, catbox interfaces.BlobProvider, logger *slog.Logger) *Replicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replicator{
		cloudsky: cloudsky,
		catbox:   catbox,
		log:      logger,
	}
}

// storeOutcome is one branch's settled result.
type storeOutcome struct {
	url string
	err error
}

// Replicate uploads data to both backends and derives the primary provider.
// CloudSky is primary whenever its upload succeeded; Catbox becomes primary
// only when CloudSky failed. Replicate fails only when both backends fail,
// returning a *interfaces.ReplicationError with both reasons.
func (r *Replicator) Replicate(ctx context.Context, data []byte, mimeHint string) (interfaces.ReplicationResult, error) {
	start := time.Now()

	var (
		wg       sync.WaitGroup
		cloudsky storeOutcome
		catbox   storeOutcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		cloudsky.url, cloudsky.err = r.cloudsky.Store(ctx, data, mimeHint)
	}()
	go func() {
		defer wg.Done()
		catbox.url, catbox.err = r.catbox.Store(ctx, data, mimeHint)
	}()
	wg.Wait()

	if cloudsky.err != nil {
		r.log.Warn("CloudSky upload failed", "err", cloudsky.err)
	}
	if catbox.err != nil {
		r.log.Warn("Catbox upload failed", "err", catbox.err)
	}

	result := interfaces.ReplicationResult{
		CloudSkyURL: cloudsky.url,
		CatboxURL:   catbox.url,
	}

	switch {
	case cloudsky.err == nil:
		result.Primary = interfaces.ProviderCloudSky
	case catbox.err == nil:
		result.Primary = interfaces.ProviderCatbox
	default:
		r.log.Error("All providers failed to store blob",
			slog.Int("size", len(data)),
			slog.Duration("duration", time.Since(start)))
		return interfaces.ReplicationResult{}, &interfaces.ReplicationError{
			CloudSkyErr: cloudsky.err,
			CatboxErr:   catbox.err,
		}
	}

	r.log.Info("Replicated blob",
		slog.String("primary", result.Primary.String()),
		slog.Bool("cloudsky_ok", cloudsky.err == nil),
		slog.Bool("catbox_ok", catbox.err == nil),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}
