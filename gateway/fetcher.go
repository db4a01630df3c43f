package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
)

// FetchResult exposes the streamed blob and its metadata. The caller owns
// Body and must close it.
type FetchResult struct {
	// Body streams the blob from the serving backend, unbuffered.
	Body io.ReadCloser

	// Record is the stored metadata for the blob.
	Record *interfaces.BlobRecord

	// ServedBy names the provider that actually served the bytes.
	ServedBy interfaces.ProviderID
}

// Fetcher serves blobs by trying a record's backends in a fixed order:
// the primary provider first, then Catbox, then CloudSky, skipping absent
// or already-tried URLs. Attempts are strictly sequential; the first
// success wins and no further backend is contacted.
type Fetcher struct {
	store  interfaces.RecordStore
	client *http.Client
	log    *slog.Logger
}

// NewFetcher creates a retrieval broker over the record store.
func NewFetcher(store interfaces.RecordStore, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		store:  store,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    logger,
	}
}

// Fetch looks up filename and streams the blob from the first healthy
// backend. Returns interfaces.ErrRecordNotFound when no record exists and
// interfaces.ErrAllProvidersFailed when every stored URL fails.
func (f *Fetcher) Fetch(ctx context.Context, filename string) (*FetchResult, error) {
	record, err := f.store.GetByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}

	var attempted int
	for _, candidate := range candidateOrder(record.PrimaryProvider) {
		url := record.URLFor(candidate)
		if url == "" {
			continue
		}
		attempted++

		body, err := f.tryBackend(ctx, url)
		if err != nil {
			f.log.Warn("Provider failed to serve blob",
				slog.String("filename", filename),
				slog.String("provider", candidate.String()),
				"err", err)
			continue
		}

		f.log.Info("Serving blob",
			slog.String("filename", filename),
			slog.String("provider", candidate.String()))

		return &FetchResult{
			Body:     body,
			Record:   record,
			ServedBy: candidate,
		}, nil
	}

	f.log.Error("All providers failed to serve blob",
		slog.String("filename", filename),
		slog.Int("attempted", attempted))

	return nil, interfaces.ErrAllProvidersFailed
}

// candidateOrder returns the fixed fallback order for a record: primary
// first, then the remaining providers in catbox-before-cloudsky order.
func candidateOrder(primary interfaces.ProviderID) []interfaces.ProviderID {
	order := []interfaces.ProviderID{primary}
	for _, p := range []interfaces.ProviderID{interfaces.ProviderCatbox, interfaces.ProviderCloudSky} {
		if p != primary {
			order = append(order, p)
		}
	}
	return order
}

// tryBackend performs a single GET against one backend URL. Any non-success
// outcome is an error; the caller moves on to the next candidate.
func (f *Fetcher) tryBackend(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return resp.Body, nil
}
