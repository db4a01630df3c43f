package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudku/storage-gateway/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// countingBackend is an httptest server that records how often it was hit.
type countingBackend struct {
	srv  *httptest.Server
	hits int
}

func newCountingBackend(t *testing.T, status int, body string) *countingBackend {
	t.Helper()
	b := &countingBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits++
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func storeWithRecord(record *interfaces.BlobRecord) *MockRecordStore {
	store := new(MockRecordStore)
	store.On("GetByFilename", mock.Anything, record.Filename).Return(record, nil)
	return store
}

func TestFetch_NotFound(t *testing.T) {
	store := new(MockRecordStore)
	store.On("GetByFilename", mock.Anything, "missing.txt").Return(nil, interfaces.ErrRecordNotFound)

	f := NewFetcher(store, testLogger())
	_, err := f.Fetch(context.Background(), "missing.txt")
	require.ErrorIs(t, err, interfaces.ErrRecordNotFound)
}

func TestFetch_PrimaryServes(t *testing.T) {
	sky := newCountingBackend(t, http.StatusOK, "blob from sky")
	cat := newCountingBackend(t, http.StatusOK, "blob from cat")

	record := &interfaces.BlobRecord{
		ID:              "id",
		Filename:        "abc123.txt",
		OriginalName:    "notes.txt",
		Size:            13,
		MimeType:        "text/plain",
		CloudSkyURL:     sky.srv.URL,
		CatboxURL:       cat.srv.URL,
		PrimaryProvider: interfaces.ProviderCloudSky,
		PublicURL:       "https://cdn/f/abc123.txt",
	}

	f := NewFetcher(storeWithRecord(record), testLogger())
	result, err := f.Fetch(context.Background(), "abc123.txt")
	require.NoError(t, err)
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "blob from sky", string(body))
	assert.Equal(t, interfaces.ProviderCloudSky, result.ServedBy)
	assert.Equal(t, record, result.Record)

	// First success wins; the backup is never contacted.
	assert.Equal(t, 1, sky.hits)
	assert.Equal(t, 0, cat.hits)
}

func TestFetch_FallsBackToBackup(t *testing.T) {
	sky := newCountingBackend(t, http.StatusInternalServerError, "boom")
	cat := newCountingBackend(t, http.StatusOK, "blob from cat")

	record := &interfaces.BlobRecord{
		Filename:        "abc123.txt",
		OriginalName:    "notes.txt",
		Size:            13,
		CloudSkyURL:     sky.srv.URL,
		CatboxURL:       cat.srv.URL,
		PrimaryProvider: interfaces.ProviderCloudSky,
	}

	f := NewFetcher(storeWithRecord(record), testLogger())
	result, err := f.Fetch(context.Background(), "abc123.txt")
	require.NoError(t, err)
	defer result.Body.Close()

	body, _ := io.ReadAll(result.Body)
	assert.Equal(t, "blob from cat", string(body))
	assert.Equal(t, interfaces.ProviderCatbox, result.ServedBy)
	assert.Equal(t, 1, sky.hits)
	assert.Equal(t, 1, cat.hits)
}

func TestFetch_CatboxPrimaryFallsBackToCloudSky(t *testing.T) {
	sky := newCountingBackend(t, http.StatusOK, "blob from sky")
	cat := newCountingBackend(t, http.StatusBadGateway, "nope")

	record := &interfaces.BlobRecord{
		Filename:        "abc123.txt",
		Size:            13,
		CloudSkyURL:     sky.srv.URL,
		CatboxURL:       cat.srv.URL,
		PrimaryProvider: interfaces.ProviderCatbox,
	}

	f := NewFetcher(storeWithRecord(record), testLogger())
	result, err := f.Fetch(context.Background(), "abc123.txt")
	require.NoError(t, err)
	defer result.Body.Close()

	assert.Equal(t, interfaces.ProviderCloudSky, result.ServedBy)
	assert.Equal(t, 1, cat.hits)
	assert.Equal(t, 1, sky.hits)
}

func TestFetch_AllProvidersFailing(t *testing.T) {
	// Record with primaryProvider=cloudsky, both URLs returning HTTP 500.
	sky := newCountingBackend(t, http.StatusInternalServerError, "boom")
	cat := newCountingBackend(t, http.StatusInternalServerError, "boom")

	record := &interfaces.BlobRecord{
		Filename:        "abc123.txt",
		Size:            4,
		CloudSkyURL:     sky.srv.URL,
		CatboxURL:       cat.srv.URL,
		PrimaryProvider: interfaces.ProviderCloudSky,
	}

	f := NewFetcher(storeWithRecord(record), testLogger())
	_, err := f.Fetch(context.Background(), "abc123.txt")
	require.ErrorIs(t, err, interfaces.ErrAllProvidersFailed)

	assert.Equal(t, 1, sky.hits)
	assert.Equal(t, 1, cat.hits)
}

func TestFetch_SkipsAbsentURL(t *testing.T) {
	cat := newCountingBackend(t, http.StatusOK, "blob from cat")

	record := &interfaces.BlobRecord{
		Filename:        "abc123.txt",
		Size:            13,
		CatboxURL:       cat.srv.URL,
		PrimaryProvider: interfaces.ProviderCatbox,
	}

	f := NewFetcher(storeWithRecord(record), testLogger())
	result, err := f.Fetch(context.Background(), "abc123.txt")
	require.NoError(t, err)
	defer result.Body.Close()

	assert.Equal(t, interfaces.ProviderCatbox, result.ServedBy)
	assert.Equal(t, 1, cat.hits)
}

func TestCandidateOrder(t *testing.T) {
	assert.Equal(t,
		[]interfaces.ProviderID{interfaces.ProviderCloudSky, interfaces.ProviderCatbox},
		candidateOrder(interfaces.ProviderCloudSky))
	assert.Equal(t,
		[]interfaces.ProviderID{interfaces.ProviderCatbox, interfaces.ProviderCloudSky},
		candidateOrder(interfaces.ProviderCatbox))
}
