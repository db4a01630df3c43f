package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudku/storage-gateway/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCloudSkyStore_Success(t *testing.T) {
	blob := []byte("hello cloudsky")

	var uploaded []byte
	var uploadedContentType string

	// Transfer target handed out by the control endpoint.
	transfer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		uploadedContentType = r.Header.Get("Content-Type")
		assert.Equal(t, "AES256", r.Header.Get("x-amz-server-side-encryption"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = body
		w.WriteHeader(http.StatusOK)
	}))
	defer transfer.Close()

	var presignReq presignRequest
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/get-upload-url", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&presignReq))
		json.NewEncoder(w).Encode(presignResponse{UploadURL: transfer.URL + "/put-here"})
	}))
	defer control.Close()

	p := NewCloudSkyProvider(control.URL, "cloudku", testLogger())

	url, err := p.Store(context.Background(), blob, "text/plain")
	require.NoError(t, err)

	assert.Equal(t, blob, uploaded)
	assert.Equal(t, "text/plain", uploadedContentType)
	assert.Equal(t, "text/plain", presignReq.ContentType)
	assert.Equal(t, len(blob), presignReq.FileSize)
	assert.True(t, strings.HasPrefix(presignReq.FileKey, "cloudku/"))
	assert.True(t, strings.HasSuffix(presignReq.FileKey, ".txt"))
	assert.True(t, strings.HasPrefix(url, control.URL+"/file?key="))
}

func TestCloudSkyStore_PresignFailure(t *testing.T) {
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer control.Close()

	p := NewCloudSkyProvider(control.URL, "cloudku", testLogger())

	_, err := p.Store(context.Background(), []byte("data"), "text/plain")
	require.Error(t, err)

	var provErr *interfaces.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, interfaces.ProviderCloudSky, provErr.Provider)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCloudSkyStore_MissingUploadURL(t *testing.T) {
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(presignResponse{})
	}))
	defer control.Close()

	p := NewCloudSkyProvider(control.URL, "cloudku", testLogger())

	_, err := p.Store(context.Background(), []byte("data"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no uploadUrl")
}

func TestCloudSkyStore_TransferFailure(t *testing.T) {
	transfer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "checksum mismatch", http.StatusBadRequest)
	}))
	defer transfer.Close()

	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(presignResponse{UploadURL: transfer.URL})
	}))
	defer control.Close()

	p := NewCloudSkyProvider(control.URL, "cloudku", testLogger())

	_, err := p.Store(context.Background(), []byte("data"), "text/plain")
	require.Error(t, err)

	var provErr *interfaces.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestCloudSkyStore_SniffsWhenNoHint(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	transfer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer transfer.Close()

	var presignReq presignRequest
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&presignReq))
		json.NewEncoder(w).Encode(presignResponse{UploadURL: transfer.URL})
	}))
	defer control.Close()

	p := NewCloudSkyProvider(control.URL, "cloudku", testLogger())

	_, err := p.Store(context.Background(), png, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", presignReq.ContentType)
	assert.True(t, strings.HasSuffix(presignReq.FileKey, ".png"))
}
