package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudku/storage-gateway/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatboxStore_Success(t *testing.T) {
	blob := []byte("hello catbox")

	var gotReqType string
	var gotFilename string
	var gotBlob []byte

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotReqType = r.FormValue("reqtype")

		file, header, err := r.FormFile("fileToUpload")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBlob, err = io.ReadAll(file)
		require.NoError(t, err)

		io.WriteString(w, "https://files.catbox.moe/abc123.txt\n")
	}))
	defer backend.Close()

	p := NewCatboxProvider(backend.URL, testLogger())

	url, err := p.Store(context.Background(), blob, "application/json")
	require.NoError(t, err)

	assert.Equal(t, "https://files.catbox.moe/abc123.txt", url)
	assert.Equal(t, "fileupload", gotReqType)
	assert.Equal(t, blob, gotBlob)
	// The hint is ignored; extension comes from sniffing the bytes.
	assert.Equal(t, "file.txt", gotFilename)
}

func TestCatboxStore_EmptyResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with an empty body is still a failure for this backend.
	}))
	defer backend.Close()

	p := NewCatboxProvider(backend.URL, testLogger())

	_, err := p.Store(context.Background(), []byte("data"), "")
	require.Error(t, err)

	var provErr *interfaces.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, interfaces.ProviderCatbox, provErr.Provider)
}

func TestCatboxStore_NonURLResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Internal error: upload pool full")
	}))
	defer backend.Close()

	p := NewCatboxProvider(backend.URL, testLogger())

	_, err := p.Store(context.Background(), []byte("data"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response")
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, isHTTPURL("https://files.catbox.moe/x.bin"))
	assert.True(t, isHTTPURL("http://localhost:8080/x"))
	assert.False(t, isHTTPURL(""))
	assert.False(t, isHTTPURL("not a url"))
	assert.False(t, isHTTPURL("ftp://example.com/x"))
	assert.False(t, isHTTPURL("https://"))
}
