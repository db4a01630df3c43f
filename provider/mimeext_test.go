package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveContentType_WithHint(t *testing.T) {
	tests := []struct {
		name         string
		hint         string
		expectedMime string
		expectedExt  string
	}{
		{
			name:         "table hit image",
			hint:         "image/jpeg",
			expectedMime: "image/jpeg",
			expectedExt:  "jpg",
		},
		{
			name:         "table hit document",
			hint:         "text/plain",
			expectedMime: "text/plain",
			expectedExt:  "txt",
		},
		{
			name:         "table hit office",
			hint:         "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			expectedMime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			expectedExt:  "docx",
		},
		{
			name:         "unknown type falls back to subtype",
			hint:         "application/x-custom",
			expectedMime: "application/x-custom",
			expectedExt:  "x-custom",
		},
		{
			name:         "octet-stream falls back to generic",
			hint:         "application/octet-stream",
			expectedMime: "application/octet-stream",
			expectedExt:  "bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, ext := ResolveContentType(tt.hint, []byte("irrelevant"))
			assert.Equal(t, tt.expectedMime, mime)
			assert.Equal(t, tt.expectedExt, ext)
		})
	}
}

func TestResolveContentType_NoHintSniffsBytes(t *testing.T) {
	// PNG magic bytes
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	mime, ext := ResolveContentType("", png)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)
}

func TestResolveContentType_NoHintUnknownBytes(t *testing.T) {
	mime, ext := ResolveContentType("", []byte{0x00, 0x01, 0x02, 0x03})
	assert.Equal(t, "application/octet-stream", mime)
	assert.Equal(t, "bin", ext)
}

func TestSniffContentType_IgnoresNothing(t *testing.T) {
	// Plain text sniffs as text/plain regardless of what a caller declared.
	mime, ext := SniffContentType([]byte("just some text"))
	assert.Contains(t, mime, "text/plain")
	assert.Equal(t, "txt", ext)
}
