package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
)

// CatboxProvider uploads blobs with a single multipart POST. The backend
// returns no structured status; success is inferred from the response body
// parsing as a URL.
type CatboxProvider struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewCatboxProvider creates a Catbox provider for the given upload endpoint.
func NewCatboxProvider(endpoint string, log *slog.Logger) *CatboxProvider {
	return &CatboxProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}
}

// Store uploads data and returns the object URL from the response body.
// The MIME hint is ignored; the extension always comes from sniffing the
// bytes. Failures are reported as *interfaces.ProviderError.
func (p *CatboxProvider) Store(ctx context.Context, data []byte, mimeHint string) (string, error) {
	start := time.Now()
	_, ext := SniffContentType(data)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("fileToUpload", "file."+ext)
	if err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to build form: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to write form body: %w", err))
	}
	if err := writer.WriteField("reqtype", "fileupload"); err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to write form field: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to finalize form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &form)
	if err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to create upload request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.wrapErr(fmt.Errorf("upload request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.wrapErr(fmt.Errorf("failed to read response body: %w", err))
	}

	objectURL := strings.TrimSpace(string(body))
	if !isHTTPURL(objectURL) {
		return "", p.wrapErr(fmt.Errorf("invalid response from backend: %q", truncate(objectURL, 200)))
	}

	p.log.Debug("Stored blob in Catbox",
		slog.String("url", objectURL),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return objectURL, nil
}

func (p *CatboxProvider) wrapErr(err error) error {
	return &interfaces.ProviderError{Provider: interfaces.ProviderCatbox, Err: err}
}

// ID returns the provider identifier used in records.
func (p *CatboxProvider) ID() interfaces.ProviderID {
	return interfaces.ProviderCatbox
}

// Name returns a unique identifier for this provider.
func (p *CatboxProvider) Name() string {
	return "catbox"
}

// isHTTPURL reports whether s is a well-formed absolute http(s) URL.
func isHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
