package provider

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
)

// CloudSkyProvider uploads blobs using CloudSky's two-step presigned-URL
// protocol: request a write-authorized URL from the control endpoint, then
// PUT the bytes to it.
type CloudSkyProvider struct {
	endpoint string
	prefix   string
	client   *http.Client
	log      *slog.Logger
}

// presignRequest is the control-endpoint payload.
type presignRequest struct {
	FileKey     string `json:"fileKey"`
	ContentType string `json:"contentType"`
	FileSize    int    `json:"fileSize"`
}

// presignResponse carries the write-authorized URL.
type presignResponse struct {
	UploadURL string `json:"uploadUrl"`
}

// NewCloudSkyProvider creates a CloudSky provider. Storage keys are derived
// under the given prefix.
func NewCloudSkyProvider(endpoint, prefix string, log *slog.Logger) *CloudSkyProvider {
	return &CloudSkyProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		prefix:   prefix,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}
}

// Store uploads data and returns the durable read URL.
// Failures on either protocol step are reported as *interfaces.ProviderError
// including the backend's error body.
func (p *CloudSkyProvider) Store(ctx context.Context, data []byte, mimeHint string) (string, error) {
	start := time.Now()

	mime, ext := ResolveContentType(mimeHint, data)
	fileKey, err := p.deriveKey(ext)
	if err != nil {
		return "", p.wrapErr(err)
	}

	uploadURL, err := p.requestUploadURL(ctx, fileKey, mime, len(data))
	if err != nil {
		return "", p.wrapErr(err)
	}

	if err := p.transfer(ctx, uploadURL, data, mime); err != nil {
		return "", p.wrapErr(err)
	}

	readURL := fmt.Sprintf("%s/file?key=%s", p.endpoint, url.QueryEscape(fileKey))
	p.log.Debug("Stored blob in CloudSky",
		slog.String("file_key", fileKey),
		slog.String("content_type", mime),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return readURL, nil
}

// deriveKey builds the storage key from the configured prefix, the current
// time, and a random suffix.
func (p *CloudSkyProvider) deriveKey(ext string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate key suffix: %w", err)
	}
	return fmt.Sprintf("%s/%d-%s.%s", p.prefix, time.Now().UnixMilli(), hex.EncodeToString(suffix), ext), nil
}

// requestUploadURL asks the control endpoint for a write-authorized URL.
func (p *CloudSkyProvider) requestUploadURL(ctx context.Context, fileKey, contentType string, size int) (string, error) {
	body, err := json.Marshal(presignRequest{
		FileKey:     fileKey,
		ContentType: contentType,
		FileSize:    size,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode presign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/get-upload-url", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create presign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("presign request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to get presigned URL: %s, %s", resp.Status, string(errBody))
	}

	var presigned presignResponse
	if err := json.NewDecoder(resp.Body).Decode(&presigned); err != nil {
		return "", fmt.Errorf("failed to decode presign response: %w", err)
	}
	if presigned.UploadURL == "" {
		return "", fmt.Errorf("no uploadUrl received from control endpoint")
	}

	return presigned.UploadURL, nil
}

// transfer performs the byte upload to the write-authorized URL.
func (p *CloudSkyProvider) transfer(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-amz-server-side-encryption", "AES256")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("file upload failed: %s, %s", resp.Status, string(errBody))
	}

	return nil
}

func (p *CloudSkyProvider) wrapErr(err error) error {
	return &interfaces.ProviderError{Provider: interfaces.ProviderCloudSky, Err: err}
}

// ID returns the provider identifier used in records.
func (p *CloudSkyProvider) ID() interfaces.ProviderID {
	return interfaces.ProviderCloudSky
}

// Name returns a unique identifier for this provider.
func (p *CloudSkyProvider) Name() string {
	return fmt.Sprintf("cloudsky-%s", p.prefix)
}
