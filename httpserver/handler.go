package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudku/storage-gateway/gateway"
	"github.com/cloudku/storage-gateway/interfaces"
	"github.com/cloudku/storage-gateway/metrics"
	"github.com/go-chi/chi/v5"
)

const (
	// DefaultMaxUploadSize is the upload ceiling enforced before any
	// backend call (200 MB).
	DefaultMaxUploadSize = 200 * 1024 * 1024

	// multipartMemoryLimit is how much of a form is held in memory before
	// spilling to temp files (32 MB).
	multipartMemoryLimit = 32 * 1024 * 1024

	// uploadFieldName is the multipart field carrying the blob.
	uploadFieldName = "file"
)

// Uploader commits one upload transaction. Implemented by gateway.Uploader.
type Uploader interface {
	Commit(ctx context.Context, data []byte, originalName, mimeHint string, buildURL func(filename string) string) (*gateway.UploadResult, error)
}

// Fetcher streams a stored blob back. Implemented by gateway.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, filename string) (*gateway.FetchResult, error)
}

// HandlerConfig tunes the request handlers.
type HandlerConfig struct {
	// MaxUploadSize overrides DefaultMaxUploadSize when positive.
	MaxUploadSize int64

	// PublicURL is the external base URL embedded in returned links, e.g.
	// "https://cdn.example.com". When empty the request's host is used.
	PublicURL string
}

// Handler processes upload and fetch requests for the gateway.
type Handler struct {
	uploader      Uploader
	fetcher       Fetcher
	maxUploadSize int64
	publicURL     string
	log           *slog.Logger
}

// uploadResponse is the JSON shape of a successful upload.
type uploadResponse struct {
	Status       string                    `json:"status"`
	URL          string                    `json:"url"`
	Filename     string                    `json:"filename"`
	OriginalName string                    `json:"originalName"`
	Providers    interfaces.ProviderStatus `json:"providers"`
}

// errorResponse is the JSON shape of any failure.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewHandler creates a request handler around the upload orchestrator and
// the retrieval broker.
func NewHandler(uploader Uploader, fetcher Fetcher, cfg *HandlerConfig, log *slog.Logger) *Handler {
	maxSize := int64(DefaultMaxUploadSize)
	publicURL := ""
	if cfg != nil {
		if cfg.MaxUploadSize > 0 {
			maxSize = cfg.MaxUploadSize
		}
		publicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	}
	return &Handler{
		uploader:      uploader,
		fetcher:       fetcher,
		maxUploadSize: maxSize,
		publicURL:     publicURL,
		log:           log,
	}
}

// HandleUpload accepts a multipart upload, replicates it, and returns the
// public URL. The size ceiling is enforced before any backend is
// contacted, and multipart temp files are removed on every exit path.
//
// Routes: POST /upload, POST /cdn/api.php
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	wantsJSON := acceptsJSON(r)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.respondError(w, wantsJSON, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.log.Warn("Failed to remove multipart temp files", "err", err)
			}
		}
	}()

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.respondError(w, wantsJSON, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		h.log.Warn("Upload rejected, size limit exceeded",
			slog.String("original_name", header.Filename),
			slog.Int64("size", header.Size))
		h.respondError(w, wantsJSON, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%v (%d bytes max)", interfaces.ErrSizeLimitExceeded, h.maxUploadSize))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, wantsJSON, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	mimeHint := header.Header.Get("Content-Type")
	result, err := h.uploader.Commit(r.Context(), data, header.Filename, mimeHint, h.urlBuilder(r))
	if err != nil {
		h.log.Error("Upload failed", "err", err, slog.String("original_name", header.Filename))
		metrics.CommitsTotal.WithLabelValues(commitResultLabel(err)).Inc()
		h.respondError(w, wantsJSON, uploadErrorStatus(err), err.Error())
		return
	}

	metrics.CommitsTotal.WithLabelValues("success").Inc()
	metrics.UploadsTotal.WithLabelValues(interfaces.ProviderCloudSky.String(), result.Providers.CloudSky).Inc()
	metrics.UploadsTotal.WithLabelValues(interfaces.ProviderCatbox.String(), result.Providers.Catbox).Inc()

	if wantsJSON {
		writeJSON(w, http.StatusOK, uploadResponse{
			Status:       "success",
			URL:          result.PublicURL,
			Filename:     result.Filename,
			OriginalName: result.OriginalName,
			Providers:    result.Providers,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, result.PublicURL)
}

// HandleFetch streams a stored blob from the first healthy backend.
//
// Route: GET /f/{filename}
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		http.Error(w, "Missing filename", http.StatusBadRequest)
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), filename)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrRecordNotFound):
			metrics.FetchesTotal.WithLabelValues("none", "not_found").Inc()
			http.Error(w, "File not found", http.StatusNotFound)
		case errors.Is(err, interfaces.ErrAllProvidersFailed):
			metrics.FetchesTotal.WithLabelValues("none", "failed").Inc()
			http.Error(w, "Error fetching file from storage - all providers failed", http.StatusBadGateway)
		default:
			h.log.Error("Fetch failed", "err", err, slog.String("filename", filename))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	defer result.Body.Close()

	metrics.FetchesTotal.WithLabelValues(result.ServedBy.String(), "success").Inc()

	record := result.Record
	contentType := record.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(record.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": record.OriginalName}))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("X-Served-By", result.ServedBy.String())

	// Forward the stream without buffering.
	if _, err := io.Copy(w, result.Body); err != nil {
		h.log.Warn("Stream interrupted", "err", err, slog.String("filename", filename))
	}
}

// urlBuilder derives the public URL for a filename, preferring the
// configured base and falling back to the request's host.
func (h *Handler) urlBuilder(r *http.Request) func(filename string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return func(filename string) string {
		return base + "/f/" + filename
	}
}

// uploadErrorStatus maps the error taxonomy onto HTTP status codes.
func uploadErrorStatus(err error) int {
	var replErr *interfaces.ReplicationError
	switch {
	case errors.Is(err, interfaces.ErrSizeLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &replErr):
		return http.StatusBadGateway
	case errors.Is(err, interfaces.ErrIdentifierSpaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func commitResultLabel(err error) string {
	var replErr *interfaces.ReplicationError
	switch {
	case errors.As(err, &replErr):
		return "replication_failed"
	case errors.Is(err, interfaces.ErrIdentifierSpaceExhausted):
		return "ident_exhausted"
	default:
		return "persistence_failed"
	}
}

func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.URL.Path, "api.php") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) respondError(w http.ResponseWriter, wantsJSON bool, status int, message string) {
	if wantsJSON {
		writeJSON(w, status, errorResponse{Status: "error", Message: message})
		return
	}
	http.Error(w, "Error: "+message, status)
}
