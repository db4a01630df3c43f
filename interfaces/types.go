package interfaces

import (
	"fmt"
	"time"
)

// ProviderID identifies one of the configured storage backends.
type ProviderID string

const (
	// ProviderCloudSky is the presigned-URL backend. Preferred as primary
	// whenever its upload succeeds.
	ProviderCloudSky ProviderID = "cloudsky"

	// ProviderCatbox is the direct multipart backend. Primary only when the
	// CloudSky upload failed.
	ProviderCatbox ProviderID = "catbox"
)

// String returns the provider name.
func (p ProviderID) String() string {
	return string(p)
}

// Valid reports whether the ID names a known provider.
func (p ProviderID) Valid() bool {
	return p == ProviderCloudSky || p == ProviderCatbox
}

// BlobRecord is one persisted row per uploaded object. Records are created
// once at successful upload commit and never mutated afterwards.
type BlobRecord struct {
	// ID is a process-generated token, not user-facing.
	ID string

	// Filename is the short public identifier and the lookup key. Unique.
	Filename string

	// OriginalName is the client-supplied file name.
	OriginalName string

	// Size is the blob size in bytes.
	Size int64

	// MimeType is best-effort and may be empty.
	MimeType string

	// UploadedAt is set at commit time.
	UploadedAt time.Time

	// CloudSkyURL and CatboxURL are the backend URLs. Either may be empty,
	// but never both: an upload with no surviving backend fails before
	// persistence.
	CloudSkyURL string
	CatboxURL   string

	// PrimaryProvider names the URL field tried first on reads. It must
	// reference a non-empty URL.
	PrimaryProvider ProviderID

	// PublicURL is the fully-qualified URL embedding Filename. Derived.
	PublicURL string
}

// URLFor returns the stored URL for the given provider, or "" if that
// backend did not accept the blob.
func (r *BlobRecord) URLFor(p ProviderID) string {
	switch p {
	case ProviderCloudSky:
		return r.CloudSkyURL
	case ProviderCatbox:
		return r.CatboxURL
	default:
		return ""
	}
}

// Validate checks the record invariants before persistence.
func (r *BlobRecord) Validate() error {
	if r.Filename == "" {
		return fmt.Errorf("record has no filename")
	}
	if r.CloudSkyURL == "" && r.CatboxURL == "" {
		return fmt.Errorf("record %s has no backend URL", r.Filename)
	}
	if !r.PrimaryProvider.Valid() {
		return fmt.Errorf("record %s has unknown primary provider %q", r.Filename, r.PrimaryProvider)
	}
	if r.URLFor(r.PrimaryProvider) == "" {
		return fmt.Errorf("record %s primary provider %s has no URL", r.Filename, r.PrimaryProvider)
	}
	return nil
}

// ReplicationResult carries the outcome of one dual-backend replication.
// At least one URL is set; Primary always references a set URL.
type ReplicationResult struct {
	CloudSkyURL string
	CatboxURL   string
	Primary     ProviderID
}

// ProviderStatus summarizes per-provider outcomes for the upload response.
type ProviderStatus struct {
	CloudSky string     `json:"cloudsky"`
	Catbox   string     `json:"catbox"`
	Primary  ProviderID `json:"primary"`
}

// Status converts a replication result into the success/failed summary
// reported to upload callers.
func (r ReplicationResult) Status() ProviderStatus {
	status := func(url string) string {
		if url != "" {
			return "success"
		}
		return "failed"
	}
	return ProviderStatus{
		CloudSky: status(r.CloudSkyURL),
		Catbox:   status(r.CatboxURL),
		Primary:  r.Primary,
	}
}
