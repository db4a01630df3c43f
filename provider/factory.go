package provider

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cloudku/storage-gateway/interfaces"
)

// Factory creates blob providers from location URIs.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a new provider factory.
func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{log: logger}
}

// ProviderFor creates a provider from a location URI.
//
// Supported schemes:
//   - cloudsky://host[/path]?prefix=<key-prefix>[&insecure=true]
//   - catbox://host[/path][?insecure=true]
//
// The backend is reached over HTTPS unless insecure=true is given.
func (f *Factory) ProviderFor(locationURI string) (interfaces.BlobProvider, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URI %q: %w", locationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "cloudsky":
		return f.createCloudSky(u)
	case "catbox":
		return f.createCatbox(u)
	default:
		return nil, fmt.Errorf("unsupported provider scheme: %s", u.Scheme)
	}
}

// CreateReplicator builds both providers and wires them into a replicator.
func (f *Factory) CreateReplicator(cloudskyURI, catboxURI string) (*Replicator, error) {
	cloudsky, err := f.ProviderFor(cloudskyURI)
	if err != nil {
		return nil, err
	}
	if cloudsky.ID() != interfaces.ProviderCloudSky {
		return nil, fmt.Errorf("URI %q is not a cloudsky provider", cloudskyURI)
	}

	catbox, err := f.ProviderFor(catboxURI)
	if err != nil {
		return nil, err
	}
	if catbox.ID() != interfaces.ProviderCatbox {
		return nil, fmt.Errorf("URI %q is not a catbox provider", catboxURI)
	}

	return NewReplicator(cloudsky, catbox, f.log), nil
}

func (f *Factory) createCloudSky(u *url.URL) (interfaces.BlobProvider, error) {
	f.log.Debug("Creating CloudSky provider", slog.String("uri", u.Redacted()))

	if u.Host == "" {
		return nil, fmt.Errorf("cloudsky URI has no host")
	}

	prefix := u.Query().Get("prefix")
	if prefix == "" {
		prefix = "cloudku"
	}

	return NewCloudSkyProvider(httpEndpoint(u), prefix, f.log), nil
}

func (f *Factory) createCatbox(u *url.URL) (interfaces.BlobProvider, error) {
	f.log.Debug("Creating Catbox provider", slog.String("uri", u.Redacted()))

	if u.Host == "" {
		return nil, fmt.Errorf("catbox URI has no host")
	}

	return NewCatboxProvider(httpEndpoint(u), f.log), nil
}

// httpEndpoint rewrites a provider URI into the backend's HTTP base URL.
func httpEndpoint(u *url.URL) string {
	scheme := "https"
	if v := u.Query().Get("insecure"); v == "true" || v == "1" {
		scheme = "http"
	}
	return scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/")
}
