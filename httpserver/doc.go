/*
Package httpserver implements the HTTP surface of the content-storage
gateway.

It exposes the upload and retrieval entry points plus the usual health and
diagnostics endpoints, with request logging and a standalone Prometheus
metrics listener.

# Endpoints

  - POST /upload - Multipart upload; returns the public URL (JSON when the
    client accepts application/json, plain text otherwise)
  - POST /cdn/api.php - Same upload flow, always JSON
  - GET /f/{filename} - Stream a stored blob with provider failover
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Upload behavior

Uploads over the 200 MB ceiling are rejected before any backend is
contacted. Multipart temp files are removed on every exit path. The
response reports the per-provider replication outcome so callers can see
which backend is primary.

# Fetch behavior

Reads stream the blob from the first backend that answers (primary first,
then the backup), forwarding the bytes without buffering and mirroring the
stored metadata in Content-Type, Content-Length, and Content-Disposition.
The serving backend is reported in X-Served-By.
*/
package httpserver
