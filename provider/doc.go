// Package provider implements the two external blob backends and the
// replication coordinator that fans uploads out to both of them.
//
// The two providers speak very different protocols behind the same
// interface:
//
//   - CloudSkyProvider uses a two-step presigned flow: it derives a storage
//     key, asks the control endpoint for a write-authorized URL, then PUTs
//     the bytes there. The object is later read back via
//     GET <endpoint>/file?key=<fileKey>.
//   - CatboxProvider POSTs a single multipart form and takes the response
//     body, which must parse as a URL, as the durable object location.
//
// Providers are independent failure domains. The Replicator invokes both
// concurrently, always waits for both outcomes, prefers CloudSky's URL as
// primary, and fails only when both backends fail.
//
// Providers are specified using URI format:
//
//   - cloudsky://api.cloudsky.biz.id/?prefix=cloudku
//   - catbox://catbox.moe/user/api.php
//
// Content-type resolution for key derivation is a pure function
// (ResolveContentType): a declared MIME hint is mapped through a static
// table, unhinted blobs are sniffed, and "bin" is the generic fallback.
package provider
