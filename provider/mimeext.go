package provider

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// genericExt is used when neither the MIME hint nor content sniffing yields
// a usable file extension.
const genericExt = "bin"

// mimeToExt maps declared MIME types to file extensions for key derivation.
var mimeToExt = map[string]string{
	// Images
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
	"image/tiff":    "tiff",
	"image/x-icon":  "ico",

	// Videos
	"video/mp4":        "mp4",
	"video/webm":       "webm",
	"video/quicktime":  "mov",
	"video/x-msvideo":  "avi",
	"video/x-matroska": "mkv",

	// Audio
	"audio/mpeg": "mp3",
	"audio/wav":  "wav",
	"audio/ogg":  "ogg",
	"audio/mp4":  "m4a",
	"audio/aac":  "aac",

	// Documents
	"application/pdf":    "pdf",
	"text/plain":         "txt",
	"text/html":          "html",
	"text/csv":           "csv",
	"application/json":   "json",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.ms-powerpoint": "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",

	// Archives
	"application/zip":              "zip",
	"application/x-7z-compressed":  "7z",
	"application/x-rar-compressed": "rar",
	"application/x-tar":            "tar",
}

// ResolveContentType determines the content type and file extension for a
// blob. When a MIME hint is supplied it wins and the extension comes from
// the static table, falling back to the MIME subtype. Without a hint the
// bytes are sniffed. The extension falls back to "bin" when nothing better
// is known. Pure function, no I/O.
func ResolveContentType(mimeHint string, data []byte) (mime string, ext string) {
	if mimeHint == "" {
		return SniffContentType(data)
	}

	mime = mimeHint
	if e, ok := mimeToExt[mime]; ok {
		return mime, e
	}
	if _, subtype, found := strings.Cut(mime, "/"); found && subtype != "" {
		// Strip any parameters, e.g. "json; charset=utf-8".
		if i := strings.IndexAny(subtype, "; "); i >= 0 {
			subtype = subtype[:i]
		}
		if subtype != "" && subtype != "octet-stream" {
			return mime, subtype
		}
	}
	return mime, genericExt
}

// SniffContentType detects the content type and extension from the blob
// bytes alone.
func SniffContentType(data []byte) (mime string, ext string) {
	mt := mimetype.Detect(data)
	ext = strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		ext = genericExt
	}
	return mt.String(), ext
}
