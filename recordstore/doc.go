// Package recordstore persists one row per uploaded blob, keyed by the
// public filename. It offers exactly the two operations the gateway needs:
// insert-if-absent-by-filename and get-by-filename. Uniqueness violations
// are reported via interfaces.ErrDuplicateFilename using the SQLite
// driver's structured error codes, so the upload retry loop never has to
// sniff error messages.
package recordstore
