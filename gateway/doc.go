// Package gateway contains the write and read brokers of the service.
//
// The Uploader runs one write transaction: replicate the blob to both
// backends (tolerating the failure of either one), allocate a short unique
// public identifier with bounded collision retry, and persist the record.
// The Fetcher serves reads: look the record up by identifier and stream the
// bytes from the first backend that answers, trying the primary provider
// first and the backup afterwards. There is no caching layer; every read
// goes back to a backend.
package gateway
