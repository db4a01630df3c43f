// Package interfaces defines the shared types and contracts of the storage
// gateway: blob providers, the record store, and the error taxonomy.
//
// A BlobProvider normalizes "push a blob, get back a durable URL" for one
// external backend. The gateway replicates every upload to two providers,
// records which succeeded, and serves reads from the primary with ordered
// fallback to the backup.
//
// Error taxonomy:
//
//	ErrSizeLimitExceeded        - input over the ceiling, rejected pre-network
//	*ProviderError              - one backend failed, never fatal on its own
//	*ReplicationError           - both backends failed, fatal to the upload
//	ErrDuplicateFilename        - record store uniqueness violation, retried
//	ErrIdentifierSpaceExhausted - collision retries exhausted
//	ErrRecordNotFound           - no record for the requested identifier
//	ErrAllProvidersFailed       - record exists but no backend can serve it
package interfaces
