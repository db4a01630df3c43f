package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cloudku/storage-gateway/interfaces"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
  id TEXT PRIMARY KEY,
  filename TEXT UNIQUE NOT NULL,
  original_name TEXT NOT NULL,
  size INTEGER NOT NULL,
  mime_type TEXT,
  uploaded_at TEXT NOT NULL,
  cloudsky_url TEXT,
  catbox_url TEXT,
  primary_provider TEXT NOT NULL,
  public_url TEXT NOT NULL
);
`

// Store persists blob records in SQLite. The UNIQUE constraint on filename
// is the uniqueness guarantee the upload retry loop relies on.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens the SQLite database at path and bootstraps the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := (&url.URL{Scheme: "file", Path: path}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	logger.Debug("Record store opened", slog.String("path", path))
	return &Store{db: db, log: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert persists a record if no record with the same filename exists.
// Returns interfaces.ErrDuplicateFilename when the filename uniqueness
// constraint rejects the insert; any other failure is surfaced as-is.
// The record's UploadedAt is set to the commit time.
func (s *Store) Insert(ctx context.Context, record *interfaces.BlobRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	record.UploadedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files
		   (id, filename, original_name, size, mime_type, uploaded_at,
		    cloudsky_url, catbox_url, primary_provider, public_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Filename,
		record.OriginalName,
		record.Size,
		record.MimeType,
		record.UploadedAt.Format(time.RFC3339Nano),
		nullable(record.CloudSkyURL),
		nullable(record.CatboxURL),
		string(record.PrimaryProvider),
		record.PublicURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return interfaces.ErrDuplicateFilename
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	s.log.Debug("Inserted record",
		slog.String("filename", record.Filename),
		slog.String("primary", record.PrimaryProvider.String()),
		slog.Int64("size", record.Size))

	return nil
}

// GetByFilename returns the record for filename, or
// interfaces.ErrRecordNotFound when no such record exists.
func (s *Store) GetByFilename(ctx context.Context, filename string) (*interfaces.BlobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, original_name, size, mime_type, uploaded_at,
		        cloudsky_url, catbox_url, primary_provider, public_url
		   FROM files WHERE filename = ?`, filename)

	var (
		record      interfaces.BlobRecord
		mimeType    sql.NullString
		uploadedAt  string
		cloudskyURL sql.NullString
		catboxURL   sql.NullString
		primary     string
	)

	err := row.Scan(
		&record.ID,
		&record.Filename,
		&record.OriginalName,
		&record.Size,
		&mimeType,
		&uploadedAt,
		&cloudskyURL,
		&catboxURL,
		&primary,
		&record.PublicURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	record.MimeType = mimeType.String
	record.CloudSkyURL = cloudskyURL.String
	record.CatboxURL = catboxURL.String
	record.PrimaryProvider = interfaces.ProviderID(primary)
	if ts, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		record.UploadedAt = ts
	}

	return &record, nil
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to configure database: %w", err)
		}
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

// isUniqueViolation inspects the driver's structured error code rather than
// matching on the message text.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
