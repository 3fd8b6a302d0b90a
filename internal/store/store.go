package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is an open assessment database.
type Store interface {
	// Assessments returns the assessment repository.
	Assessments() AssessmentRepo

	// Backend names the storage engine ("sqlite" or "mongodb").
	Backend() string

	// Ping checks the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Open connects to the store described by dsn. MongoDB connection strings
// select the MongoDB backend; anything else is a SQLite database path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsMongoURI(dsn) {
		return openMongo(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

// OpenExisting is Open for a store that must already exist. A plain SQLite
// path that is missing fails with an error wrapping os.ErrNotExist instead
// of creating an empty database. SQLite URI filenames are opened as given.
func OpenExisting(ctx context.Context, dsn string) (Store, error) {
	if !IsMongoURI(dsn) && !strings.HasPrefix(dsn, "file:") {
		if _, err := os.Stat(dsn); err != nil {
			return nil, fmt.Errorf("sqlite database: %w", err)
		}
	}
	return Open(ctx, dsn)
}

// IsMongoURI reports whether dsn is a MongoDB connection string.
func IsMongoURI(dsn string) bool {
	return strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://")
}

// DefaultDBPath resolves the database location in priority order:
// 1. WELLNESSWAVE_DB environment variable
// 2. MONGO_URI environment variable
// 3. $XDG_DATA_HOME/wellnesswave/wellnesswave.db
// 4. ~/.local/share/wellnesswave/wellnesswave.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("WELLNESSWAVE_DB"); p != "" {
		return p, EnsureDir(p)
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "wellnesswave", "wellnesswave.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path if it doesn't
// exist. MongoDB URIs and SQLite URI filenames are left alone.
func EnsureDir(path string) error {
	if IsMongoURI(path) || strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
