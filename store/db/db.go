package db

import (
	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/internal/profile"
	"github.com/moodgram/moodgram/store"
	"github.com/moodgram/moodgram/store/db/postgres"
	"github.com/moodgram/moodgram/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// This project supports only PostgreSQL and SQLite databases.
//
// PostgreSQL: Full support for production use, including native pgvector
// k-nearest-neighbor search.
// SQLite: Development/testing driver. Embeddings are stored but similarity
// ranking runs as an in-process scan (see server/query).
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
