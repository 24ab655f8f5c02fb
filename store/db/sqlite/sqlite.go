package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/moodgram/moodgram/internal/profile"
	"github.com/moodgram/moodgram/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database located at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Directives for the sqlite driver: enforce foreign keys, wait on
	// locks instead of failing, use WAL for concurrent readers.
	dsn := profile.DSN + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	// SQLite allows a single writer; keep the pool small to avoid lock
	// contention between concurrent ingests.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	driver := DB{db: db, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'image'`,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check schema")
	}
	return count > 0, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id TEXT PRIMARY KEY,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE TABLE IF NOT EXISTS user_setting (
	user_id TEXT PRIMARY KEY REFERENCES user (id),
	ai_enabled INTEGER NOT NULL DEFAULT 1,
	reminder_time TEXT NOT NULL DEFAULT '20:00',
	search_allowed INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS image (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES user (id),
	emotion TEXT NOT NULL,
	file_path TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_image_user_id ON image (user_id);
CREATE INDEX IF NOT EXISTS idx_image_created_ts ON image (created_ts);
CREATE INDEX IF NOT EXISTS idx_image_emotion ON image (emotion);
`

// Migrate creates the schema when missing. An already initialized
// database is left untouched.
func (d *DB) Migrate(ctx context.Context) error {
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
