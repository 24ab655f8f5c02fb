// Package test provides store test fixtures shared across packages.
// The driver defaults to SQLite in a per-test temp directory; set
// MOODGRAM_TEST_DRIVER=postgres to run against a PostgreSQL container.
package test

import (
	"context"
	"os"
	"testing"

	"github.com/moodgram/moodgram/internal/profile"
	"github.com/moodgram/moodgram/store"
	"github.com/moodgram/moodgram/store/db"
)

func getDriverFromEnv() string {
	if driver := os.Getenv("MOODGRAM_TEST_DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// GetTestingProfile builds a profile wired to a throwaway database.
func GetTestingProfile(t *testing.T) *profile.Profile {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: getDriverFromEnv(),
		Data:   t.TempDir(),
	}
	if p.Driver == "postgres" {
		p.DSN = GetPostgresDSN(t)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("failed to validate test profile: %v", err)
	}
	return p
}

// NewTestingStore creates a migrated store over a fresh database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := GetTestingProfile(t)

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	if err := driver.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	ts := store.New(driver, p)
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close test store: %v", err)
		}
	})
	return ts
}
