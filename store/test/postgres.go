package test

import (
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testUser     = "testuser"
	testPassword = "testpassword"
)

// GetPostgresDSN returns a DSN for PostgreSQL testing.
// It uses testcontainers to create a fresh PostgreSQL instance for each test.
func GetPostgresDSN(t *testing.T) string {
	// Check if a custom DSN is provided via environment variable
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return dsn
	}

	// pgvector/pgvector ships postgres with the vector extension
	// preinstalled, which Migrate requires.
	pgContainer, err := postgres.Run(t.Context(),
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("moodgram_test"),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Store container for cleanup
	t.Cleanup(func() {
		if err := pgContainer.Terminate(t.Context()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(t.Context(), "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	return connStr
}
