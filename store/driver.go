package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// UserSetting model related methods.
	UpsertUserSetting(ctx context.Context, upsert *UserSetting) (*UserSetting, error)
	ListUserSettings(ctx context.Context, find *FindUserSetting) ([]*UserSetting, error)

	// Image model related methods. Image rows are append-only.
	CreateImage(ctx context.Context, create *Image) (*Image, error)
	ListImages(ctx context.Context, find *FindImage) ([]*Image, error)

	// VectorSearch performs a filtered k-nearest-neighbor search over
	// stored embeddings, ordered by ascending cosine distance with a
	// deterministic id tie-break.
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ImageWithDistance, error)

	// CountDistinctSubmitters counts distinct owners matching the find
	// condition.
	CountDistinctSubmitters(ctx context.Context, find *FindImage) (int, error)
}
