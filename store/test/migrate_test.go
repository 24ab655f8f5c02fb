package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moodgram/moodgram/store"
	"github.com/moodgram/moodgram/store/db"
)

func TestMigrateSkipsInitializedDatabase(t *testing.T) {
	ctx := context.Background()
	p := GetTestingProfile(t)

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = driver.Close()
	})

	initialized, err := driver.IsInitialized(ctx)
	require.NoError(t, err)
	require.False(t, initialized, "fresh database must not report initialized")

	require.NoError(t, driver.Migrate(ctx))

	initialized, err = driver.IsInitialized(ctx)
	require.NoError(t, err)
	require.True(t, initialized)

	// Seed a row, then migrate again: the schema pass must not touch an
	// initialized database.
	_, err = driver.CreateUser(ctx, &store.User{ID: "alice", CreatedTs: time.Now().Unix()})
	require.NoError(t, err)

	require.NoError(t, driver.Migrate(ctx))

	users, err := driver.ListUsers(ctx, &store.FindUser{})
	require.NoError(t, err)
	require.Len(t, users, 1)
}
