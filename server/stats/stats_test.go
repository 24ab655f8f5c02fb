package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moodgram/moodgram/store"
	storetest "github.com/moodgram/moodgram/store/test"
)

func addImage(ctx context.Context, t *testing.T, ts *store.Store, userID string, emotion store.Emotion, createdTs int64) {
	t.Helper()
	_, err := ts.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)

	embedding := make([]float32, ts.Profile().EmbeddingDim)
	embedding[0] = 1

	_, err = ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emotion:   emotion,
		FilePath:  "/tmp/" + uuid.NewString() + ".jpg",
		Embedding: embedding,
		CreatedTs: createdTs,
	})
	require.NoError(t, err)
}

func TestDistinctSubmitters(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	counter := NewCounter(ts)

	now := time.Now().Unix()
	addImage(ctx, t, ts, "alice", store.EmotionHappy, now)
	addImage(ctx, t, ts, "alice", store.EmotionSad, now)
	addImage(ctx, t, ts, "bob", store.EmotionHappy, now)
	// Submitted two days ago, outside today's window.
	addImage(ctx, t, ts, "carol", store.EmotionHappy, now-48*3600)

	count, err := counter.DistinctSubmitters(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	happy := store.EmotionHappy
	count, err = counter.DistinctSubmitters(ctx, &happy)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	sad := store.EmotionSad
	count, err = counter.DistinctSubmitters(ctx, &sad)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDistinctSubmittersEmpty(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	counter := NewCounter(ts)

	count, err := counter.DistinctSubmitters(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCollectorSnapshot(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	now := time.Now().Unix()
	addImage(ctx, t, ts, "alice", store.EmotionHappy, now)
	addImage(ctx, t, ts, "bob", store.EmotionNeutral, now)
	addImage(ctx, t, ts, "bob", store.EmotionNeutral, now-7*24*3600)

	collector := NewCollector(ts)
	collector.Collect(ctx)

	snapshot := collector.GetStats()
	require.EqualValues(t, 3, snapshot.TotalImages)
	require.EqualValues(t, 2, snapshot.ImagesToday)
	require.EqualValues(t, 2, snapshot.SubmittersToday)
	require.False(t, snapshot.LastUpdated.IsZero())

	// The snapshot is a copy, not a live view.
	snapshot.TotalImages = 0
	require.EqualValues(t, 3, collector.GetStats().TotalImages)
}
