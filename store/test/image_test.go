package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moodgram/moodgram/store"
)

func testEmbedding(dim int, seed float32) []float32 {
	vector := make([]float32, dim)
	for i := range vector {
		vector[i] = seed
	}
	vector[0] = 1
	return vector
}

func createTestImage(ctx context.Context, t *testing.T, ts *store.Store, userID string, emotion store.Emotion, createdTs int64) *store.Image {
	t.Helper()
	if _, err := ts.GetOrCreateUser(ctx, userID); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	image, err := ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emotion:   emotion,
		FilePath:  "/data/images/" + userID + ".jpg",
		Embedding: testEmbedding(ts.Profile().EmbeddingDim, 0.1),
		CreatedTs: createdTs,
	})
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	return image
}

func TestCreateAndListImages(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	created := createTestImage(ctx, t, ts, "chat-1", store.EmotionHappy, now)

	got, err := ts.GetImage(ctx, &store.FindImage{ID: &created.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, store.EmotionHappy, got.Emotion)
	require.Equal(t, ts.Profile().EmbeddingDim, len(got.Embedding))

	userID := "chat-1"
	list, err := ts.ListImages(ctx, &store.FindImage{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCreateImageRejectsInvalidLabel(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.GetOrCreateUser(ctx, "chat-1")
	require.NoError(t, err)

	_, err = ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    "chat-1",
		Emotion:   "joyful",
		FilePath:  "/tmp/x.jpg",
		Embedding: testEmbedding(ts.Profile().EmbeddingDim, 0.1),
	})
	require.ErrorIs(t, err, store.ErrInvalidEmotionLabel)
}

func TestCreateImageRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.GetOrCreateUser(ctx, "chat-1")
	require.NoError(t, err)

	_, err = ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    "chat-1",
		Emotion:   store.EmotionHappy,
		FilePath:  "/tmp/x.jpg",
		Embedding: []float32{1, 2, 3},
	})
	require.Error(t, err)
}

func TestListImagesVisibilityFilter(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	createTestImage(ctx, t, ts, "visible", store.EmotionHappy, now)
	hidden := createTestImage(ctx, t, ts, "hidden", store.EmotionHappy, now)

	searchAllowed := false
	_, err := ts.UpdateUserSetting(ctx, &store.UpdateUserSetting{
		UserID:        "hidden",
		SearchAllowed: &searchAllowed,
	})
	require.NoError(t, err)

	list, err := ts.ListImages(ctx, &store.FindImage{SearchAllowedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotEqual(t, hidden.ID, list[0].ID)
}

func TestCountDistinctSubmitters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	yesterday := now - 86400

	createTestImage(ctx, t, ts, "a", store.EmotionHappy, now)
	createTestImage(ctx, t, ts, "a", store.EmotionSad, now)
	createTestImage(ctx, t, ts, "b", store.EmotionHappy, now)
	createTestImage(ctx, t, ts, "c", store.EmotionHappy, yesterday)

	after := now - 3600
	count, err := ts.CountDistinctSubmitters(ctx, &store.FindImage{CreatedAfter: &after})
	require.NoError(t, err)
	require.Equal(t, 2, count, "one user with two images counts once; yesterday's submitter is out of range")

	happy := store.EmotionHappy
	count, err = ts.CountDistinctSubmitters(ctx, &store.FindImage{CreatedAfter: &after, Emotion: &happy})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	sad := store.EmotionSad
	count, err = ts.CountDistinctSubmitters(ctx, &store.FindImage{CreatedAfter: &after, Emotion: &sad})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestVectorSearch(t *testing.T) {
	if getDriverFromEnv() != "postgres" {
		t.Skip("native vector search only works with PostgreSQL + pgvector")
	}

	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	ref := createTestImage(ctx, t, ts, "a", store.EmotionHappy, now)
	createTestImage(ctx, t, ts, "b", store.EmotionHappy, now)

	results, err := ts.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector:            ref.Embedding,
		Limit:             5,
		SearchAllowedOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.InDelta(t, 0, results[0].Distance, 1e-6, "identical embedding ranks first at distance 0")
}
