package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodgram/moodgram/store"
	storetest "github.com/moodgram/moodgram/store/test"
)

// embedding builds a deterministic unit-ish vector whose direction is
// controlled by angle, so distances between fixtures are predictable.
func embedding(dim int, angle float32) []float32 {
	vector := make([]float32, dim)
	vector[0] = 1
	vector[1] = angle
	return vector
}

func addImage(ctx context.Context, t *testing.T, ts *store.Store, userID string, emotion store.Emotion, vector []float32, createdTs int64) *store.Image {
	t.Helper()
	_, err := ts.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)

	image, err := ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emotion:   emotion,
		FilePath:  "/data/images/" + uuid.NewString() + ".jpg",
		Embedding: vector,
		CreatedTs: createdTs,
	})
	require.NoError(t, err)
	return image
}

func newEngine(ctx context.Context, t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	ts := storetest.NewTestingStore(ctx, t)
	return NewEngine(ts), ts
}

func TestFindSimilarRoundTrip(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.5), now)

	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Without ExcludeOwner the reference itself is a valid candidate at
	// distance 0 and ranks first.
	assert.Equal(t, ref.ID, results[0].Image.ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.Greater(t, results[1].Distance, results[0].Distance)
}

func TestFindSimilarRecordNotFound(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(ctx, t)

	_, err := engine.FindSimilar(ctx, uuid.NewString(), 5, Filters{})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestFindSimilarEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)

	// Excluding the owner leaves zero eligible candidates: empty list,
	// not an error.
	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilarSameEmotionFilter(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.2), now)
	addImage(ctx, t, ts, "c", store.EmotionSad, embedding(dim, 0.1), now)

	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{SameEmotion: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, match := range results {
		assert.Equal(t, store.EmotionHappy, match.Image.Emotion)
	}
}

func TestFindSimilarExcludeOwner(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0.1), now)
	other := addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.2), now)

	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, other.ID, results[0].Image.ID)
}

func TestFindSimilarVisibilityOptOut(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	// Concrete scenario: A, B, C all happy; B opted out of search.
	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.01), now)
	imgC := addImage(ctx, t, ts, "c", store.EmotionHappy, embedding(dim, 0.5), now)

	searchAllowed := false
	_, err := ts.UpdateUserSetting(ctx, &store.UpdateUserSetting{
		UserID:        "b",
		SearchAllowed: &searchAllowed,
	})
	require.NoError(t, err)

	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true, SameEmotion: true})
	require.NoError(t, err)
	require.Len(t, results, 1, "B is opted out even though closer than C")
	assert.Equal(t, imgC.ID, results[0].Image.ID)
}

func TestFindSimilarTodayScope(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.1), now)
	addImage(ctx, t, ts, "c", store.EmotionHappy, embedding(dim, 0.05), now-2*86400)

	results, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true, TimeScope: Today})
	require.NoError(t, err)
	require.Len(t, results, 1, "record from two days ago must be excluded")
	assert.Equal(t, "b", results[0].Image.UserID)
}

func TestFindSimilarDeterministicOrder(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	// Two candidates with identical embeddings tie on distance; the id
	// tie-break keeps ordering stable.
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 0.3), now)
	addImage(ctx, t, ts, "c", store.EmotionHappy, embedding(dim, 0.3), now)

	first, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.FindSimilar(ctx, ref.ID, 5, Filters{ExcludeOwner: true})
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Image.ID, again[j].Image.ID)
		}
	}
}

func TestFindSimilarBoundedSize(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	for i := 0; i < 5; i++ {
		addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, float32(i)*0.1), now)
	}

	results, err := engine.FindSimilar(ctx, ref.ID, 3, Filters{ExcludeOwner: true})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Fewer eligible candidates than k: return all, never pad.
	results, err = engine.FindSimilar(ctx, ref.ID, 100, Filters{ExcludeOwner: true})
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// Non-positive k yields an empty result.
	results, err = engine.FindSimilar(ctx, ref.ID, 0, Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilarOrderedByDistance(t *testing.T) {
	ctx := context.Background()
	engine, ts := newEngine(ctx, t)
	dim := ts.Profile().EmbeddingDim
	now := time.Now().Unix()

	ref := addImage(ctx, t, ts, "a", store.EmotionHappy, embedding(dim, 0), now)
	addImage(ctx, t, ts, "b", store.EmotionHappy, embedding(dim, 1.5), now)
	addImage(ctx, t, ts, "c", store.EmotionHappy, embedding(dim, 0.1), now)
	addImage(ctx, t, ts, "d", store.EmotionHappy, embedding(dim, 0.7), now)

	results, err := engine.FindSimilar(ctx, ref.ID, 10, Filters{ExcludeOwner: true})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
	assert.Equal(t, "c", results[0].Image.UserID)
}
