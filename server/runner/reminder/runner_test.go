package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moodgram/moodgram/store"
	storetest "github.com/moodgram/moodgram/store/test"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[string][]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(map[string][]int)}
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, submittersToday int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[userID] = append(n.calls[userID], submittersToday)
	return nil
}

func (n *recordingNotifier) countFor(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[userID])
}

func setReminderTime(ctx context.Context, t *testing.T, ts *store.Store, userID, reminderTime string) {
	t.Helper()
	_, err := ts.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)
	_, err = ts.UpdateUserSetting(ctx, &store.UpdateUserSetting{
		UserID:       userID,
		ReminderTime: &reminderTime,
	})
	require.NoError(t, err)
}

func addTodayImage(ctx context.Context, t *testing.T, ts *store.Store, userID string) {
	t.Helper()
	_, err := ts.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)

	embedding := make([]float32, ts.Profile().EmbeddingDim)
	embedding[0] = 1
	_, err = ts.CreateImage(ctx, &store.Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emotion:   store.EmotionHappy,
		FilePath:  "/tmp/" + uuid.NewString() + ".jpg",
		Embedding: embedding,
		CreatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)
}

func TestReminderFiresAfterPreferredTime(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	notifier := newRecordingNotifier()
	runner := NewRunner(ts, notifier)

	setReminderTime(ctx, t, ts, "alice", "08:00")
	setReminderTime(ctx, t, ts, "bob", "21:00")
	addTodayImage(ctx, t, ts, "alice")
	addTodayImage(ctx, t, ts, "carol")

	// 09:30 local: alice's 08:00 has passed, bob's 21:00 has not.
	now := time.Date(2026, 8, 29, 9, 30, 0, 0, runner.loc)
	runner.tick(ctx, now)

	require.Equal(t, 1, notifier.countFor("alice"))
	require.Zero(t, notifier.countFor("bob"))
	require.Equal(t, []int{2}, notifier.calls["alice"])
}

func TestReminderFiresOncePerDay(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	notifier := newRecordingNotifier()
	runner := NewRunner(ts, notifier)

	setReminderTime(ctx, t, ts, "alice", "08:00")

	now := time.Date(2026, 8, 29, 9, 0, 0, 0, runner.loc)
	runner.tick(ctx, now)
	runner.tick(ctx, now.Add(time.Minute))
	runner.tick(ctx, now.Add(2*time.Minute))
	require.Equal(t, 1, notifier.countFor("alice"))

	// A new day resets the once-per-day guard.
	runner.tick(ctx, now.AddDate(0, 0, 1))
	require.Equal(t, 2, notifier.countFor("alice"))
}

func TestReminderSkipsInvalidTime(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	notifier := newRecordingNotifier()
	runner := NewRunner(ts, notifier)

	setReminderTime(ctx, t, ts, "alice", "not-a-time")
	setReminderTime(ctx, t, ts, "bob", "00:00")

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, runner.loc)
	runner.tick(ctx, now)

	require.Zero(t, notifier.countFor("alice"))
	require.Equal(t, 1, notifier.countFor("bob"))
}
