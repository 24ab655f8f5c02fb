// Package reminder fires daily reminders at each user's preferred time.
// The runner only computes aggregate counts and hands them to a
// Notifier; message delivery lives outside this core.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/moodgram/moodgram/server/stats"
	"github.com/moodgram/moodgram/server/timezone"
	"github.com/moodgram/moodgram/store"
)

// Notifier delivers a reminder to one user. Implemented by the bot
// surface.
type Notifier interface {
	// Notify tells the user how many people have submitted today.
	Notify(ctx context.Context, userID string, submittersToday int) error
}

type Runner struct {
	store    *store.Store
	counter  *stats.Counter
	notifier Notifier
	loc      *time.Location
	interval time.Duration

	// lastFired tracks the last local day a user was reminded, so a
	// user is reminded at most once per day.
	lastFired map[string]string
}

// NewRunner creates a reminder runner.
func NewRunner(st *store.Store, notifier Notifier) *Runner {
	return &Runner{
		store:     st,
		counter:   stats.NewCounter(st),
		notifier:  notifier,
		loc:       timezone.Local,
		interval:  time.Minute,
		lastFired: make(map[string]string),
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick(ctx, time.Now().In(r.loc))
		case <-ctx.Done():
			slog.Info("reminder runner stopped")
			return
		}
	}
}

// tick fires reminders for every user whose reminder time has passed
// today and who has not been reminded yet.
func (r *Runner) tick(ctx context.Context, now time.Time) {
	settings, err := r.store.ListUserSettings(ctx, &store.FindUserSetting{})
	if err != nil {
		slog.Error("failed to list user settings", "error", err)
		return
	}

	day := now.Format("2006-01-02")
	var submitters int
	counted := false

	for _, setting := range settings {
		if r.lastFired[setting.UserID] == day {
			continue
		}
		hour, minute, err := timezone.ParseTimeOfDay(setting.ReminderTime)
		if err != nil {
			slog.Warn("skipping user with invalid reminder time",
				"user", setting.UserID, "value", setting.ReminderTime)
			continue
		}
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, r.loc)
		if now.Before(fireAt) {
			continue
		}

		// One aggregate count serves every reminder in this tick.
		if !counted {
			submitters, err = r.counter.DistinctSubmitters(ctx, nil)
			if err != nil {
				slog.Error("failed to count submitters", "error", err)
				return
			}
			counted = true
		}

		if err := r.notifier.Notify(ctx, setting.UserID, submitters); err != nil {
			slog.Error("failed to notify user", "user", setting.UserID, "error", err)
			continue
		}
		r.lastFired[setting.UserID] = day
	}
}
