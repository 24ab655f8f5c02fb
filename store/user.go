package store

import (
	"context"
	"fmt"
	"time"
)

// User represents one chat identity. The identifier is externally
// assigned (chat/session id), so there is no generated key.
type User struct {
	ID        string
	CreatedTs int64
}

// FindUser is the find condition for users.
type FindUser struct {
	ID *string
}

// UserSetting holds the per-user preferences read by the similarity
// engine and the reminder runner. A user has at most one row; defaults
// are written at first contact.
type UserSetting struct {
	UserID string
	// AIEnabled toggles AI-assisted emotion suggestions.
	AIEnabled bool
	// ReminderTime is the preferred reminder time of day, "HH:MM".
	ReminderTime string
	// SearchAllowed controls whether the user's images may appear in
	// other users' similarity results.
	SearchAllowed bool
}

// FindUserSetting is the find condition for user settings.
type FindUserSetting struct {
	UserID *string
}

// UpdateUserSetting is a partial settings mutation.
type UpdateUserSetting struct {
	UserID        string
	AIEnabled     *bool
	ReminderTime  *string
	SearchAllowed *bool
}

const (
	defaultReminderTime = "20:00"
)

func defaultUserSetting(userID string) *UserSetting {
	return &UserSetting{
		UserID:        userID,
		AIEnabled:     true,
		ReminderTime:  defaultReminderTime,
		SearchAllowed: true,
	}
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, user.ID, user)
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil {
		if cached, ok := s.userCache.Get(ctx, *find.ID); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}

	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	user := list[0]
	s.userCache.Set(ctx, user.ID, user)
	return user, nil
}

// GetOrCreateUser returns the user with the given id, creating the user
// row and default settings on first contact.
func (s *Store) GetOrCreateUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.GetUser(ctx, &FindUser{ID: &userID})
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.CreateUser(ctx, &User{ID: userID})
	if err != nil {
		// A concurrent first contact may have won the insert.
		existing, getErr := s.GetUser(ctx, &FindUser{ID: &userID})
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	if _, err := s.driver.UpsertUserSetting(ctx, defaultUserSetting(userID)); err != nil {
		return nil, err
	}
	s.userSettingCache.Delete(ctx, userSettingCacheKey(userID))
	return user, nil
}

func (s *Store) GetUserSetting(ctx context.Context, find *FindUserSetting) (*UserSetting, error) {
	if find.UserID != nil {
		if cached, ok := s.userSettingCache.Get(ctx, userSettingCacheKey(*find.UserID)); ok {
			if setting, ok := cached.(*UserSetting); ok {
				return setting, nil
			}
		}
	}

	list, err := s.driver.ListUserSettings(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	setting := list[0]
	s.userSettingCache.Set(ctx, userSettingCacheKey(setting.UserID), setting)
	return setting, nil
}

// UpdateUserSetting applies a partial mutation on top of the current
// settings (defaults when no row exists yet) and invalidates the cache
// so the similarity engine's visibility filter sees the new value.
func (s *Store) UpdateUserSetting(ctx context.Context, update *UpdateUserSetting) (*UserSetting, error) {
	current, err := s.GetUserSetting(ctx, &FindUserSetting{UserID: &update.UserID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = defaultUserSetting(update.UserID)
	}

	if update.AIEnabled != nil {
		current.AIEnabled = *update.AIEnabled
	}
	if update.ReminderTime != nil {
		current.ReminderTime = *update.ReminderTime
	}
	if update.SearchAllowed != nil {
		current.SearchAllowed = *update.SearchAllowed
	}

	setting, err := s.driver.UpsertUserSetting(ctx, current)
	if err != nil {
		return nil, err
	}
	s.userSettingCache.Delete(ctx, userSettingCacheKey(update.UserID))
	return setting, nil
}

func (s *Store) ListUserSettings(ctx context.Context, find *FindUserSetting) ([]*UserSetting, error) {
	return s.driver.ListUserSettings(ctx, find)
}

func userSettingCacheKey(userID string) string {
	return fmt.Sprintf("setting:%s", userID)
}
