package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO "user" (id, created_ts)
		VALUES (` + placeholders(2) + `)
		RETURNING id, created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt, create.ID, create.CreatedTs).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return create, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}

	query := `
		SELECT id, created_ts
		FROM "user"
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	list := []*store.User{}
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		list = append(list, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpsertUserSetting(ctx context.Context, upsert *store.UserSetting) (*store.UserSetting, error) {
	stmt := `
		INSERT INTO user_setting (user_id, ai_enabled, reminder_time, search_allowed)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (user_id)
		DO UPDATE SET
			ai_enabled = EXCLUDED.ai_enabled,
			reminder_time = EXCLUDED.reminder_time,
			search_allowed = EXCLUDED.search_allowed
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.UserID,
		upsert.AIEnabled,
		upsert.ReminderTime,
		upsert.SearchAllowed,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user setting")
	}
	return upsert, nil
}

func (d *DB) ListUserSettings(ctx context.Context, find *store.FindUserSetting) ([]*store.UserSetting, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}

	query := `
		SELECT user_id, ai_enabled, reminder_time, search_allowed
		FROM user_setting
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY user_id
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user settings")
	}
	defer rows.Close()

	list := []*store.UserSetting{}
	for rows.Next() {
		var setting store.UserSetting
		if err := rows.Scan(
			&setting.UserID,
			&setting.AIEnabled,
			&setting.ReminderTime,
			&setting.SearchAllowed,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user setting")
		}
		list = append(list, &setting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
