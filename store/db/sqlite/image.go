package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/store"
)

// ============================================================================
// SQLITE VECTOR SUPPORT
// ============================================================================
// SQLite has no pgvector equivalent. Embeddings are persisted as JSON text
// so ingest and listing work everywhere; k-nearest-neighbor ranking is done
// by the in-process brute-force index (server/query) instead of in SQL.
//
// For database-side similarity search, use PostgreSQL.
// ============================================================================

func (d *DB) CreateImage(ctx context.Context, create *store.Image) (*store.Image, error) {
	embedding, err := json.Marshal(create.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}

	stmt := `
		INSERT INTO image (id, user_id, emotion, file_path, embedding, created_ts)
		VALUES (` + placeholders(6) + `)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.UserID,
		string(create.Emotion),
		create.FilePath,
		string(embedding),
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create image")
	}
	return create, nil
}

func (d *DB) ListImages(ctx context.Context, find *store.FindImage) ([]*store.Image, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "image.id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "image.user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Emotion != nil {
		where, args = append(where, "image.emotion = "+placeholder(len(args)+1)), append(args, string(*find.Emotion))
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "image.created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "image.created_ts < "+placeholder(len(args)+1)), append(args, *find.CreatedBefore)
	}
	if find.ExcludeUserID != nil {
		where, args = append(where, "image.user_id != "+placeholder(len(args)+1)), append(args, *find.ExcludeUserID)
	}

	join := ""
	if find.SearchAllowedOnly {
		join = "INNER JOIN user_setting ON user_setting.user_id = image.user_id AND user_setting.search_allowed = 1"
	}

	query := `
		SELECT image.id, image.user_id, image.emotion, image.file_path, image.embedding, image.created_ts
		FROM image ` + join + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY image.created_ts DESC, image.id
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list images")
	}
	defer rows.Close()

	list := []*store.Image{}
	for rows.Next() {
		var image store.Image
		var embedding string
		if err := rows.Scan(
			&image.ID,
			&image.UserID,
			&image.Emotion,
			&image.FilePath,
			&embedding,
			&image.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan image")
		}
		if err := json.Unmarshal([]byte(embedding), &image.Embedding); err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for image %s", image.ID)
		}
		list = append(list, &image)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// VectorSearch is NOT supported for SQLite.
// Similarity ranking over SQLite goes through the in-process brute-force
// index in server/query.
func (d *DB) VectorSearch(context.Context, *store.VectorSearchOptions) ([]*store.ImageWithDistance, error) {
	return nil, errors.New("vector search requires PostgreSQL with pgvector extension")
}

func (d *DB) CountDistinctSubmitters(ctx context.Context, find *store.FindImage) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Emotion != nil {
		where, args = append(where, "emotion = "+placeholder(len(args)+1)), append(args, string(*find.Emotion))
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "created_ts < "+placeholder(len(args)+1)), append(args, *find.CreatedBefore)
	}

	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM image
		WHERE ` + strings.Join(where, " AND ")

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count distinct submitters")
	}
	return count, nil
}
