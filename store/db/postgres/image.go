package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/store"
)

func (d *DB) CreateImage(ctx context.Context, create *store.Image) (*store.Image, error) {
	stmt := `
		INSERT INTO image (id, user_id, emotion, file_path, embedding, created_ts)
		VALUES (` + placeholders(6) + `)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.UserID,
		string(create.Emotion),
		create.FilePath,
		pgvector.NewVector(create.Embedding),
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
		join = "INNER JOIN user_setting ON user_setting.user_id = image.user_id AND user_setting.search_allowed = TRUE"
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
		image, _, err := scanImage(rows, false)
		if err != nil {
			return nil, err
		}
		list = append(list, image)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// VectorSearch performs filtered vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity); the
// id tie-break keeps results deterministic for equidistant rows.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ImageWithDistance, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	vector := pgvector.NewVector(opts.Vector)
	where, args := []string{"1 = 1"}, []any{vector}

	if opts.Emotion != nil {
		where, args = append(where, "image.emotion = "+placeholder(len(args)+1)), append(args, string(*opts.Emotion))
	}
	if opts.ExcludeUserID != nil {
		where, args = append(where, "image.user_id != "+placeholder(len(args)+1)), append(args, *opts.ExcludeUserID)
	}
	if opts.CreatedAfter != nil {
		where, args = append(where, "image.created_ts >= "+placeholder(len(args)+1)), append(args, *opts.CreatedAfter)
	}
	if opts.CreatedBefore != nil {
		where, args = append(where, "image.created_ts < "+placeholder(len(args)+1)), append(args, *opts.CreatedBefore)
	}

	join := ""
	if opts.SearchAllowedOnly {
		join = "INNER JOIN user_setting ON user_setting.user_id = image.user_id AND user_setting.search_allowed = TRUE"
	}

	query := `
		SELECT image.id, image.user_id, image.emotion, image.file_path, image.embedding, image.created_ts,
			image.embedding <=> $1 AS distance
		FROM image ` + join + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY distance, image.id
		LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	list := []*store.ImageWithDistance{}
	for rows.Next() {
		image, distance, err := scanImage(rows, true)
		if err != nil {
			return nil, err
		}
		list = append(list, &store.ImageWithDistance{Image: image, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner, withDistance bool) (*store.Image, float64, error) {
	var image store.Image
	var vector pgvector.Vector
	var distance float64

	dest := []any{
		&image.ID,
		&image.UserID,
		&image.Emotion,
		&image.FilePath,
		&vector,
		&image.CreatedTs,
	}
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, errors.Wrap(err, "failed to scan image")
	}
	image.Embedding = vector.Slice()
	return &image, distance, nil
}
