package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewPostRepository(zap *zap.Logger, db *pgxpool.Pool) *PostRepository {
	return &PostRepository{
		Log: zap,
		DB:  db,
	}
}

func (repository *PostRepository) CreatePost(ctx context.Context, post model.Post) error {
	query := "INSERT INTO posts (id, author_id, author_name, title, content, create_datetime, update_datetime) VALUES ($1, $2, $3, $4, $5, $6, $7)"

	_, err := repository.DB.Exec(ctx, query, post.Id, post.AuthorId, post.AuthorName, post.Title, post.Content, post.CreateDatetime, post.UpdateDatetime)
	if err != nil {
		return err
	}

	return nil
}

func (repository *PostRepository) CheckPostExists(ctx context.Context, postId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM posts WHERE id = $1"

	var exists int
	err := repository.DB.QueryRow(ctx, query, postId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

// GetPost returns the post with its counters as seen by viewerId. A missing
// post is reported as pgx.ErrNoRows.
func (repository *PostRepository) GetPost(ctx context.Context, postId uuid.UUID, viewerId uuid.UUID) (model.PostDetail, error) {
	sql, args, err := psql.Select(
		"p.id", "p.author_id", "p.author_name", "p.title", "p.content",
		"COALESCE(ec.view_count, 0) AS view_count",
		"COALESCE(ec.like_count, 0) AS like_count",
		"(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.is_deleted = FALSE) AS comment_count",
		"p.create_datetime", "p.update_datetime",
	).
		Column(sq.Expr("EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'post' AND l.target_id = p.id AND l.user_id = ?) AS is_liked", viewerId)).
		From("posts p").
		LeftJoin("engagement_counters ec ON ec.target_kind = 'post' AND ec.target_id = p.id").
		Where(sq.Eq{"p.id": postId}).
		ToSql()
	if err != nil {
		return model.PostDetail{}, err
	}

	var post model.PostDetail
	err = repository.DB.QueryRow(ctx, sql, args...).Scan(
		&post.Id, &post.AuthorId, &post.AuthorName, &post.Title, &post.Content,
		&post.ViewCount, &post.LikeCount, &post.CommentCount,
		&post.CreateDatetime, &post.UpdateDatetime, &post.IsLiked,
	)
	if err != nil {
		return post, err
	}

	return post, nil
}
