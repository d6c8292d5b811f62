package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	TargetKindPost    = "post"
	TargetKindComment = "comment"
)

const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

type EngagementRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewEngagementRepository(zap *zap.Logger, db *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{
		Log: zap,
		DB:  db,
	}
}

func (repository *EngagementRepository) CheckTargetExists(ctx context.Context, kind string, targetId uuid.UUID) (int, error) {
	query := psql.Select("1").Where(sq.Eq{"id": targetId})
	switch kind {
	case TargetKindComment:
		query = query.From("comments").Where(sq.Eq{"is_deleted": false})
	default:
		query = query.From("posts")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var exists int
	err = repository.DB.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

func (repository *EngagementRepository) IncrementViewCount(ctx context.Context, kind string, targetId uuid.UUID) (int, error) {
	sql, args, err := psql.Insert("engagement_counters").
		Columns("target_kind", "target_id", "view_count").
		Values(kind, targetId, 1).
		Suffix("ON CONFLICT (target_kind, target_id) DO UPDATE SET view_count = engagement_counters.view_count + 1 RETURNING view_count").
		ToSql()
	if err != nil {
		return 0, err
	}

	var viewCount int
	err = repository.DB.QueryRow(ctx, sql, args...).Scan(&viewCount)
	if err != nil {
		return 0, err
	}

	return viewCount, nil
}

// CreateLike reports whether a row was inserted; false means the viewer
// already liked the target.
func (repository *EngagementRepository) CreateLike(ctx context.Context, tx pgx.Tx, like model.Like) (bool, error) {
	sql, args, err := psql.Insert("likes").
		Columns("target_kind", "target_id", "user_id", "create_datetime").
		Values(like.TargetKind, like.TargetId, like.UserId, like.CreateDatetime).
		Suffix("ON CONFLICT (target_kind, target_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (repository *EngagementRepository) DeleteLike(ctx context.Context, tx pgx.Tx, kind string, targetId uuid.UUID, userId uuid.UUID) error {
	sql, args, err := psql.Delete("likes").
		Where(sq.Eq{"target_kind": kind, "target_id": targetId, "user_id": userId}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	return nil
}

// AdjustLikeCount applies delta to the cached like counter and returns the
// new value. The counter never drops below zero.
func (repository *EngagementRepository) AdjustLikeCount(ctx context.Context, tx pgx.Tx, kind string, targetId uuid.UUID, delta int) (int, error) {
	initial := delta
	if initial < 0 {
		initial = 0
	}

	sql, args, err := psql.Insert("engagement_counters").
		Columns("target_kind", "target_id", "like_count").
		Values(kind, targetId, initial).
		Suffix("ON CONFLICT (target_kind, target_id) DO UPDATE SET like_count = GREATEST(engagement_counters.like_count + ?, 0) RETURNING like_count", delta).
		ToSql()
	if err != nil {
		return 0, err
	}

	var likeCount int
	err = tx.QueryRow(ctx, sql, args...).Scan(&likeCount)
	if err != nil {
		return 0, err
	}

	return likeCount, nil
}

func commentColumns(viewerId uuid.UUID) sq.SelectBuilder {
	return psql.Select(
		"c.id", "c.post_id", "c.parent_id", "c.root_id", "c.author_id", "c.author_name",
		"c.content", "c.is_deleted", "c.create_datetime", "c.update_datetime",
		"COALESCE(ec.like_count, 0) AS like_count",
		"(SELECT COUNT(*) FROM comments r WHERE r.root_id = c.id AND r.is_deleted = FALSE) AS reply_count",
	).
		Column(sq.Expr("EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'comment' AND l.target_id = c.id AND l.user_id = ?) AS is_liked", viewerId)).
		From("comments c").
		LeftJoin("engagement_counters ec ON ec.target_kind = 'comment' AND ec.target_id = c.id")
}

func scanComment(row sq.RowScanner) (model.CommentRow, error) {
	var comment model.CommentRow
	err := row.Scan(
		&comment.Id, &comment.PostId, &comment.ParentId, &comment.RootId, &comment.AuthorId, &comment.AuthorName,
		&comment.Content, &comment.IsDeleted, &comment.CreateDatetime, &comment.UpdateDatetime,
		&comment.LikeCount, &comment.ReplyCount, &comment.IsLiked,
	)
	if err != nil {
		return comment, err
	}

	return comment, nil
}

func (repository *EngagementRepository) queryComments(ctx context.Context, query sq.SelectBuilder) ([]model.CommentRow, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repository.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.CommentRow{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (repository *EngagementRepository) CountTopLevelComments(ctx context.Context, postId uuid.UUID) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("comments").
		Where(sq.Eq{"post_id": postId, "parent_id": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var total int
	err = repository.DB.QueryRow(ctx, sql, args...).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (repository *EngagementRepository) GetTopLevelComments(ctx context.Context, postId uuid.UUID, viewerId uuid.UUID, limit int, offset int, sortBy string) ([]model.CommentRow, error) {
	query := commentColumns(viewerId).
		Where(sq.Eq{"c.post_id": postId, "c.parent_id": nil}).
		Limit(uint64(limit)).
		Offset(uint64(offset))

	switch sortBy {
	case SortOldest:
		query = query.OrderBy("c.create_datetime ASC", "c.id ASC")
	case SortPopular:
		query = query.OrderBy("like_count DESC", "c.create_datetime DESC", "c.id DESC")
	default:
		query = query.OrderBy("c.create_datetime DESC", "c.id DESC")
	}

	return repository.queryComments(ctx, query)
}

func (repository *EngagementRepository) GetReplies(ctx context.Context, rootId uuid.UUID, viewerId uuid.UUID, limit int) ([]model.CommentRow, error) {
	query := commentColumns(viewerId).
		Where(sq.Eq{"c.root_id": rootId}).
		OrderBy("c.create_datetime ASC", "c.id ASC").
		Limit(uint64(limit))

	return repository.queryComments(ctx, query)
}

func (repository *EngagementRepository) GetComment(ctx context.Context, commentId uuid.UUID, viewerId uuid.UUID) (model.CommentRow, error) {
	sql, args, err := commentColumns(viewerId).Where(sq.Eq{"c.id": commentId}).ToSql()
	if err != nil {
		return model.CommentRow{}, err
	}

	return scanComment(repository.DB.QueryRow(ctx, sql, args...))
}

func (repository *EngagementRepository) CreateComment(ctx context.Context, comment model.Comment) error {
	sql, args, err := psql.Insert("comments").
		Columns("id", "post_id", "parent_id", "root_id", "author_id", "author_name", "content", "is_deleted", "create_datetime", "update_datetime").
		Values(comment.Id, comment.PostId, comment.ParentId, comment.RootId, comment.AuthorId, comment.AuthorName, comment.Content, comment.IsDeleted, comment.CreateDatetime, comment.UpdateDatetime).
		ToSql()
	if err != nil {
		return err
	}

	_, err = repository.DB.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	return nil
}

func (repository *EngagementRepository) CheckCommentOwnership(ctx context.Context, commentId uuid.UUID, userId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM comments WHERE id = $1 AND author_id = $2 AND is_deleted = FALSE"

	var exists int
	err := repository.DB.QueryRow(ctx, query, commentId, userId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

func (repository *EngagementRepository) UpdateCommentContent(ctx context.Context, commentId uuid.UUID, content string, updateDatetime time.Time) error {
	query := "UPDATE comments SET content = $1, update_datetime = $2 WHERE id = $3"

	_, err := repository.DB.Exec(ctx, query, content, updateDatetime, commentId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *EngagementRepository) SoftDeleteComment(ctx context.Context, commentId uuid.UUID, updateDatetime time.Time) error {
	query := "UPDATE comments SET is_deleted = TRUE, content = '', update_datetime = $1 WHERE id = $2"

	_, err := repository.DB.Exec(ctx, query, updateDatetime, commentId)
	if err != nil {
		return err
	}

	return nil
}
