package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ViewerBackend serves engagement.Backend from PostgreSQL on behalf of one
// viewer. A zero viewer id is anonymous and may only read.
type ViewerBackend struct {
	EngagementRepository *repository.EngagementRepository
	PostRepository       *repository.PostRepository
	DB                   *pgxpool.Pool
	Log                  *zap.Logger
	ViewerId             uuid.UUID
	ViewerName           string
}

var _ engagement.Backend = (*ViewerBackend)(nil)

func NewViewerBackend(engagementRepository *repository.EngagementRepository, postRepository *repository.PostRepository, db *pgxpool.Pool, zap *zap.Logger, viewerId uuid.UUID, viewerName string) *ViewerBackend {
	return &ViewerBackend{
		EngagementRepository: engagementRepository,
		PostRepository:       postRepository,
		DB:                   db,
		Log:                  zap,
		ViewerId:             viewerId,
		ViewerName:           viewerName,
	}
}

func parseTargetId(kind engagement.Kind, id string) (uuid.UUID, error) {
	targetId, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, engagement.Rejected("Invalid " + string(kind) + " id")
	}

	return targetId, nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", engagement.Rejected("Content is required")
	}
	if utf8.RuneCountInString(content) > constant.MAX_COMMENT_LENGTH {
		return "", engagement.Rejected("Content is too long")
	}

	return content, nil
}

func (backend *ViewerBackend) requireTarget(ctx context.Context, kind engagement.Kind, id string) (uuid.UUID, error) {
	targetId, err := parseTargetId(kind, id)
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := backend.EngagementRepository.CheckTargetExists(ctx, string(kind), targetId)
	if err != nil {
		return uuid.Nil, err
	}

	if exists != 1 {
		if kind == engagement.KindComment {
			return uuid.Nil, engagement.Rejected("Comment not found")
		}
		return uuid.Nil, engagement.Rejected("Post not found")
	}

	return targetId, nil
}

func (backend *ViewerBackend) IncrementView(ctx context.Context, targetID string, kind engagement.Kind) (int, error) {
	targetId, err := backend.requireTarget(ctx, kind, targetID)
	if err != nil {
		return 0, err
	}

	return backend.EngagementRepository.IncrementViewCount(ctx, string(kind), targetId)
}

func (backend *ViewerBackend) ToggleLike(ctx context.Context, targetID string, kind engagement.Kind) (engagement.LikeResult, error) {
	if backend.ViewerId == uuid.Nil {
		return engagement.LikeResult{}, engagement.Unauthenticated()
	}

	targetId, err := backend.requireTarget(ctx, kind, targetID)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	commited := false

	// Start transaction
	tx, err := backend.DB.Begin(ctx)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	like := model.Like{
		TargetKind:     string(kind),
		TargetId:       targetId,
		UserId:         backend.ViewerId,
		CreateDatetime: time.Now().UTC(),
	}

	inserted, err := backend.EngagementRepository.CreateLike(ctx, tx, like)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	delta := 1
	if !inserted {
		// Already liked, so this toggle is an unlike
		err = backend.EngagementRepository.DeleteLike(ctx, tx, string(kind), targetId, backend.ViewerId)
		if err != nil {
			return engagement.LikeResult{}, err
		}
		delta = -1
	}

	likeCount, err := backend.EngagementRepository.AdjustLikeCount(ctx, tx, string(kind), targetId, delta)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	commited = true

	return engagement.LikeResult{IsLiked: inserted, LikeCount: likeCount}, nil
}

func (backend *ViewerBackend) ListTopLevelComments(ctx context.Context, postID string, query engagement.ListQuery) (engagement.CommentPage, error) {
	postId, err := backend.requireTarget(ctx, engagement.KindPost, postID)
	if err != nil {
		return engagement.CommentPage{}, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = engagement.DefaultPageLimit
	} else if limit > engagement.MaxPageLimit {
		limit = engagement.MaxPageLimit
	}

	total, err := backend.EngagementRepository.CountTopLevelComments(ctx, postId)
	if err != nil {
		return engagement.CommentPage{}, err
	}

	rows, err := backend.EngagementRepository.GetTopLevelComments(ctx, postId, backend.ViewerId, limit, (page-1)*limit, string(engagement.ParseSortOrder(string(query.SortBy))))
	if err != nil {
		return engagement.CommentPage{}, err
	}

	return engagement.CommentPage{
		Items:      toCommentNodes(rows),
		Pagination: engagement.NewPageWindow(page, limit, total),
	}, nil
}

func (backend *ViewerBackend) ListReplies(ctx context.Context, parentCommentID string, limit int) ([]engagement.CommentNode, error) {
	rootId, err := parseTargetId(engagement.KindComment, parentCommentID)
	if err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = engagement.DefaultReplyLimit
	}

	rows, err := backend.EngagementRepository.GetReplies(ctx, rootId, backend.ViewerId, limit)
	if err != nil {
		return nil, err
	}

	return toCommentNodes(rows), nil
}

func (backend *ViewerBackend) CreateComment(ctx context.Context, input engagement.CreateCommentInput) (engagement.CommentNode, error) {
	if backend.ViewerId == uuid.Nil {
		return engagement.CommentNode{}, engagement.Unauthenticated()
	}

	content, err := validateCommentContent(input.Content)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	postId, err := backend.requireTarget(ctx, engagement.KindPost, input.PostID)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	var rootId *uuid.UUID
	if input.ParentID != nil && *input.ParentID != "" {
		parentId, err := parseTargetId(engagement.KindComment, *input.ParentID)
		if err != nil {
			return engagement.CommentNode{}, err
		}

		parent, err := backend.EngagementRepository.GetComment(ctx, parentId, backend.ViewerId)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return engagement.CommentNode{}, engagement.Rejected("Parent comment not found")
			}
			return engagement.CommentNode{}, err
		}

		if parent.PostId != postId {
			return engagement.CommentNode{}, engagement.Rejected("Parent comment belongs to another post")
		}
		if parent.IsDeleted {
			return engagement.CommentNode{}, engagement.Rejected("Cannot reply to a deleted comment")
		}

		// Replies to replies join the thread of their root
		root := parent.Id
		if parent.RootId != nil {
			root = *parent.RootId
		}
		rootId = &root
	}

	now := time.Now().UTC()
	comment := model.Comment{
		Id:             uuid.New(),
		PostId:         postId,
		ParentId:       rootId,
		RootId:         rootId,
		AuthorId:       backend.ViewerId,
		AuthorName:     backend.ViewerName,
		Content:        content,
		CreateDatetime: now,
		UpdateDatetime: now,
	}

	err = backend.EngagementRepository.CreateComment(ctx, comment)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	return toCommentNode(model.CommentRow{Comment: comment}), nil
}

func (backend *ViewerBackend) requireOwnComment(ctx context.Context, id string) (uuid.UUID, error) {
	if backend.ViewerId == uuid.Nil {
		return uuid.Nil, engagement.Unauthenticated()
	}

	commentId, err := parseTargetId(engagement.KindComment, id)
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := backend.EngagementRepository.CheckCommentOwnership(ctx, commentId, backend.ViewerId)
	if err != nil {
		return uuid.Nil, err
	}

	if exists != 1 {
		return uuid.Nil, engagement.Rejected("You are not the author of this comment")
	}

	return commentId, nil
}

func (backend *ViewerBackend) UpdateComment(ctx context.Context, id string, content string) (engagement.CommentNode, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	commentId, err := backend.requireOwnComment(ctx, id)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	err = backend.EngagementRepository.UpdateCommentContent(ctx, commentId, content, time.Now().UTC())
	if err != nil {
		return engagement.CommentNode{}, err
	}

	row, err := backend.EngagementRepository.GetComment(ctx, commentId, backend.ViewerId)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	return toCommentNode(row), nil
}

func (backend *ViewerBackend) DeleteComment(ctx context.Context, id string) error {
	commentId, err := backend.requireOwnComment(ctx, id)
	if err != nil {
		return err
	}

	return backend.EngagementRepository.SoftDeleteComment(ctx, commentId, time.Now().UTC())
}

func toCommentNode(row model.CommentRow) engagement.CommentNode {
	node := engagement.CommentNode{
		ID:         row.Id.String(),
		PostID:     row.PostId.String(),
		AuthorID:   row.AuthorId.String(),
		AuthorName: row.AuthorName,
		Content:    row.Content,
		CreatedAt:  row.CreateDatetime,
		UpdatedAt:  row.UpdateDatetime,
		LikeState:  engagement.LikeState{IsLiked: row.IsLiked, LikeCount: row.LikeCount},
		ReplyCount: row.ReplyCount,
		IsDeleted:  row.IsDeleted,
	}

	if row.ParentId != nil {
		parentId := row.ParentId.String()
		node.ParentID = &parentId
	}
	if row.RootId != nil {
		rootId := row.RootId.String()
		node.RootID = &rootId
	}
	if row.IsDeleted {
		node.Content = ""
	}

	return node
}

func toCommentNodes(rows []model.CommentRow) []engagement.CommentNode {
	nodes := make([]engagement.CommentNode, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, toCommentNode(row))
	}

	return nodes
}
