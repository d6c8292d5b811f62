// Package engagement keeps per-resource engagement state (views, likes) and
// two-level comment threads consistent for one browsing session while
// requests to the data backend are in flight.
package engagement

import (
	"context"
	"strings"
	"time"
)

type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

func (kind Kind) IsValid() bool {
	switch kind {
	case KindPost, KindComment:
		return true
	default:
		return false
	}
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.IsValid() {
		return "", invalid("parse_kind", Target{}, "Unknown engagement target kind", nil)
	}

	return kind, nil
}

// Target identifies a likeable/viewable resource.
type Target struct {
	ID   string
	Kind Kind
}

func (target Target) Validate() error {
	if strings.TrimSpace(target.ID) == "" {
		return invalid("validate_target", target, "Target id is required", nil)
	}
	if !target.Kind.IsValid() {
		return invalid("validate_target", target, "Unknown engagement target kind", nil)
	}

	return nil
}

func (target Target) String() string {
	return string(target.Kind) + ":" + target.ID
}

// ViewRecord is the session-local proof that a view was counted.
type ViewRecord struct {
	TargetID   string
	RecordedAt time.Time
}

// LikeState is the client-held projection of the server's like truth.
type LikeState struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
	Pending   bool `json:"pending"`
}

type CommentNode struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	ParentID   *string   `json:"parentId"`
	RootID     *string   `json:"rootId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	LikeState  LikeState `json:"likeState"`
	ReplyCount int       `json:"replyCount"`
	IsDeleted  bool      `json:"isDeleted"`
}

func (node CommentNode) IsReply() bool {
	return node.ParentID != nil && *node.ParentID != ""
}

// ThreadRootID returns the top-level ancestor id: the node itself for
// top-level comments, RootID for replies.
func (node CommentNode) ThreadRootID() string {
	if !node.IsReply() {
		return node.ID
	}
	if node.RootID != nil && *node.RootID != "" {
		return *node.RootID
	}

	return *node.ParentID
}

func (node CommentNode) Target() Target {
	return Target{ID: node.ID, Kind: KindComment}
}

type PageWindow struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPageWindow(page, limit, total int) PageWindow {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if total < 0 {
		total = 0
	}

	return PageWindow{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

type CommentPage struct {
	Items      []CommentNode `json:"items"`
	Pagination PageWindow    `json:"pagination"`
}

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortPopular SortOrder = "popular"
)

func ParseSortOrder(value string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case SortOldest:
		return SortOldest
	case SortPopular:
		return SortPopular
	default:
		return SortNewest
	}
}

type ListQuery struct {
	Page   int
	Limit  int
	SortBy SortOrder
}

const (
	DefaultPageLimit  = 10
	MaxPageLimit      = 50
	DefaultReplyLimit = 100
)

type LikeResult struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

type CreateCommentInput struct {
	PostID   string
	Content  string
	ParentID *string
}

// Backend is the remote data-access collaborator. Implementations own
// transport, timeouts and viewer identity; every method may block.
type Backend interface {
	IncrementView(ctx context.Context, targetID string, kind Kind) (int, error)
	ToggleLike(ctx context.Context, targetID string, kind Kind) (LikeResult, error)
	ListTopLevelComments(ctx context.Context, postID string, query ListQuery) (CommentPage, error)
	ListReplies(ctx context.Context, parentCommentID string, limit int) ([]CommentNode, error)
	CreateComment(ctx context.Context, input CreateCommentInput) (CommentNode, error)
	UpdateComment(ctx context.Context, id string, content string) (CommentNode, error)
	DeleteComment(ctx context.Context, id string) error
}

type Identity interface {
	UserID() string
	Username() string
	IsAuthenticated() bool
	// IsSettled reports whether identity resolution has finished.
	IsSettled() bool
}

// MarkerStore persists session-scoped view markers across remounts.
type MarkerStore interface {
	IsMarked(ctx context.Context, sessionID string, targetID string) (bool, error)
	Mark(ctx context.Context, sessionID string, targetID string) error
}

type StaticIdentity struct {
	ID            string
	Name          string
	Authenticated bool
	Unsettled     bool
}

func Anonymous() StaticIdentity {
	return StaticIdentity{}
}

func (identity StaticIdentity) UserID() string        { return identity.ID }
func (identity StaticIdentity) Username() string      { return identity.Name }
func (identity StaticIdentity) IsAuthenticated() bool { return identity.Authenticated && identity.ID != "" }
func (identity StaticIdentity) IsSettled() bool       { return !identity.Unsettled }
