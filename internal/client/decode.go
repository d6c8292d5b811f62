package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/engagement"
)

// ParseError is a response that does not hold what the engine needs. Decoders
// fail closed instead of filling in guesses.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid backend response: %s: %s", e.Field, e.Reason)
}

func missing(field string) *ParseError {
	return &ParseError{Field: field, Reason: "is required"}
}

type wireAuthor struct {
	ID       *string `json:"id"`
	Username *string `json:"username"`
}

type wireComment struct {
	ID         *string     `json:"id"`
	PostID     *string     `json:"postId"`
	ParentID   *string     `json:"parentId"`
	RootID     *string     `json:"rootId"`
	AuthorID   *string     `json:"authorId"`
	AuthorName *string     `json:"authorName"`
	Author     *wireAuthor `json:"author"`
	Content    *string     `json:"content"`
	CreatedAt  *time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time  `json:"updatedAt"`
	LikeCount  *int        `json:"likeCount"`
	IsLiked    *bool       `json:"isLiked"`
	ReplyCount *int        `json:"replyCount"`
	IsDeleted  *bool       `json:"isDeleted"`
}

type wirePagination struct {
	Page       *int `json:"page"`
	Limit      *int `json:"limit"`
	Total      *int `json:"total"`
	TotalPages *int `json:"totalPages"`
}

type wireCommentPage struct {
	Items      []wireComment   `json:"items"`
	Pagination *wirePagination `json:"pagination"`
}

type wireReplies struct {
	Items []wireComment `json:"items"`
}

type wireLikeResult struct {
	IsLiked   *bool `json:"isLiked"`
	LikeCount *int  `json:"likeCount"`
}

type wireViewCount struct {
	ViewCount *int `json:"viewCount"`
}

type wireError struct {
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func nonEmpty(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func count(field string, value *int) (int, error) {
	if value == nil {
		return 0, nil
	}
	if *value < 0 {
		return 0, &ParseError{Field: field, Reason: "must not be negative"}
	}

	return *value, nil
}

func decodeViewCount(data []byte) (int, error) {
	var wire wireViewCount
	err := sonic.Unmarshal(data, &wire)
	if err != nil {
		return 0, &ParseError{Field: "body", Reason: err.Error()}
	}

	if wire.ViewCount == nil {
		return 0, missing("viewCount")
	}

	return count("viewCount", wire.ViewCount)
}

func decodeLikeResult(data []byte) (engagement.LikeResult, error) {
	var wire wireLikeResult
	err := sonic.Unmarshal(data, &wire)
	if err != nil {
		return engagement.LikeResult{}, &ParseError{Field: "body", Reason: err.Error()}
	}

	if wire.IsLiked == nil {
		return engagement.LikeResult{}, missing("isLiked")
	}
	if wire.LikeCount == nil {
		return engagement.LikeResult{}, missing("likeCount")
	}

	likeCount, err := count("likeCount", wire.LikeCount)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	return engagement.LikeResult{IsLiked: *wire.IsLiked, LikeCount: likeCount}, nil
}

func (wire wireComment) node(field string) (engagement.CommentNode, error) {
	if !nonEmpty(wire.ID) {
		return engagement.CommentNode{}, missing(field + ".id")
	}
	if !nonEmpty(wire.PostID) {
		return engagement.CommentNode{}, missing(field + ".postId")
	}
	if wire.CreatedAt == nil {
		return engagement.CommentNode{}, missing(field + ".createdAt")
	}

	node := engagement.CommentNode{
		ID:        *wire.ID,
		PostID:    *wire.PostID,
		CreatedAt: *wire.CreatedAt,
		UpdatedAt: *wire.CreatedAt,
	}

	if wire.UpdatedAt != nil {
		node.UpdatedAt = *wire.UpdatedAt
	}
	if wire.IsDeleted != nil {
		node.IsDeleted = *wire.IsDeleted
	}

	switch {
	case wire.Content != nil:
		node.Content = *wire.Content
	case !node.IsDeleted:
		return engagement.CommentNode{}, missing(field + ".content")
	}

	switch {
	case nonEmpty(wire.AuthorID):
		node.AuthorID = *wire.AuthorID
	case wire.Author != nil && nonEmpty(wire.Author.ID):
		node.AuthorID = *wire.Author.ID
	default:
		return engagement.CommentNode{}, missing(field + ".authorId")
	}

	switch {
	case nonEmpty(wire.AuthorName):
		node.AuthorName = *wire.AuthorName
	case wire.Author != nil && nonEmpty(wire.Author.Username):
		node.AuthorName = *wire.Author.Username
	}

	if nonEmpty(wire.ParentID) {
		if !nonEmpty(wire.RootID) {
			return engagement.CommentNode{}, &ParseError{Field: field + ".rootId", Reason: "is required for replies"}
		}
		parentID := *wire.ParentID
		rootID := *wire.RootID
		node.ParentID = &parentID
		node.RootID = &rootID
	}

	likeCount, err := count(field+".likeCount", wire.LikeCount)
	if err != nil {
		return engagement.CommentNode{}, err
	}
	replyCount, err := count(field+".replyCount", wire.ReplyCount)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	node.LikeState = engagement.LikeState{LikeCount: likeCount}
	if wire.IsLiked != nil {
		node.LikeState.IsLiked = *wire.IsLiked
	}
	node.ReplyCount = replyCount

	return node, nil
}

func decodeComment(data []byte) (engagement.CommentNode, error) {
	var wire wireComment
	err := sonic.Unmarshal(data, &wire)
	if err != nil {
		return engagement.CommentNode{}, &ParseError{Field: "body", Reason: err.Error()}
	}

	return wire.node("comment")
}

func decodeCommentPage(data []byte) (engagement.CommentPage, error) {
	var wire wireCommentPage
	err := sonic.Unmarshal(data, &wire)
	if err != nil {
		return engagement.CommentPage{}, &ParseError{Field: "body", Reason: err.Error()}
	}

	if wire.Pagination == nil {
		return engagement.CommentPage{}, missing("pagination")
	}
	if wire.Pagination.Page == nil || *wire.Pagination.Page < 1 {
		return engagement.CommentPage{}, &ParseError{Field: "pagination.page", Reason: "must be at least 1"}
	}
	if wire.Pagination.Limit == nil || *wire.Pagination.Limit < 1 {
		return engagement.CommentPage{}, &ParseError{Field: "pagination.limit", Reason: "must be at least 1"}
	}
	if wire.Pagination.Total == nil {
		return engagement.CommentPage{}, missing("pagination.total")
	}

	total, err := count("pagination.total", wire.Pagination.Total)
	if err != nil {
		return engagement.CommentPage{}, err
	}

	page := engagement.CommentPage{
		Items:      make([]engagement.CommentNode, 0, len(wire.Items)),
		Pagination: engagement.NewPageWindow(*wire.Pagination.Page, *wire.Pagination.Limit, total),
	}
	if wire.Pagination.TotalPages != nil && *wire.Pagination.TotalPages >= 0 {
		page.Pagination.TotalPages = *wire.Pagination.TotalPages
	}

	for i, item := range wire.Items {
		node, err := item.node(fmt.Sprintf("items[%d]", i))
		if err != nil {
			return engagement.CommentPage{}, err
		}
		if node.IsReply() {
			return engagement.CommentPage{}, &ParseError{Field: fmt.Sprintf("items[%d].parentId", i), Reason: "top-level page contains a reply"}
		}

		page.Items = append(page.Items, node)
	}

	return page, nil
}

func decodeReplies(data []byte, rootID string) ([]engagement.CommentNode, error) {
	var wire wireReplies
	err := sonic.Unmarshal(data, &wire)
	if err != nil {
		return nil, &ParseError{Field: "body", Reason: err.Error()}
	}

	replies := make([]engagement.CommentNode, 0, len(wire.Items))
	for i, item := range wire.Items {
		field := fmt.Sprintf("items[%d]", i)
		node, err := item.node(field)
		if err != nil {
			return nil, err
		}
		if !node.IsReply() {
			return nil, &ParseError{Field: field + ".parentId", Reason: "reply list contains a top-level comment"}
		}
		if node.ThreadRootID() != rootID {
			return nil, &ParseError{Field: field + ".rootId", Reason: "belongs to another thread"}
		}

		replies = append(replies, node)
	}

	return replies, nil
}

func decodeErrorMessage(data []byte, status int) string {
	var wire wireError
	err := sonic.Unmarshal(data, &wire)
	if err == nil {
		if wire.Error != nil && wire.Error.Message != "" {
			return wire.Error.Message
		}
		if wire.Message != "" {
			return wire.Message
		}
	}

	return http.StatusText(status)
}
