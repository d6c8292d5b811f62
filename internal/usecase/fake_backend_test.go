package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ferdian3456/virdanengage/internal/engagement"
)

var errUnavailable = errors.New("backend unavailable")

type stubBackend struct {
	mu       sync.Mutex
	liked    map[string]bool
	likes    map[string]int
	comments []engagement.CommentNode
	failLike bool
	token    string
	next     int
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		liked: make(map[string]bool),
		likes: make(map[string]int),
	}
}

func (s *stubBackend) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *stubBackend) IncrementView(ctx context.Context, targetID string, kind engagement.Kind) (int, error) {
	return 1, nil
}

func (s *stubBackend) ToggleLike(ctx context.Context, targetID string, kind engagement.Kind) (engagement.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLike {
		return engagement.LikeResult{}, errUnavailable
	}

	s.liked[targetID] = !s.liked[targetID]
	if s.liked[targetID] {
		s.likes[targetID]++
	} else {
		s.likes[targetID]--
	}

	return engagement.LikeResult{IsLiked: s.liked[targetID], LikeCount: s.likes[targetID]}, nil
}

func (s *stubBackend) ListTopLevelComments(ctx context.Context, postID string, query engagement.ListQuery) (engagement.CommentPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []engagement.CommentNode{}
	for _, comment := range s.comments {
		if comment.PostID == postID && !comment.IsReply() {
			items = append(items, comment)
		}
	}

	total := len(items)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	return engagement.CommentPage{Items: items[start:end], Pagination: engagement.NewPageWindow(query.Page, query.Limit, total)}, nil
}

func (s *stubBackend) ListReplies(ctx context.Context, parentCommentID string, limit int) ([]engagement.CommentNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replies := []engagement.CommentNode{}
	for _, comment := range s.comments {
		if comment.IsReply() && comment.ThreadRootID() == parentCommentID {
			replies = append(replies, comment)
		}
	}

	return replies, nil
}

func (s *stubBackend) CreateComment(ctx context.Context, input engagement.CreateCommentInput) (engagement.CommentNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	now := time.Now().UTC()
	node := engagement.CommentNode{
		ID:        "c" + strconv.Itoa(s.next),
		PostID:    input.PostID,
		ParentID:  input.ParentID,
		RootID:    input.ParentID,
		AuthorID:  "u1",
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments = append(s.comments, node)

	return node, nil
}

func (s *stubBackend) UpdateComment(ctx context.Context, id string, content string) (engagement.CommentNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Content = content
			return s.comments[i], nil
		}
	}

	return engagement.CommentNode{}, engagement.Rejected("Comment not found")
}

func (s *stubBackend) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].IsDeleted = true
			s.comments[i].Content = ""
			return nil
		}
	}

	return engagement.Rejected("Comment not found")
}
