package engagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend is an in-memory Backend. fail makes an operation return an
// error and gate holds an operation until the channel is closed.
type fakeBackend struct {
	mu           sync.Mutex
	calls        map[string]int
	fail         map[string]error
	gates        map[string]chan struct{}
	views        map[string]int
	likes        map[string]LikeResult
	comments     []CommentNode
	seq          int
	clock        time.Time
	listQueries  []ListQuery
	createInputs []CreateCommentInput
	toggleResult *LikeResult
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		views: make(map[string]int),
		likes: make(map[string]LikeResult),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (backend *fakeBackend) setFail(op string, err error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	if err == nil {
		delete(backend.fail, op)
		return
	}
	backend.fail[op] = err
}

func (backend *fakeBackend) hold(op string) chan struct{} {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	gate := make(chan struct{})
	backend.gates[op] = gate
	return gate
}

func (backend *fakeBackend) release(op string) {
	backend.mu.Lock()
	gate := backend.gates[op]
	delete(backend.gates, op)
	backend.mu.Unlock()

	if gate != nil {
		close(gate)
	}
}

func (backend *fakeBackend) count(op string) int {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	return backend.calls[op]
}

func (backend *fakeBackend) lastQuery() ListQuery {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	if len(backend.listQueries) == 0 {
		return ListQuery{}
	}
	return backend.listQueries[len(backend.listQueries)-1]
}

func (backend *fakeBackend) enter(ctx context.Context, op string) error {
	backend.mu.Lock()
	backend.calls[op]++
	gate := backend.gates[op]
	backend.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.fail[op]
}

// seed adds a comment directly to the store. parentID may be empty.
func (backend *fakeBackend) seed(postID string, parentID string, authorName string, content string) CommentNode {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	return backend.insert(postID, parentID, authorName, content)
}

func (backend *fakeBackend) insert(postID string, parentID string, authorName string, content string) CommentNode {
	backend.seq++
	node := CommentNode{
		ID:         fmt.Sprintf("c%d", backend.seq),
		PostID:     postID,
		AuthorID:   "author-" + authorName,
		AuthorName: authorName,
		Content:    content,
		CreatedAt:  backend.clock.Add(time.Duration(backend.seq) * time.Second),
	}
	node.UpdatedAt = node.CreatedAt

	if parentID != "" {
		root := parentID
		for _, comment := range backend.comments {
			if comment.ID == parentID {
				root = comment.ThreadRootID()
			}
		}
		node.ParentID = stringPtr(root)
		node.RootID = stringPtr(root)
	}

	backend.comments = append(backend.comments, node)
	return node
}

func (backend *fakeBackend) IncrementView(ctx context.Context, targetID string, kind Kind) (int, error) {
	err := backend.enter(ctx, "increment_view")
	if err != nil {
		return 0, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	backend.views[targetID]++
	return backend.views[targetID], nil
}

func (backend *fakeBackend) ToggleLike(ctx context.Context, targetID string, kind Kind) (LikeResult, error) {
	err := backend.enter(ctx, "toggle_like")
	if err != nil {
		return LikeResult{}, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	if backend.toggleResult != nil {
		return *backend.toggleResult, nil
	}

	current := backend.likes[targetID]
	current.IsLiked = !current.IsLiked
	if current.IsLiked {
		current.LikeCount++
	} else {
		current.LikeCount--
	}
	backend.likes[targetID] = current

	return current, nil
}

func (backend *fakeBackend) ListTopLevelComments(ctx context.Context, postID string, query ListQuery) (CommentPage, error) {
	backend.mu.Lock()
	backend.listQueries = append(backend.listQueries, query)
	backend.mu.Unlock()

	err := backend.enter(ctx, "list_comments")
	if err != nil {
		return CommentPage{}, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	var top []CommentNode
	for _, comment := range backend.comments {
		if comment.PostID != postID || comment.IsReply() {
			continue
		}

		for _, reply := range backend.comments {
			if reply.IsReply() && reply.ThreadRootID() == comment.ID && !reply.IsDeleted {
				comment.ReplyCount++
			}
		}
		comment.LikeState = LikeState{IsLiked: backend.likes[comment.ID].IsLiked, LikeCount: backend.likes[comment.ID].LikeCount}
		top = append(top, comment)
	}

	sort.SliceStable(top, func(i, j int) bool {
		if query.SortBy == SortOldest {
			return top[i].CreatedAt.Before(top[j].CreatedAt)
		}
		return top[i].CreatedAt.After(top[j].CreatedAt)
	})

	window := NewPageWindow(query.Page, query.Limit, len(top))
	start := (window.Page - 1) * window.Limit
	end := start + window.Limit
	if start > len(top) {
		start = len(top)
	}
	if end > len(top) {
		end = len(top)
	}

	return CommentPage{Items: append([]CommentNode{}, top[start:end]...), Pagination: window}, nil
}

func (backend *fakeBackend) ListReplies(ctx context.Context, parentCommentID string, limit int) ([]CommentNode, error) {
	err := backend.enter(ctx, "list_replies")
	if err != nil {
		return nil, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	// Newest first so callers have to order them.
	var replies []CommentNode
	for i := len(backend.comments) - 1; i >= 0; i-- {
		comment := backend.comments[i]
		if comment.IsReply() && comment.ThreadRootID() == parentCommentID {
			comment.LikeState = LikeState{IsLiked: backend.likes[comment.ID].IsLiked, LikeCount: backend.likes[comment.ID].LikeCount}
			replies = append(replies, comment)
		}
	}

	return replies, nil
}

func (backend *fakeBackend) CreateComment(ctx context.Context, input CreateCommentInput) (CommentNode, error) {
	backend.mu.Lock()
	backend.createInputs = append(backend.createInputs, input)
	backend.mu.Unlock()

	err := backend.enter(ctx, "create_comment")
	if err != nil {
		return CommentNode{}, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	parentID := ""
	if input.ParentID != nil {
		parentID = *input.ParentID
	}

	return backend.insert(input.PostID, parentID, "alice", input.Content), nil
}

func (backend *fakeBackend) UpdateComment(ctx context.Context, id string, content string) (CommentNode, error) {
	err := backend.enter(ctx, "update_comment")
	if err != nil {
		return CommentNode{}, err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	for i := range backend.comments {
		if backend.comments[i].ID == id {
			backend.comments[i].Content = content
			backend.comments[i].UpdatedAt = backend.clock.Add(time.Hour)
			return backend.comments[i], nil
		}
	}

	return CommentNode{}, invalid("update_comment", Target{ID: id, Kind: KindComment}, "Comment not found", nil)
}

func (backend *fakeBackend) DeleteComment(ctx context.Context, id string) error {
	err := backend.enter(ctx, "delete_comment")
	if err != nil {
		return err
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()

	for i := range backend.comments {
		if backend.comments[i].ID == id {
			backend.comments[i].IsDeleted = true
			return nil
		}
	}

	return invalid("delete_comment", Target{ID: id, Kind: KindComment}, "Comment not found", nil)
}

type memoryMarkers struct {
	mu      sync.Mutex
	marks   map[string]bool
	readErr error
	markErr error
}

func newMemoryMarkers() *memoryMarkers {
	return &memoryMarkers{marks: make(map[string]bool)}
}

func (markers *memoryMarkers) IsMarked(_ context.Context, sessionID string, targetID string) (bool, error) {
	markers.mu.Lock()
	defer markers.mu.Unlock()

	if markers.readErr != nil {
		return false, markers.readErr
	}
	return markers.marks[sessionID+"|"+targetID], nil
}

func (markers *memoryMarkers) Mark(_ context.Context, sessionID string, targetID string) error {
	markers.mu.Lock()
	defer markers.mu.Unlock()

	if markers.markErr != nil {
		return markers.markErr
	}
	markers.marks[sessionID+"|"+targetID] = true
	return nil
}

func signedIn() StaticIdentity {
	return StaticIdentity{ID: "u1", Name: "alice", Authenticated: true}
}
