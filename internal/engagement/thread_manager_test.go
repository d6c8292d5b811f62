package engagement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTopLevel(backend *fakeBackend, postID string, n int) []CommentNode {
	nodes := make([]CommentNode, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, backend.seed(postID, "", "bob", fmt.Sprintf("comment %d", i)))
	}

	return nodes
}

func newThread(backend *fakeBackend, identity Identity, cache PageCache, notices *NoticeBoard) *CommentThreadManager {
	return NewCommentThreadManager("p1", backend, identity, ThreadOptions{
		Limit:   10,
		SortBy:  SortOldest,
		Cache:   cache,
		Notices: notices,
	})
}

func TestThreadListCommentsReadsThroughCache(t *testing.T) {
	backend := newFakeBackend()
	seedTopLevel(backend, "p1", 3)
	thread := newThread(backend, signedIn(), NewMemoryPageCache(time.Minute), nil)

	view, err := thread.ListComments(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, view.Comments, 3)
	assert.Equal(t, PageWindow{Page: 1, Limit: 10, Total: 3, TotalPages: 1}, view.Pagination)

	_, err = thread.ListComments(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("list_comments"))

	_, err = thread.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("list_comments"))
}

func TestThreadMutationsKeepCurrentPage(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 25)
	thread := newThread(backend, signedIn(), NewMemoryPageCache(time.Minute), nil)
	ctx := context.Background()

	view, err := thread.ListComments(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, view.Comments, 5)
	assert.Equal(t, 3, view.Pagination.Page)

	result, err := thread.CreateComment(ctx, "another one", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Outcome.Page)
	assert.True(t, result.Outcome.Refetched)
	assert.Nil(t, result.Outcome.Navigate)
	assert.Equal(t, 3, backend.lastQuery().Page)

	view = thread.View()
	assert.Equal(t, 3, view.Pagination.Page)
	assert.Equal(t, 26, view.Pagination.Total)
	assert.Len(t, view.Comments, 6)

	lastOnPage := view.Comments[len(view.Comments)-1]
	outcome, err := thread.DeleteComment(ctx, lastOnPage.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Page)
	assert.Equal(t, 3, thread.Pagination().Page())

	_, err = thread.UpdateComment(ctx, nodes[20].ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, 3, thread.Pagination().Page())
	assert.Equal(t, 3, backend.lastQuery().Page)
}

func TestThreadPageIsKeptWhenItEmpties(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 11)
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	view, err := thread.ListComments(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)

	// Another client removes a comment, shrinking the list to one page.
	backend.mu.Lock()
	backend.comments = backend.comments[1:]
	backend.mu.Unlock()

	_, err = thread.UpdateComment(ctx, nodes[10].ID, "still here")
	require.NoError(t, err)

	view = thread.View()
	assert.Equal(t, 2, view.Pagination.Page)
	assert.Equal(t, 1, view.Pagination.TotalPages)
	assert.Empty(t, view.Comments)
}

func TestThreadListFailureKeepsPreviousPage(t *testing.T) {
	backend := newFakeBackend()
	seedTopLevel(backend, "p1", 12)
	notices := NewNoticeBoard(0)
	thread := newThread(backend, signedIn(), nil, notices)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	backend.setFail("list_comments", errBackendDown)
	view, err := thread.ListComments(ctx, 2, 0)

	require.Error(t, err)
	assert.True(t, IsKind(err, FailureFetchFailed))
	assert.Equal(t, 2, view.Pagination.Page)
	assert.Len(t, view.Comments, 10)
	assert.True(t, view.Retryable)
	assert.NotEmpty(t, view.Error)

	list := notices.List()
	require.Len(t, list, 1)
	assert.True(t, list[0].Retryable)

	backend.setFail("list_comments", nil)
	view, err = thread.Refetch(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Comments, 2)
	assert.Empty(t, view.Error)
}

func TestThreadRejectsInvalidPage(t *testing.T) {
	backend := newFakeBackend()
	thread := newThread(backend, signedIn(), nil, nil)

	_, err := thread.ListComments(context.Background(), 0, 0)
	assert.True(t, IsKind(err, FailureInvalid))

	_, err = thread.ListComments(context.Background(), 1, MaxPageLimit+1)
	assert.True(t, IsKind(err, FailureInvalid))
	assert.Equal(t, 0, backend.count("list_comments"))
}

func TestThreadExpandRepliesFetchesOnce(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "root")
	first := backend.seed("p1", root.ID, "carol", "first")
	second := backend.seed("p1", root.ID, "dave", "second")
	backend.seed("p1", "", "bob", "other root")
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	backend.hold("list_replies")
	done := make(chan ReplySection, 1)
	go func() {
		section, _ := thread.ExpandReplies(ctx, root.ID)
		done <- section
	}()

	require.Eventually(t, func() bool { return backend.count("list_replies") == 1 }, time.Second, 5*time.Millisecond)

	loading, err := thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, ReplyLoading, loading.Phase)

	backend.release("list_replies")
	section := <-done

	assert.Equal(t, ReplyExpanded, section.Phase)
	require.Len(t, section.Replies, 2)
	assert.Equal(t, first.ID, section.Replies[0].ID)
	assert.Equal(t, second.ID, section.Replies[1].ID)

	again, err := thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, ReplyExpanded, again.Phase)
	assert.Equal(t, 1, backend.count("list_replies"))

	collapsed := thread.CollapseReplies(root.ID)
	assert.Equal(t, ReplyCollapsed, collapsed.Phase)
	assert.Empty(t, collapsed.Replies)

	_, err = thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("list_replies"))
}

func TestThreadExpandRepliesFailure(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "root")
	backend.seed("p1", root.ID, "carol", "reply")
	notices := NewNoticeBoard(0)
	thread := newThread(backend, signedIn(), nil, notices)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	backend.setFail("list_replies", errBackendDown)
	section, err := thread.ExpandReplies(ctx, root.ID)

	assert.True(t, IsKind(err, FailureFetchFailed))
	assert.Equal(t, ReplyCollapsed, section.Phase)
	assert.True(t, section.Retryable)
	assert.Len(t, notices.List(), 1)

	backend.setFail("list_replies", nil)
	section, err = thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, ReplyExpanded, section.Phase)
	assert.Empty(t, section.Error)
}

func TestThreadExpandRequiresReplies(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "lonely")
	thread := newThread(backend, signedIn(), nil, nil)

	_, err := thread.ListComments(context.Background(), 1, 0)
	require.NoError(t, err)

	_, err = thread.ExpandReplies(context.Background(), root.ID)
	assert.True(t, IsKind(err, FailureInvalid))

	_, err = thread.ExpandReplies(context.Background(), "missing")
	assert.True(t, IsKind(err, FailureInvalid))
	assert.Equal(t, 0, backend.count("list_replies"))
}

func TestThreadReplyToReplyIsFlattened(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "root")
	reply := backend.seed("p1", root.ID, "carol", "reply")
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)
	_, err = thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)

	draft, err := thread.PrepareReply(reply.ID)
	require.NoError(t, err)
	assert.Equal(t, ReplyDraft{ParentID: root.ID, RootID: root.ID, Prefill: "@carol "}, draft)

	draft, err = thread.PrepareReply(root.ID)
	require.NoError(t, err)
	assert.Equal(t, ReplyDraft{ParentID: root.ID, RootID: root.ID}, draft)

	parentID := reply.ID
	result, err := thread.CreateComment(ctx, draft.Prefill+"agreed", &parentID, nil)
	require.NoError(t, err)

	require.Len(t, backend.createInputs, 1)
	require.NotNil(t, backend.createInputs[0].ParentID)
	assert.Equal(t, root.ID, *backend.createInputs[0].ParentID)
	assert.Equal(t, root.ID, result.Comment.ThreadRootID())

	section := thread.Replies(root.ID)
	require.Len(t, section.Replies, 2)
	assert.Equal(t, result.Comment.ID, section.Replies[1].ID)

	view := thread.View()
	assert.Equal(t, 2, view.Comments[0].ReplyCount)
}

func TestThreadCreateReplyShowsOptimisticPlaceholder(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "root")
	backend.seed("p1", root.ID, "carol", "reply")
	notices := NewNoticeBoard(0)
	thread := newThread(backend, signedIn(), nil, notices)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)
	_, err = thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)

	backend.setFail("create_comment", errBackendDown)
	backend.hold("create_comment")
	done := make(chan error, 1)
	go func() {
		parentID := root.ID
		_, err := thread.CreateComment(ctx, "hello", &parentID, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return len(thread.Replies(root.ID).Replies) == 2 }, time.Second, 5*time.Millisecond)
	placeholder := thread.Replies(root.ID).Replies[1]
	assert.Contains(t, placeholder.ID, localIDPrefix)
	assert.Equal(t, "hello", placeholder.Content)

	backend.release("create_comment")
	err = <-done

	assert.True(t, IsKind(err, FailureMutationFailed))
	assert.Len(t, thread.Replies(root.ID).Replies, 1)
	require.Len(t, notices.List(), 1)
	assert.Equal(t, FailureMutationFailed, notices.List()[0].Kind)
}

func TestThreadMutationsRequireAuthentication(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 1)
	notices := NewNoticeBoard(0)
	thread := newThread(backend, Anonymous(), nil, notices)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	_, err = thread.CreateComment(ctx, "hi", nil, nil)
	assert.True(t, IsKind(err, FailureAuthRequired))

	_, err = thread.UpdateComment(ctx, nodes[0].ID, "hi")
	assert.True(t, IsKind(err, FailureAuthRequired))

	_, err = thread.DeleteComment(ctx, nodes[0].ID)
	assert.True(t, IsKind(err, FailureAuthRequired))

	_, err = thread.ToggleLike(ctx, nodes[0].ID)
	assert.True(t, IsKind(err, FailureAuthRequired))

	assert.Equal(t, 0, backend.count("create_comment"))
	assert.Equal(t, 0, backend.count("toggle_like"))
	assert.Empty(t, notices.List())
}

func TestThreadCreateRejectsBlankContent(t *testing.T) {
	backend := newFakeBackend()
	thread := newThread(backend, signedIn(), nil, nil)

	_, err := thread.CreateComment(context.Background(), "   ", nil, nil)

	assert.True(t, IsKind(err, FailureInvalid))
	assert.Equal(t, 0, backend.count("create_comment"))
}

func TestThreadUpdateRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 1)
	thread := newThread(backend, signedIn(), nil, NewNoticeBoard(0))
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	backend.setFail("update_comment", errBackendDown)
	backend.hold("update_comment")
	done := make(chan error, 1)
	go func() {
		_, err := thread.UpdateComment(ctx, nodes[0].ID, "edited")
		done <- err
	}()

	require.Eventually(t, func() bool { return thread.View().Comments[0].Content == "edited" }, time.Second, 5*time.Millisecond)
	backend.release("update_comment")

	assert.True(t, IsKind(<-done, FailureMutationFailed))
	assert.Equal(t, "comment 0", thread.View().Comments[0].Content)
}

func TestThreadDeleteRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 1)
	thread := newThread(backend, signedIn(), nil, NewNoticeBoard(0))
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	backend.setFail("delete_comment", errBackendDown)
	_, err = thread.DeleteComment(ctx, nodes[0].ID)

	assert.True(t, IsKind(err, FailureMutationFailed))
	assert.False(t, thread.View().Comments[0].IsDeleted)

	backend.setFail("delete_comment", nil)
	_, err = thread.DeleteComment(ctx, nodes[0].ID)
	require.NoError(t, err)
	assert.True(t, thread.View().Comments[0].IsDeleted)
}

func TestThreadCommentLikesSurviveRefetch(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 2)
	thread := newThread(backend, signedIn(), NewMemoryPageCache(time.Minute), nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	state, err := thread.ToggleLike(ctx, nodes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, state)

	_, err = thread.CreateComment(ctx, "new", nil, nil)
	require.NoError(t, err)

	view := thread.View()
	for _, comment := range view.Comments {
		if comment.ID == nodes[0].ID {
			assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, comment.LikeState)
		}
	}

	_, err = thread.ToggleLike(ctx, "unknown")
	assert.True(t, IsKind(err, FailureInvalid))
}

func TestThreadCommittedLikeInvalidatesCachedPages(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 2)
	thread := newThread(backend, signedIn(), NewMemoryPageCache(time.Minute), nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	state, err := thread.ToggleLike(ctx, nodes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, state)

	view, err := thread.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("list_comments"))
	require.Equal(t, nodes[0].ID, view.Comments[0].ID)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, view.Comments[0].LikeState)

	// A rolled back toggle leaves the cache alone.
	backend.setFail("toggle_like", errBackendDown)
	_, err = thread.ToggleLike(ctx, nodes[1].ID)
	require.Error(t, err)

	_, err = thread.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("list_comments"))
}

func TestThreadReplyRootFollowsDisplayedParent(t *testing.T) {
	backend := newFakeBackend()
	first := backend.seed("p1", "", "bob", "first")
	second := backend.seed("p1", "", "bob", "second")
	reply := backend.seed("p1", first.ID, "carol", "reply")
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)
	_, err = thread.ExpandReplies(ctx, first.ID)
	require.NoError(t, err)

	parentID, rootID := reply.ID, second.ID
	result, err := thread.CreateComment(ctx, "mismatched root", &parentID, &rootID)
	require.NoError(t, err)

	require.Len(t, backend.createInputs, 1)
	require.NotNil(t, backend.createInputs[0].ParentID)
	assert.Equal(t, first.ID, *backend.createInputs[0].ParentID)
	assert.Equal(t, first.ID, result.Comment.ThreadRootID())

	// The hint only applies to parents that are not displayed.
	hidden := "c404"
	_, err = thread.CreateComment(ctx, "hidden parent", &hidden, &rootID)
	require.NoError(t, err)

	require.Len(t, backend.createInputs, 2)
	require.NotNil(t, backend.createInputs[1].ParentID)
	assert.Equal(t, second.ID, *backend.createInputs[1].ParentID)
}

func TestThreadLikeControllersArePrunedOffPage(t *testing.T) {
	backend := newFakeBackend()
	nodes := seedTopLevel(backend, "p1", 15)
	thread := newThread(backend, signedIn(), NewMemoryPageCache(time.Minute), nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)

	liked, err := thread.LikeController(nodes[0].ID)
	require.NoError(t, err)
	_, err = liked.Toggle(ctx)
	require.NoError(t, err)

	pending, err := thread.LikeController(nodes[1].ID)
	require.NoError(t, err)
	backend.hold("toggle_like")
	_, done, err := pending.Begin(ctx)
	require.NoError(t, err)

	_, err = thread.ListComments(ctx, 2, 0)
	require.NoError(t, err)

	thread.mu.Lock()
	_, likedKept := thread.likes[nodes[0].ID]
	_, pendingKept := thread.likes[nodes[1].ID]
	thread.mu.Unlock()
	assert.False(t, likedKept)
	assert.False(t, liked.Mounted())
	assert.True(t, pendingKept)

	backend.release("toggle_like")
	settlement := <-done
	require.NoError(t, settlement.Err)

	_, err = thread.Refetch(ctx)
	require.NoError(t, err)

	thread.mu.Lock()
	assert.Empty(t, thread.likes)
	thread.mu.Unlock()

	view, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, view.Comments[0].LikeState)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, view.Comments[1].LikeState)
}

func TestThreadReexpandReseedsReplyLikes(t *testing.T) {
	backend := newFakeBackend()
	root := backend.seed("p1", "", "bob", "root")
	reply := backend.seed("p1", root.ID, "carol", "reply")
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	_, err := thread.ListComments(ctx, 1, 0)
	require.NoError(t, err)
	_, err = thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)

	state, err := thread.ToggleLike(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 1}, state)

	thread.CollapseReplies(root.ID)

	backend.mu.Lock()
	backend.likes[reply.ID] = LikeResult{IsLiked: true, LikeCount: 4}
	backend.mu.Unlock()

	section, err := thread.ExpandReplies(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, section.Replies, 1)
	assert.Equal(t, LikeState{IsLiked: true, LikeCount: 4}, section.Replies[0].LikeState)
}

func TestThreadUnmountDiscardsLateResponses(t *testing.T) {
	backend := newFakeBackend()
	seedTopLevel(backend, "p1", 2)
	thread := newThread(backend, signedIn(), nil, nil)
	ctx := context.Background()

	backend.hold("list_comments")
	done := make(chan error, 1)
	go func() {
		_, err := thread.ListComments(ctx, 1, 0)
		done <- err
	}()

	require.Eventually(t, func() bool { return backend.count("list_comments") == 1 }, time.Second, 5*time.Millisecond)
	thread.Unmount()
	backend.release("list_comments")

	assert.True(t, IsKind(<-done, FailureUnmounted))
	assert.Empty(t, thread.View().Comments)
}

func TestGroupRepliesFiltersAndOrders(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reply := func(id string, root string, offset time.Duration) CommentNode {
		return CommentNode{ID: id, ParentID: stringPtr(root), RootID: stringPtr(root), CreatedAt: base.Add(offset)}
	}

	grouped := groupReplies("r1", []CommentNode{
		reply("c3", "r1", 3*time.Minute),
		reply("x1", "r2", time.Minute),
		{ID: "top"},
		reply("c1", "r1", time.Minute),
		reply("c2", "r1", 2*time.Minute),
	}, 2)

	require.Len(t, grouped, 2)
	assert.Equal(t, "c1", grouped[0].ID)
	assert.Equal(t, "c2", grouped[1].ID)
}
