package engagement

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ferdian3456/virdanengage/internal/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ReplyPhase string

const (
	ReplyCollapsed ReplyPhase = "collapsed"
	ReplyLoading   ReplyPhase = "loading"
	ReplyExpanded  ReplyPhase = "expanded"
)

const localIDPrefix = "local-"

type ReplySection struct {
	CommentID string        `json:"commentId"`
	Phase     ReplyPhase    `json:"phase"`
	Replies   []CommentNode `json:"replies"`
	Error     string        `json:"error,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
}

type ThreadView struct {
	PostID     string                  `json:"postId"`
	SortBy     SortOrder               `json:"sortBy"`
	Comments   []CommentNode           `json:"comments"`
	Pagination PageWindow              `json:"pagination"`
	Replies    map[string]ReplySection `json:"replies"`
	Error      string                  `json:"error,omitempty"`
	Retryable  bool                    `json:"retryable,omitempty"`
}

type ReplyDraft struct {
	ParentID string `json:"parentId"`
	RootID   string `json:"rootId"`
	Prefill  string `json:"prefill"`
}

type ThreadOptions struct {
	Page       int
	Limit      int
	SortBy     SortOrder
	ReplyLimit int
	Cache      PageCache
	Notices    *NoticeBoard
	Log        *zap.Logger
}

type replySection struct {
	phase   ReplyPhase
	replies []CommentNode
	failure *Failure
}

// CommentThreadManager keeps the two-level comment tree of one post: a
// server-paginated page of top-level comments plus lazily expanded replies.
type CommentThreadManager struct {
	postID     string
	backend    Backend
	identity   Identity
	cache      PageCache
	notices    *NoticeBoard
	log        *zap.Logger
	pager      *PaginationCoordinator
	sortBy     SortOrder
	replyLimit int

	mu       sync.Mutex
	comments []CommentNode
	sections map[string]*replySection
	likes    map[string]*LikeToggleController
	loadErr  *Failure
	loadSeq  uint64
	mounted  bool
}

func NewCommentThreadManager(postID string, backend Backend, identity Identity, options ThreadOptions) *CommentThreadManager {
	if options.Log == nil {
		options.Log = zap.NewNop()
	}
	if identity == nil {
		identity = Anonymous()
	}
	if options.Limit <= 0 {
		options.Limit = DefaultPageLimit
	}
	if options.Limit > MaxPageLimit {
		options.Limit = MaxPageLimit
	}
	if options.ReplyLimit <= 0 {
		options.ReplyLimit = DefaultReplyLimit
	}
	if options.SortBy == "" {
		options.SortBy = SortNewest
	}

	manager := &CommentThreadManager{
		postID:     postID,
		backend:    backend,
		identity:   identity,
		cache:      options.Cache,
		notices:    options.Notices,
		log:        options.Log,
		pager:      NewPaginationCoordinator(options.Page, options.Limit),
		sortBy:     options.SortBy,
		replyLimit: options.ReplyLimit,
		sections:   make(map[string]*replySection),
		likes:      make(map[string]*LikeToggleController),
		mounted:    true,
	}
	manager.pager.Bind(manager, manager.invalidate)

	return manager
}

func (manager *CommentThreadManager) PostID() string {
	return manager.postID
}

func (manager *CommentThreadManager) Pagination() *PaginationCoordinator {
	return manager.pager
}

// ListComments shows the requested page. Asking for a page other than the
// current one is a navigation and goes through the coordinator.
func (manager *CommentThreadManager) ListComments(ctx context.Context, page int, limit int) (ThreadView, error) {
	if page < 1 {
		return manager.View(), invalid("list_comments", manager.postTarget(), "Page must be greater or equal than 1", nil)
	}
	if limit < 0 || limit > MaxPageLimit {
		return manager.View(), invalid("list_comments", manager.postTarget(), "Limit is out of range", nil)
	}
	if limit > 0 {
		manager.pager.SetLimit(limit)
	}

	var err error
	if page != manager.pager.Page() {
		_, err = manager.pager.OnPageChange(ctx, page)
	} else {
		var window PageWindow
		window, err = manager.LoadPage(ctx, page)
		if err == nil {
			manager.pager.Reconcile(window)
		}
	}

	return manager.View(), err
}

// Refetch reloads the current page; it is the retry affordance after a
// fetch failure.
func (manager *CommentThreadManager) Refetch(ctx context.Context) (ThreadView, error) {
	return manager.ListComments(ctx, manager.pager.Page(), 0)
}

// LoadPage satisfies PageSource.
func (manager *CommentThreadManager) LoadPage(ctx context.Context, page int) (PageWindow, error) {
	ctx, span := observability.Tracer().Start(ctx, "engagement.ListComments")
	defer span.End()
	span.SetAttributes(attribute.String("engagement.post", manager.postID), attribute.Int("engagement.page", page))

	limit := manager.pager.Limit()
	key := PageKey{ViewerID: manager.identity.UserID(), PostID: manager.postID, Page: page, Limit: limit, SortBy: manager.sortBy}

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return PageWindow{}, unmounted("list_comments", manager.postTarget())
	}
	manager.loadSeq++
	seq := manager.loadSeq
	manager.mu.Unlock()

	result, hit := manager.cachedPage(ctx, key)
	if !hit {
		var err error
		result, err = manager.backend.ListTopLevelComments(ctx, manager.postID, ListQuery{Page: page, Limit: limit, SortBy: manager.sortBy})
		if err != nil {
			failure := classify("list_comments", manager.postTarget(), FailureFetchFailed, "Comments could not be loaded", err)
			manager.mu.Lock()
			if seq == manager.loadSeq {
				manager.loadErr = failure
			}
			manager.mu.Unlock()
			manager.notices.Post(failure)
			manager.log.Warn("failed to list comments", zap.String("postId", manager.postID), zap.Int("page", page), zap.Error(err))
			observability.Fail(span, err)
			return PageWindow{}, failure
		}

		result.Items = manager.topLevelOnly(result.Items)
		if manager.cache != nil {
			err = manager.cache.Set(ctx, key, result)
			if err != nil {
				manager.log.Warn("failed to cache comment page", zap.String("key", key.String()), zap.Error(err))
			}
		}
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	if !manager.mounted {
		return PageWindow{}, unmounted("list_comments", manager.postTarget())
	}

	// A newer load superseded this one; its result is not applied.
	if seq != manager.loadSeq {
		return result.Pagination, nil
	}

	manager.applyPage(result.Items)
	manager.loadErr = nil

	return result.Pagination, nil
}

func (manager *CommentThreadManager) cachedPage(ctx context.Context, key PageKey) (CommentPage, bool) {
	if manager.cache == nil {
		return CommentPage{}, false
	}

	page, ok, err := manager.cache.Get(ctx, key)
	if err != nil {
		manager.log.Warn("failed to read comment page cache", zap.String("key", key.String()), zap.Error(err))
		return CommentPage{}, false
	}

	return page, ok
}

func (manager *CommentThreadManager) invalidate(ctx context.Context) error {
	if manager.cache == nil {
		return nil
	}

	return manager.cache.InvalidatePost(ctx, manager.postID)
}

func (manager *CommentThreadManager) topLevelOnly(items []CommentNode) []CommentNode {
	out := make([]CommentNode, 0, len(items))
	for _, item := range items {
		if item.IsReply() {
			manager.log.Warn("dropping reply returned in top-level page", zap.String("commentId", item.ID))
			continue
		}
		out = append(out, item)
	}

	return out
}

// applyPage must be called with mu held.
func (manager *CommentThreadManager) applyPage(items []CommentNode) {
	manager.comments = items

	onPage := make(map[string]struct{}, len(items))
	for _, item := range items {
		onPage[item.ID] = struct{}{}
		if controller, ok := manager.likes[item.ID]; ok {
			controller.Reseed(item.LikeState)
		}
	}

	for id := range manager.sections {
		if _, ok := onPage[id]; !ok {
			delete(manager.sections, id)
		}
	}

	manager.pruneLikes()
}

// pruneLikes unmounts idle controllers of comments no longer displayed. A
// pending toggle keeps its controller until it settles. Must be called with
// mu held.
func (manager *CommentThreadManager) pruneLikes() {
	for id, controller := range manager.likes {
		if _, _, ok := manager.locate(id); ok {
			continue
		}
		if controller.Phase() == LikePending {
			continue
		}

		controller.Unmount()
		delete(manager.likes, id)
	}
}

// View returns a render-ready copy of the thread. Like state comes from the
// owning controller when one is mounted.
func (manager *CommentThreadManager) View() ThreadView {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	view := ThreadView{
		PostID:     manager.postID,
		SortBy:     manager.sortBy,
		Comments:   make([]CommentNode, 0, len(manager.comments)),
		Pagination: manager.pager.Window(),
		Replies:    make(map[string]ReplySection, len(manager.sections)),
	}

	for _, comment := range manager.comments {
		view.Comments = append(view.Comments, manager.withLikeState(comment))
	}

	for id, section := range manager.sections {
		view.Replies[id] = manager.sectionView(id, section)
	}

	if manager.loadErr != nil {
		view.Error = manager.loadErr.Message
		view.Retryable = true
	}

	return view
}

func (manager *CommentThreadManager) withLikeState(node CommentNode) CommentNode {
	if controller, ok := manager.likes[node.ID]; ok {
		node.LikeState = controller.State()
	}

	return node
}

func (manager *CommentThreadManager) sectionView(id string, section *replySection) ReplySection {
	view := ReplySection{CommentID: id, Phase: section.phase, Replies: make([]CommentNode, 0, len(section.replies))}
	for _, reply := range section.replies {
		view.Replies = append(view.Replies, manager.withLikeState(reply))
	}

	if section.failure != nil {
		view.Error = section.failure.Message
		view.Retryable = true
	}

	return view
}

func (manager *CommentThreadManager) Replies(commentID string) ReplySection {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	section, ok := manager.sections[commentID]
	if !ok {
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed, Replies: []CommentNode{}}
	}

	return manager.sectionView(commentID, section)
}

// ExpandReplies fetches the bounded reply list of a top-level comment. It is
// a no-op while the section is Loading or Expanded.
func (manager *CommentThreadManager) ExpandReplies(ctx context.Context, commentID string) (ReplySection, error) {
	target := Target{ID: commentID, Kind: KindComment}

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed}, unmounted("expand_replies", target)
	}

	index := manager.indexOfComment(commentID)
	if index < 0 {
		manager.mu.Unlock()
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed}, invalid("expand_replies", target, "Comment is not on the current page", nil)
	}

	if manager.comments[index].ReplyCount <= 0 {
		manager.mu.Unlock()
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed}, invalid("expand_replies", target, "Comment has no replies", nil)
	}

	section, ok := manager.sections[commentID]
	if !ok {
		section = &replySection{phase: ReplyCollapsed}
		manager.sections[commentID] = section
	}

	if section.phase != ReplyCollapsed {
		view := manager.sectionView(commentID, section)
		manager.mu.Unlock()
		return view, nil
	}

	section.phase = ReplyLoading
	section.failure = nil
	manager.mu.Unlock()

	ctx, span := observability.Tracer().Start(ctx, "engagement.ExpandReplies")
	defer span.End()
	span.SetAttributes(attribute.String("engagement.comment", commentID))

	replies, err := manager.backend.ListReplies(ctx, commentID, manager.replyLimit)

	manager.mu.Lock()
	defer manager.mu.Unlock()

	if !manager.mounted {
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed}, unmounted("expand_replies", target)
	}

	// The page may have been refetched while loading and pruned this section.
	current, ok := manager.sections[commentID]
	if !ok || current != section {
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed, Replies: []CommentNode{}}, nil
	}

	if err != nil {
		failure := classify("expand_replies", target, FailureFetchFailed, "Replies could not be loaded", err)
		section.phase = ReplyCollapsed
		section.failure = failure
		manager.notices.Post(failure)
		manager.log.Warn("failed to list replies", zap.String("commentId", commentID), zap.Error(err))
		observability.Fail(span, err)
		return manager.sectionView(commentID, section), failure
	}

	section.phase = ReplyExpanded
	section.replies = groupReplies(commentID, replies, manager.replyLimit)
	for _, reply := range section.replies {
		if controller, ok := manager.likes[reply.ID]; ok {
			controller.Reseed(reply.LikeState)
		}
	}

	return manager.sectionView(commentID, section), nil
}

func (manager *CommentThreadManager) CollapseReplies(commentID string) ReplySection {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	section, ok := manager.sections[commentID]
	if !ok {
		return ReplySection{CommentID: commentID, Phase: ReplyCollapsed, Replies: []CommentNode{}}
	}

	if section.phase == ReplyExpanded {
		section.phase = ReplyCollapsed
		section.replies = nil
	}

	return manager.sectionView(commentID, section)
}

// groupReplies keeps the replies whose top-level ancestor is rootID, oldest
// first, bounded by limit.
func groupReplies(rootID string, items []CommentNode, limit int) []CommentNode {
	out := make([]CommentNode, 0, len(items))
	for _, item := range items {
		if !item.IsReply() || item.ThreadRootID() != rootID {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// PrepareReply returns the composer draft for replying to a node. Replying to
// a reply targets the same root with an @-mention of the reply's author.
func (manager *CommentThreadManager) PrepareReply(commentID string) (ReplyDraft, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	node, _, ok := manager.locate(commentID)
	if !ok {
		return ReplyDraft{}, invalid("prepare_reply", Target{ID: commentID, Kind: KindComment}, "Comment is not displayed", nil)
	}

	if !node.IsReply() {
		return ReplyDraft{ParentID: node.ID, RootID: node.ID}, nil
	}

	root := node.ThreadRootID()
	draft := ReplyDraft{ParentID: root, RootID: root}
	if name := strings.TrimSpace(node.AuthorName); name != "" {
		draft.Prefill = "@" + name + " "
	}

	return draft, nil
}

// nodeLocation points into either the page (section == "") or a reply section.
type nodeLocation struct {
	section string
	index   int
}

func (manager *CommentThreadManager) indexOfComment(id string) int {
	for i, comment := range manager.comments {
		if comment.ID == id {
			return i
		}
	}

	return -1
}

// locate must be called with mu held.
func (manager *CommentThreadManager) locate(id string) (CommentNode, nodeLocation, bool) {
	if index := manager.indexOfComment(id); index >= 0 {
		return manager.comments[index], nodeLocation{index: index}, true
	}

	for rootID, section := range manager.sections {
		for i, reply := range section.replies {
			if reply.ID == id {
				return reply, nodeLocation{section: rootID, index: i}, true
			}
		}
	}

	return CommentNode{}, nodeLocation{}, false
}

// store writes node back at loc if it is still there; must be called with mu held.
func (manager *CommentThreadManager) store(id string, mutate func(node *CommentNode)) bool {
	_, loc, ok := manager.locate(id)
	if !ok {
		return false
	}

	if loc.section == "" {
		mutate(&manager.comments[loc.index])
		return true
	}

	mutate(&manager.sections[loc.section].replies[loc.index])
	return true
}

// resolveRoot flattens a reply target to its top-level ancestor. Depth never
// exceeds two. A displayed parent decides the root; the caller's rootID is
// only a hint for parents that are not displayed.
func (manager *CommentThreadManager) resolveRoot(parentID string, rootID *string) string {
	if node, _, ok := manager.locate(parentID); ok {
		return node.ThreadRootID()
	}

	if rootID != nil && strings.TrimSpace(*rootID) != "" {
		return strings.TrimSpace(*rootID)
	}

	return parentID
}

type CreateResult struct {
	Comment CommentNode     `json:"comment"`
	Outcome MutationOutcome `json:"outcome"`
}

// CreateComment posts a top-level comment (parentID nil) or a reply. A reply
// to a reply is flattened into a sibling under the same root. The current
// page is refetched, never reset.
func (manager *CommentThreadManager) CreateComment(ctx context.Context, content string, parentID *string, rootID *string) (CreateResult, error) {
	target := manager.postTarget()
	if !manager.identity.IsAuthenticated() {
		return CreateResult{}, authRequired("create_comment", target)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return CreateResult{}, invalid("create_comment", target, "Content is required", nil)
	}

	var root string
	placeholderID := ""

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return CreateResult{}, unmounted("create_comment", target)
	}

	if parentID != nil && strings.TrimSpace(*parentID) != "" {
		root = manager.resolveRoot(strings.TrimSpace(*parentID), rootID)
		if section, ok := manager.sections[root]; ok && section.phase == ReplyExpanded {
			placeholderID = localIDPrefix + uuid.NewString()
			now := time.Now().UTC()
			section.replies = append(section.replies, CommentNode{
				ID:         placeholderID,
				PostID:     manager.postID,
				ParentID:   stringPtr(root),
				RootID:     stringPtr(root),
				AuthorID:   manager.identity.UserID(),
				AuthorName: manager.identity.Username(),
				Content:    content,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
	}
	manager.mu.Unlock()

	input := CreateCommentInput{PostID: manager.postID, Content: content}
	if root != "" {
		input.ParentID = stringPtr(root)
	}

	created, err := manager.backend.CreateComment(ctx, input)

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return CreateResult{}, unmounted("create_comment", target)
	}

	if err != nil {
		if placeholderID != "" {
			manager.removeReply(root, placeholderID)
		}
		manager.mu.Unlock()

		failure := classify("create_comment", target, FailureMutationFailed, "Your comment could not be posted", err)
		manager.notices.Post(failure)
		manager.log.Warn("failed to create comment", zap.String("postId", manager.postID), zap.Error(err))
		return CreateResult{}, failure
	}

	if root != "" {
		if created.ParentID == nil || *created.ParentID == "" {
			created.ParentID = stringPtr(root)
		}
		if created.RootID == nil || *created.RootID == "" {
			created.RootID = stringPtr(root)
		}

		section, ok := manager.sections[root]
		switch {
		case placeholderID != "" && !manager.replaceReply(root, placeholderID, created):
			// The section was collapsed or pruned meanwhile; the reply shows on next expansion.
		case placeholderID == "" && ok && section.phase == ReplyExpanded:
			section.replies = append(section.replies, created)
		}
	}
	manager.mu.Unlock()

	outcome, err := manager.pager.OnMutationSettled(ctx, MutationCreate, nil)
	if err != nil {
		manager.log.Warn("failed to refetch comments after create", zap.String("postId", manager.postID), zap.Error(err))
	}

	return CreateResult{Comment: created, Outcome: outcome}, nil
}

// removeReply and replaceReply must be called with mu held.
func (manager *CommentThreadManager) removeReply(rootID string, id string) {
	section, ok := manager.sections[rootID]
	if !ok {
		return
	}

	for i, reply := range section.replies {
		if reply.ID == id {
			section.replies = append(section.replies[:i], section.replies[i+1:]...)
			return
		}
	}
}

func (manager *CommentThreadManager) replaceReply(rootID string, id string, node CommentNode) bool {
	section, ok := manager.sections[rootID]
	if !ok {
		return false
	}

	for i, reply := range section.replies {
		if reply.ID == id {
			section.replies[i] = node
			return true
		}
	}

	return false
}

// UpdateComment edits content optimistically and restores the previous
// content if the backend rejects it.
func (manager *CommentThreadManager) UpdateComment(ctx context.Context, id string, content string) (CommentNode, error) {
	target := Target{ID: id, Kind: KindComment}
	if !manager.identity.IsAuthenticated() {
		return CommentNode{}, authRequired("update_comment", target)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return CommentNode{}, invalid("update_comment", target, "Content is required", nil)
	}

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return CommentNode{}, unmounted("update_comment", target)
	}

	node, _, ok := manager.locate(id)
	if !ok || strings.HasPrefix(id, localIDPrefix) {
		manager.mu.Unlock()
		return CommentNode{}, invalid("update_comment", target, "Comment is not displayed", nil)
	}
	if node.IsDeleted {
		manager.mu.Unlock()
		return CommentNode{}, invalid("update_comment", target, "Comment was deleted", nil)
	}

	previous := node.Content
	manager.store(id, func(n *CommentNode) { n.Content = content })
	manager.mu.Unlock()

	updated, err := manager.backend.UpdateComment(ctx, id, content)

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return CommentNode{}, unmounted("update_comment", target)
	}

	if err != nil {
		manager.store(id, func(n *CommentNode) {
			if n.Content == content {
				n.Content = previous
			}
		})
		manager.mu.Unlock()

		failure := classify("update_comment", target, FailureMutationFailed, "Your changes could not be saved", err)
		manager.notices.Post(failure)
		manager.log.Warn("failed to update comment", zap.String("commentId", id), zap.Error(err))
		return CommentNode{}, failure
	}

	manager.store(id, func(n *CommentNode) {
		n.Content = updated.Content
		n.UpdatedAt = updated.UpdatedAt
	})
	node, _, _ = manager.locate(id)
	manager.mu.Unlock()

	_, err = manager.pager.OnMutationSettled(ctx, MutationUpdate, nil)
	if err != nil {
		manager.log.Warn("failed to refetch comments after update", zap.String("postId", manager.postID), zap.Error(err))
	}

	return node, nil
}

// DeleteComment soft-deletes a node. It stays in the tree flagged as deleted
// and the page is refetched so replyCount and total stay authoritative.
func (manager *CommentThreadManager) DeleteComment(ctx context.Context, id string) (MutationOutcome, error) {
	target := Target{ID: id, Kind: KindComment}
	if !manager.identity.IsAuthenticated() {
		return MutationOutcome{Page: manager.pager.Page()}, authRequired("delete_comment", target)
	}

	manager.mu.Lock()
	if !manager.mounted {
		manager.mu.Unlock()
		return MutationOutcome{}, unmounted("delete_comment", target)
	}

	node, _, ok := manager.locate(id)
	if !ok || strings.HasPrefix(id, localIDPrefix) {
		manager.mu.Unlock()
		return MutationOutcome{Page: manager.pager.Page()}, invalid("delete_comment", target, "Comment is not displayed", nil)
	}
	if node.IsDeleted {
		manager.mu.Unlock()
		return MutationOutcome{Page: manager.pager.Page()}, nil
	}

	manager.store(id, func(n *CommentNode) { n.IsDeleted = true })
	manager.mu.Unlock()

	err := manager.backend.DeleteComment(ctx, id)

	if err != nil {
		manager.mu.Lock()
		if manager.mounted {
			manager.store(id, func(n *CommentNode) { n.IsDeleted = false })
		}
		manager.mu.Unlock()

		failure := classify("delete_comment", target, FailureMutationFailed, "Your comment could not be deleted", err)
		manager.notices.Post(failure)
		manager.log.Warn("failed to delete comment", zap.String("commentId", id), zap.Error(err))
		return MutationOutcome{Page: manager.pager.Page()}, failure
	}

	outcome, err := manager.pager.OnMutationSettled(ctx, MutationDelete, nil)
	if err != nil {
		manager.log.Warn("failed to refetch comments after delete", zap.String("postId", manager.postID), zap.Error(err))
	}

	return outcome, nil
}

// LikeController returns the controller owning the like state of a displayed
// comment, creating it from the node's projection on first use.
func (manager *CommentThreadManager) LikeController(commentID string) (*LikeToggleController, error) {
	target := Target{ID: commentID, Kind: KindComment}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	if !manager.mounted {
		return nil, unmounted("toggle_like", target)
	}

	if controller, ok := manager.likes[commentID]; ok {
		return controller, nil
	}

	node, _, ok := manager.locate(commentID)
	if !ok || strings.HasPrefix(commentID, localIDPrefix) {
		return nil, invalid("toggle_like", target, "Comment is not displayed", nil)
	}

	controller := NewLikeToggleController(target, node.LikeState, manager.backend, manager.identity, manager.notices, manager.log)
	controller.OnCommit(func(ctx context.Context) {
		// Cached pages still carry the old like projection.
		if err := manager.invalidate(ctx); err != nil {
			manager.log.Warn("failed to invalidate comment pages after like", zap.String("commentId", commentID), zap.Error(err))
		}
	})
	manager.likes[commentID] = controller

	return controller, nil
}

func (manager *CommentThreadManager) ToggleLike(ctx context.Context, commentID string) (LikeState, error) {
	controller, err := manager.LikeController(commentID)
	if err != nil {
		return LikeState{}, err
	}

	return controller.Toggle(ctx)
}

// Unmount detaches the manager; late responses are discarded.
func (manager *CommentThreadManager) Unmount() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.mounted = false
	for _, controller := range manager.likes {
		controller.Unmount()
	}
}

func (manager *CommentThreadManager) postTarget() Target {
	return Target{ID: manager.postID, Kind: KindPost}
}

func stringPtr(value string) *string {
	return &value
}
