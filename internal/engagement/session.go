package engagement

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SessionOptions struct {
	Markers        MarkerStore
	Cache          PageCache
	NoticeCapacity int
	PageLimit      int
	ReplyLimit     int
	Log            *zap.Logger
}

// Session is the mount tree of one browsing session: its view gate, the
// mounted like controllers, the open comment threads and the notice board.
type Session struct {
	id       string
	identity Identity
	backend  Backend
	gate     *ViewOnceGate
	notices  *NoticeBoard
	cache    PageCache
	options  SessionOptions
	log      *zap.Logger

	mu       sync.Mutex
	likes    map[string]*LikeToggleController
	threads  map[string]*CommentThreadManager
	lastSeen time.Time
	closed   bool
}

func NewSession(id string, identity Identity, backend Backend, options SessionOptions) *Session {
	if options.Log == nil {
		options.Log = zap.NewNop()
	}
	if identity == nil {
		identity = Anonymous()
	}

	log := options.Log.With(zap.String("sessionId", id))

	return &Session{
		id:       id,
		identity: identity,
		backend:  backend,
		gate:     NewViewOnceGate(id, backend, options.Markers, log),
		notices:  NewNoticeBoard(options.NoticeCapacity),
		cache:    options.Cache,
		options:  options,
		log:      log,
		likes:    make(map[string]*LikeToggleController),
		threads:  make(map[string]*CommentThreadManager),
		lastSeen: time.Now(),
	}
}

func (session *Session) ID() string {
	return session.id
}

func (session *Session) Identity() Identity {
	return session.identity
}

func (session *Session) Notices() *NoticeBoard {
	return session.notices
}

func (session *Session) Touch() {
	session.mu.Lock()
	session.lastSeen = time.Now()
	session.mu.Unlock()
}

func (session *Session) LastSeen() time.Time {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.lastSeen
}

func (session *Session) RegisterView(ctx context.Context, target Target) ViewResult {
	return session.gate.RegisterView(ctx, target, session.identity)
}

// MountLike attaches a like controller for target seeded with the given
// projection. Mounting an already mounted target reseeds it.
func (session *Session) MountLike(target Target, initial LikeState) (*LikeToggleController, error) {
	err := target.Validate()
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, unmounted("mount", target)
	}

	key := target.String()
	if controller, ok := session.likes[key]; ok {
		controller.Reseed(initial)
		return controller, nil
	}

	controller := NewLikeToggleController(target, initial, session.backend, session.identity, session.notices, session.log)
	session.likes[key] = controller

	return controller, nil
}

// Unmount detaches target. A toggle still in flight settles against the
// server but its result is discarded.
func (session *Session) Unmount(target Target) bool {
	session.mu.Lock()
	defer session.mu.Unlock()

	key := target.String()
	controller, ok := session.likes[key]
	if !ok {
		return false
	}

	controller.Unmount()
	delete(session.likes, key)
	return true
}

// Like returns the controller owning target's like state. Comments shown in an
// open thread are owned by that thread.
func (session *Session) Like(target Target) (*LikeToggleController, error) {
	err := target.Validate()
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return nil, unmounted("toggle_like", target)
	}

	if controller, ok := session.likes[target.String()]; ok {
		session.mu.Unlock()
		return controller, nil
	}

	threads := make([]*CommentThreadManager, 0, len(session.threads))
	for _, thread := range session.threads {
		threads = append(threads, thread)
	}
	session.mu.Unlock()

	if target.Kind == KindComment {
		for _, thread := range threads {
			controller, err := thread.LikeController(target.ID)
			if err == nil {
				return controller, nil
			}
		}
	}

	return nil, unmounted("toggle_like", target)
}

// Thread returns the open comment thread for postID, opening it on first use.
// Reopening with a different sort order replaces the thread; an empty sortBy
// keeps whatever is open.
func (session *Session) Thread(postID string, sortBy SortOrder) (*CommentThreadManager, error) {
	target := Target{ID: postID, Kind: KindPost}
	err := target.Validate()
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, unmounted("open_thread", target)
	}

	if thread, ok := session.threads[postID]; ok {
		if sortBy == "" || thread.sortBy == sortBy {
			return thread, nil
		}
		thread.Unmount()
	}

	if sortBy == "" {
		sortBy = SortNewest
	}

	thread := NewCommentThreadManager(postID, session.backend, session.identity, ThreadOptions{
		Limit:      session.options.PageLimit,
		SortBy:     sortBy,
		ReplyLimit: session.options.ReplyLimit,
		Cache:      session.cache,
		Notices:    session.notices,
		Log:        session.log,
	})
	session.threads[postID] = thread

	return thread, nil
}

func (session *Session) CloseThread(postID string) bool {
	session.mu.Lock()
	defer session.mu.Unlock()

	thread, ok := session.threads[postID]
	if !ok {
		return false
	}

	thread.Unmount()
	delete(session.threads, postID)
	return true
}

// Close unmounts everything. Durable view markers are kept.
func (session *Session) Close() {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return
	}

	session.closed = true
	for key, controller := range session.likes {
		controller.Unmount()
		delete(session.likes, key)
	}
	for postID, thread := range session.threads {
		thread.Unmount()
		delete(session.threads, postID)
	}
}
