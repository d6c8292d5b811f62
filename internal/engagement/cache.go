package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type PageKey struct {
	ViewerID string
	PostID   string
	Page     int
	Limit    int
	SortBy   SortOrder
}

func (key PageKey) String() string {
	viewer := key.ViewerID
	if viewer == "" {
		viewer = "anonymous"
	}

	return fmt.Sprintf("%s:%s:%s:%d:%d", key.PostID, viewer, key.SortBy, key.Page, key.Limit)
}

// PageCache stores top-level comment pages. It is an optimization only:
// mutations invalidate a post's pages and the current page is refetched.
type PageCache interface {
	Get(ctx context.Context, key PageKey) (CommentPage, bool, error)
	Set(ctx context.Context, key PageKey, page CommentPage) error
	InvalidatePost(ctx context.Context, postID string) error
}

type memoryEntry struct {
	page      CommentPage
	expiresAt time.Time
}

// MemoryPageCache is the in-process PageCache used when no shared cache is
// configured.
type MemoryPageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[PageKey]memoryEntry
	now     func() time.Time
}

func NewMemoryPageCache(ttl time.Duration) *MemoryPageCache {
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &MemoryPageCache{
		ttl:     ttl,
		entries: make(map[PageKey]memoryEntry),
		now:     time.Now,
	}
}

func (cache *MemoryPageCache) Get(_ context.Context, key PageKey) (CommentPage, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, ok := cache.entries[key]
	if !ok {
		return CommentPage{}, false, nil
	}

	if cache.now().After(entry.expiresAt) {
		delete(cache.entries, key)
		return CommentPage{}, false, nil
	}

	return clonePage(entry.page), true, nil
}

func (cache *MemoryPageCache) Set(_ context.Context, key PageKey, page CommentPage) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries[key] = memoryEntry{page: clonePage(page), expiresAt: cache.now().Add(cache.ttl)}
	return nil
}

func (cache *MemoryPageCache) InvalidatePost(_ context.Context, postID string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	for key := range cache.entries {
		if key.PostID == postID {
			delete(cache.entries, key)
		}
	}

	return nil
}

func clonePage(page CommentPage) CommentPage {
	return CommentPage{
		Items:      append([]CommentNode(nil), page.Items...),
		Pagination: page.Pagination,
	}
}
