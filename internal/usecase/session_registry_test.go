package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	alice     = model.Viewer{UserId: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Username: "alice", Token: "t1"}
	bob       = model.Viewer{UserId: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Username: "bob", Token: "t2"}
	anonymous = model.Viewer{}
)

func newRegistry(backends *[]*stubBackend) *SessionRegistry {
	return NewSessionRegistry(func(viewer model.Viewer) engagement.Backend {
		backend := newStubBackend()
		backend.token = viewer.Token
		if backends != nil {
			*backends = append(*backends, backend)
		}
		return backend
	}, engagement.SessionOptions{}, time.Minute, zap.NewNop())
}

func TestSessionRegistryReusesSessionForSameViewer(t *testing.T) {
	var backends []*stubBackend
	registry := newRegistry(&backends)

	first := registry.Acquire("s1", alice)
	second := registry.Acquire("s1", alice)

	assert.Same(t, first, second)
	assert.Len(t, backends, 1)
	assert.True(t, first.Identity().IsAuthenticated())
	assert.Equal(t, "alice", first.Identity().Username())
}

func TestSessionRegistryRebuildsOnIdentityChange(t *testing.T) {
	registry := newRegistry(nil)

	before := registry.Acquire("s1", anonymous)
	controller, err := before.MountLike(engagement.Target{ID: "p1", Kind: engagement.KindPost}, engagement.LikeState{})
	require.NoError(t, err)

	after := registry.Acquire("s1", bob)

	assert.NotSame(t, before, after)
	assert.False(t, controller.Mounted())
	assert.True(t, after.Identity().IsAuthenticated())
	assert.Equal(t, 1, registry.Len())
}

func TestSessionRegistryRefreshesToken(t *testing.T) {
	var backends []*stubBackend
	registry := newRegistry(&backends)

	registry.Acquire("s1", alice)

	refreshed := alice
	refreshed.Token = "t1-refreshed"
	registry.Acquire("s1", refreshed)

	require.Len(t, backends, 1)
	assert.Equal(t, "t1-refreshed", backends[0].token)
}

func TestSessionRegistrySweepEvictsIdleSessions(t *testing.T) {
	registry := newRegistry(nil)

	session := registry.Acquire("s1", alice)
	registry.Acquire("s2", bob)

	assert.Equal(t, 0, registry.Sweep())

	registry.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 2, registry.Sweep())
	assert.Equal(t, 0, registry.Len())

	_, err := session.MountLike(engagement.Target{ID: "p1", Kind: engagement.KindPost}, engagement.LikeState{})
	assert.True(t, engagement.IsKind(err, engagement.FailureUnmounted))

	_, ok := registry.Lookup("s1")
	assert.False(t, ok)
}

func TestSessionRegistryRunClosesOnCancel(t *testing.T) {
	registry := newRegistry(nil)
	registry.Acquire("s1", alice)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		registry.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("registry did not stop")
	}

	assert.Equal(t, 0, registry.Len())
}

func TestSessionRegistryRemove(t *testing.T) {
	registry := newRegistry(nil)
	registry.Acquire("s1", alice)

	assert.True(t, registry.Remove("s1"))
	assert.False(t, registry.Remove("s1"))
}
