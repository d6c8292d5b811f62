package engagement

import (
	"context"
	"sync"

	"github.com/ferdian3456/virdanengage/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type LikePhase string

const (
	LikeIdle       LikePhase = "idle"
	LikePending    LikePhase = "pending"
	LikeCommitted  LikePhase = "committed"
	LikeRolledBack LikePhase = "rolled_back"
)

type LikeSettlement struct {
	State LikeState
	Phase LikePhase
	Err   error
}

// LikeToggleController owns the LikeState of one mounted target. A target
// has at most one toggle in flight; further clicks are rejected, not queued.
type LikeToggleController struct {
	target   Target
	backend  Backend
	identity Identity
	notices  *NoticeBoard
	log      *zap.Logger

	mu       sync.Mutex
	state    LikeState
	phase    LikePhase
	snapshot LikeState
	mounted  bool
	onCommit func(ctx context.Context)
}

func NewLikeToggleController(target Target, initial LikeState, backend Backend, identity Identity, notices *NoticeBoard, log *zap.Logger) *LikeToggleController {
	if log == nil {
		log = zap.NewNop()
	}
	if identity == nil {
		identity = Anonymous()
	}

	return &LikeToggleController{
		target:   target,
		backend:  backend,
		identity: identity,
		notices:  notices,
		log:      log,
		state:    normalizeLikeState(initial),
		phase:    LikeIdle,
		mounted:  true,
	}
}

func normalizeLikeState(state LikeState) LikeState {
	state.Pending = false
	if state.LikeCount < 0 {
		state.LikeCount = 0
	}

	return state
}

func (controller *LikeToggleController) Target() Target {
	return controller.target
}

func (controller *LikeToggleController) State() LikeState {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.state
}

func (controller *LikeToggleController) Phase() LikePhase {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.phase
}

// Reseed replaces the state with a fresh server projection. It is ignored
// while a toggle is pending, since that toggle's settlement is authoritative.
func (controller *LikeToggleController) Reseed(projection LikeState) bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if !controller.mounted || controller.phase == LikePending {
		return false
	}

	controller.state = normalizeLikeState(projection)
	controller.phase = LikeIdle
	return true
}

// OnCommit registers fn to run after a toggle commits and before Toggle
// returns. Owners holding cached projections of the target use it to drop
// them.
func (controller *LikeToggleController) OnCommit(fn func(ctx context.Context)) {
	controller.mu.Lock()
	controller.onCommit = fn
	controller.mu.Unlock()
}

func (controller *LikeToggleController) Unmount() {
	controller.mu.Lock()
	controller.mounted = false
	controller.mu.Unlock()
}

func (controller *LikeToggleController) Mounted() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.mounted
}

// Begin applies the optimistic prediction and returns it immediately. The
// channel receives exactly one settlement. ctx must outlive the request.
func (controller *LikeToggleController) Begin(ctx context.Context) (LikeState, <-chan LikeSettlement, error) {
	if !controller.identity.IsAuthenticated() {
		return controller.State(), nil, authRequired("toggle_like", controller.target)
	}

	controller.mu.Lock()
	if !controller.mounted {
		state := controller.state
		controller.mu.Unlock()
		return state, nil, unmounted("toggle_like", controller.target)
	}

	if controller.phase == LikePending {
		state := controller.state
		controller.mu.Unlock()
		return state, nil, inFlight("toggle_like", controller.target)
	}

	controller.snapshot = controller.state
	optimistic := controller.state
	optimistic.IsLiked = !optimistic.IsLiked
	if optimistic.IsLiked {
		optimistic.LikeCount++
	} else if optimistic.LikeCount > 0 {
		optimistic.LikeCount--
	}
	optimistic.Pending = true

	controller.state = optimistic
	controller.phase = LikePending
	snapshot := controller.snapshot
	controller.mu.Unlock()

	done := make(chan LikeSettlement, 1)
	go func() {
		done <- controller.settle(ctx, snapshot)
	}()

	return optimistic, done, nil
}

func (controller *LikeToggleController) Toggle(ctx context.Context) (LikeState, error) {
	_, done, err := controller.Begin(ctx)
	if err != nil {
		return controller.State(), err
	}

	settlement := <-done
	return settlement.State, settlement.Err
}

func (controller *LikeToggleController) settle(ctx context.Context, snapshot LikeState) LikeSettlement {
	ctx, span := observability.Tracer().Start(ctx, "engagement.ToggleLike")
	defer span.End()
	span.SetAttributes(attribute.String("engagement.target", controller.target.String()))

	result, err := controller.backend.ToggleLike(ctx, controller.target.ID, controller.target.Kind)
	if err == nil && result.LikeCount < 0 {
		err = invalid("toggle_like", controller.target, "Server returned a negative like count", nil)
	}

	settlement, onCommit := controller.apply(snapshot, result, err)
	if settlement.Err != nil && !IsKind(settlement.Err, FailureUnmounted) {
		observability.Fail(span, err)
	}
	if settlement.Phase == LikeCommitted && onCommit != nil {
		onCommit(ctx)
	}

	return settlement
}

func (controller *LikeToggleController) apply(snapshot LikeState, result LikeResult, err error) (LikeSettlement, func(ctx context.Context)) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if !controller.mounted {
		return LikeSettlement{State: controller.state, Phase: controller.phase, Err: unmounted("toggle_like", controller.target)}, nil
	}

	if err != nil {
		controller.state = snapshot
		controller.state.Pending = false
		controller.phase = LikeRolledBack

		failure := classify("toggle_like", controller.target, FailureMutationFailed, "Could not update your like. Please try again", err)
		if failure.Kind == FailureInvalid {
			failure.Kind = FailureMutationFailed
		}
		controller.notices.Post(failure)
		controller.log.Warn("like toggle rolled back", zap.String("target", controller.target.String()), zap.Error(err))

		return LikeSettlement{State: controller.state, Phase: controller.phase, Err: failure}, nil
	}

	controller.state = LikeState{IsLiked: result.IsLiked, LikeCount: result.LikeCount}
	controller.phase = LikeCommitted

	return LikeSettlement{State: controller.state, Phase: controller.phase}, controller.onCommit
}
