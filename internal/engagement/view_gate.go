package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/ferdian3456/virdanengage/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ViewOutcome string

const (
	ViewRecorded        ViewOutcome = "recorded"
	ViewAlreadyRecorded ViewOutcome = "already_recorded"
	// ViewDeferred means identity was still resolving; nothing was sent.
	ViewDeferred ViewOutcome = "deferred"
	ViewFailed   ViewOutcome = "failed"
)

type ViewResult struct {
	Outcome   ViewOutcome `json:"outcome"`
	ViewCount int         `json:"viewCount,omitempty"`
}

// ViewOnceGate fires the view increment at most once per target per session.
// The in-memory set lives as long as the gate; the MarkerStore outlives it.
type ViewOnceGate struct {
	sessionID string
	backend   Backend
	markers   MarkerStore
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	seen map[string]ViewRecord
}

func NewViewOnceGate(sessionID string, backend Backend, markers MarkerStore, log *zap.Logger) *ViewOnceGate {
	if log == nil {
		log = zap.NewNop()
	}

	return &ViewOnceGate{
		sessionID: sessionID,
		backend:   backend,
		markers:   markers,
		log:       log,
		now:       time.Now,
		seen:      make(map[string]ViewRecord),
	}
}

// RegisterView never returns an error: view counts are a soft metric, so
// failures are logged and left for the next mount to retry.
func (gate *ViewOnceGate) RegisterView(ctx context.Context, target Target, identity Identity) ViewResult {
	if err := target.Validate(); err != nil {
		gate.log.Error("register view called with invalid target", zap.String("target", target.String()))
		return ViewResult{Outcome: ViewFailed}
	}

	if identity != nil && !identity.IsSettled() {
		return ViewResult{Outcome: ViewDeferred}
	}

	ctx, span := observability.Tracer().Start(ctx, "engagement.RegisterView")
	defer span.End()
	span.SetAttributes(attribute.String("engagement.target", target.String()))

	key := target.String()

	gate.mu.Lock()
	if _, ok := gate.seen[key]; ok {
		gate.mu.Unlock()
		return ViewResult{Outcome: ViewAlreadyRecorded}
	}
	// Claim before the first suspension point so a concurrent mount sees it.
	gate.seen[key] = ViewRecord{TargetID: target.ID, RecordedAt: gate.now().UTC()}
	gate.mu.Unlock()

	if gate.markers != nil {
		marked, err := gate.markers.IsMarked(ctx, gate.sessionID, key)
		if err != nil {
			gate.release(key)
			gate.log.Warn("failed to read session view marker", zap.String("target", key), zap.Error(err))
			return ViewResult{Outcome: ViewFailed}
		}

		if marked {
			return ViewResult{Outcome: ViewAlreadyRecorded}
		}
	}

	count, err := gate.backend.IncrementView(ctx, target.ID, target.Kind)
	if err != nil {
		gate.release(key)
		failure := classify("register_view", target, FailureSoftMetric, "View could not be recorded", err)
		gate.log.Debug("view increment failed", zap.String("target", key), zap.Error(failure))
		return ViewResult{Outcome: ViewFailed}
	}

	if gate.markers != nil {
		err = gate.markers.Mark(ctx, gate.sessionID, key)
		if err != nil {
			// The in-memory claim still blocks repeats while this gate lives.
			gate.log.Warn("failed to persist session view marker", zap.String("target", key), zap.Error(err))
		}
	}

	return ViewResult{Outcome: ViewRecorded, ViewCount: count}
}

func (gate *ViewOnceGate) release(key string) {
	gate.mu.Lock()
	delete(gate.seen, key)
	gate.mu.Unlock()
}

func (gate *ViewOnceGate) Record(target Target) (ViewRecord, bool) {
	gate.mu.Lock()
	defer gate.mu.Unlock()

	record, ok := gate.seen[target.String()]
	return record, ok
}
