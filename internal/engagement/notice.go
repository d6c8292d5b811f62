package engagement

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Notice struct {
	ID          string      `json:"id"`
	Kind        FailureKind `json:"kind"`
	Op          string      `json:"op"`
	TargetID    string      `json:"targetId,omitempty"`
	Message     string      `json:"message"`
	Retryable   bool        `json:"retryable"`
	Dismissible bool        `json:"dismissible"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NoticeBoard holds the transient notices of one session. Soft-metric
// failures never reach it.
type NoticeBoard struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	now      func() time.Time
}

const defaultNoticeCapacity = 20

func NewNoticeBoard(capacity int) *NoticeBoard {
	if capacity <= 0 {
		capacity = defaultNoticeCapacity
	}

	return &NoticeBoard{
		capacity: capacity,
		now:      time.Now,
	}
}

// Post records a notice for the failure and returns it. The second return is
// false when the failure is not shown as a notice: soft metrics are silent and
// auth failures surface as a sign-in prompt instead.
func (board *NoticeBoard) Post(failure *Failure) (Notice, bool) {
	if board == nil || failure == nil {
		return Notice{}, false
	}

	switch failure.Kind {
	case FailureSoftMetric, FailureUnmounted, FailureInFlight, FailureAuthRequired:
		return Notice{}, false
	}

	notice := Notice{
		ID:          uuid.NewString(),
		Kind:        failure.Kind,
		Op:          failure.Op,
		TargetID:    failure.Target.ID,
		Message:     failure.Message,
		Retryable:   failure.Retryable(),
		Dismissible: true,
		CreatedAt:   board.now().UTC(),
	}

	board.mu.Lock()
	defer board.mu.Unlock()

	board.notices = append(board.notices, notice)
	if len(board.notices) > board.capacity {
		board.notices = append([]Notice(nil), board.notices[len(board.notices)-board.capacity:]...)
	}

	return notice, true
}

func (board *NoticeBoard) List() []Notice {
	board.mu.Lock()
	defer board.mu.Unlock()

	return append([]Notice{}, board.notices...)
}

func (board *NoticeBoard) Dismiss(id string) bool {
	board.mu.Lock()
	defer board.mu.Unlock()

	for i, notice := range board.notices {
		if notice.ID == id {
			board.notices = append(board.notices[:i], board.notices[i+1:]...)
			return true
		}
	}

	return false
}
