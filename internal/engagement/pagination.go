package engagement

import (
	"context"
	"sync"
)

type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
	// MutationCreateNavigating is the creation of a resource that is shown
	// somewhere else, e.g. a new post opening its detail view.
	MutationCreateNavigating MutationKind = "create_navigating"
)

type Navigation struct {
	Target Target `json:"-"`
	Path   string `json:"path"`
}

func NavigationTo(target Target) *Navigation {
	return &Navigation{Target: target, Path: "/" + string(target.Kind) + "s/" + target.ID}
}

type MutationOutcome struct {
	Page      int         `json:"page"`
	Refetched bool        `json:"refetched"`
	Navigate  *Navigation `json:"navigate,omitempty"`
}

// PageSource loads one page of a list and returns the server window.
type PageSource interface {
	LoadPage(ctx context.Context, page int) (PageWindow, error)
}

// PaginationCoordinator keeps the current page a function of user
// navigation only. Mutations refetch the same page; they never move it.
type PaginationCoordinator struct {
	mu         sync.Mutex
	page       int
	window     PageWindow
	source     PageSource
	invalidate func(ctx context.Context) error
}

func NewPaginationCoordinator(page int, limit int) *PaginationCoordinator {
	window := NewPageWindow(page, limit, 0)

	return &PaginationCoordinator{
		page:   window.Page,
		window: window,
	}
}

func (coordinator *PaginationCoordinator) Bind(source PageSource, invalidate func(ctx context.Context) error) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	coordinator.source = source
	coordinator.invalidate = invalidate
}

func (coordinator *PaginationCoordinator) Page() int {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	return coordinator.page
}

func (coordinator *PaginationCoordinator) Limit() int {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	return coordinator.window.Limit
}

// SetLimit changes the page size. The page itself is kept.
func (coordinator *PaginationCoordinator) SetLimit(limit int) {
	if limit <= 0 {
		return
	}

	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	coordinator.window.Limit = limit
}

// Window returns the last window reconciled from the server, with Page
// always reporting the navigated page.
func (coordinator *PaginationCoordinator) Window() PageWindow {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	window := coordinator.window
	window.Page = coordinator.page
	return window
}

// Reconcile takes total and totalPages from a server response. The page is
// kept even if it now lies past totalPages.
func (coordinator *PaginationCoordinator) Reconcile(window PageWindow) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	if window.Limit > 0 {
		coordinator.window.Limit = window.Limit
	}
	coordinator.window.Total = window.Total
	coordinator.window.TotalPages = window.TotalPages
}

// OnPageChange is the only operation that moves the page.
func (coordinator *PaginationCoordinator) OnPageChange(ctx context.Context, page int) (PageWindow, error) {
	if page < 1 {
		return coordinator.Window(), invalid("page_change", Target{}, "Page must be greater or equal than 1", nil)
	}

	coordinator.mu.Lock()
	coordinator.page = page
	source := coordinator.source
	coordinator.mu.Unlock()

	if source == nil {
		return coordinator.Window(), nil
	}

	window, err := source.LoadPage(ctx, page)
	if err != nil {
		return coordinator.Window(), err
	}

	coordinator.Reconcile(window)
	return coordinator.Window(), nil
}

func (coordinator *PaginationCoordinator) OnMutationSettled(ctx context.Context, kind MutationKind, created *Target) (MutationOutcome, error) {
	if kind == MutationCreateNavigating {
		outcome := MutationOutcome{Page: coordinator.Page()}
		if created != nil {
			outcome.Navigate = NavigationTo(*created)
		}
		return outcome, nil
	}

	coordinator.mu.Lock()
	page := coordinator.page
	source := coordinator.source
	invalidate := coordinator.invalidate
	coordinator.mu.Unlock()

	if invalidate != nil {
		err := invalidate(ctx)
		if err != nil {
			return MutationOutcome{Page: page}, classify("mutation_settled", Target{}, FailureFetchFailed, "Could not refresh the list", err)
		}
	}

	if source == nil {
		return MutationOutcome{Page: page}, nil
	}

	window, err := source.LoadPage(ctx, page)
	if err != nil {
		return MutationOutcome{Page: page}, err
	}

	coordinator.Reconcile(window)
	return MutationOutcome{Page: coordinator.Page(), Refetched: true}, nil
}
