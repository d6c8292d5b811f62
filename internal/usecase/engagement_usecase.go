package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type EngagementUsecase struct {
	Registry *SessionRegistry
	Log      *zap.Logger
	Config   *koanf.Koanf
}

func NewEngagementUsecase(registry *SessionRegistry, zap *zap.Logger, koanf *koanf.Koanf) *EngagementUsecase {
	return &EngagementUsecase{
		Registry: registry,
		Log:      zap,
		Config:   koanf,
	}
}

func parseTarget(kindParam string, targetIdParam string) (engagement.Target, error) {
	kind, err := engagement.ParseKind(kindParam)
	if err != nil {
		return engagement.Target{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Kind must be post or comment",
			Param:   "kind",
		}
	}

	target := engagement.Target{ID: strings.TrimSpace(targetIdParam), Kind: kind}
	if target.ID == "" {
		return engagement.Target{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Target id is required",
			Param:   "targetId",
		}
	}

	return target, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Content is required",
			Param:   "content",
		}
	}

	if utf8.RuneCountInString(content) > constant.MAX_COMMENT_LENGTH {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Content is exceeded max length: %d", constant.MAX_COMMENT_LENGTH),
			Param:   "content",
		}
	}

	return nil
}

func likeResponse(target engagement.Target, state engagement.LikeState, phase engagement.LikePhase) model.LikeResponse {
	return model.LikeResponse{
		TargetId:  target.ID,
		Kind:      string(target.Kind),
		IsLiked:   state.IsLiked,
		LikeCount: state.LikeCount,
		Pending:   state.Pending,
		Phase:     string(phase),
	}
}

func (usecase *EngagementUsecase) session(sessionId string, viewer model.Viewer) *engagement.Session {
	return usecase.Registry.Acquire(sessionId, viewer)
}

func (usecase *EngagementUsecase) RegisterView(ctx context.Context, sessionId string, viewer model.Viewer, kindParam string, targetIdParam string) (engagement.ViewResult, error) {
	target, err := parseTarget(kindParam, targetIdParam)
	if err != nil {
		return engagement.ViewResult{}, err
	}

	return usecase.session(sessionId, viewer).RegisterView(ctx, target), nil
}

func (usecase *EngagementUsecase) MountLike(sessionId string, viewer model.Viewer, kindParam string, targetIdParam string, payload model.MountRequest) (model.LikeResponse, error) {
	target, err := parseTarget(kindParam, targetIdParam)
	if err != nil {
		return model.LikeResponse{}, err
	}

	if payload.LikeCount < 0 {
		return model.LikeResponse{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Like count must be greater or equal than 0",
			Param:   "likeCount",
		}
	}

	controller, err := usecase.session(sessionId, viewer).MountLike(target, engagement.LikeState{
		IsLiked:   payload.IsLiked,
		LikeCount: payload.LikeCount,
	})
	if err != nil {
		return model.LikeResponse{}, err
	}

	return likeResponse(target, controller.State(), controller.Phase()), nil
}

func (usecase *EngagementUsecase) UnmountLike(sessionId string, viewer model.Viewer, kindParam string, targetIdParam string) error {
	target, err := parseTarget(kindParam, targetIdParam)
	if err != nil {
		return err
	}

	usecase.session(sessionId, viewer).Unmount(target)

	return nil
}

func (usecase *EngagementUsecase) GetLike(sessionId string, viewer model.Viewer, kindParam string, targetIdParam string) (model.LikeResponse, error) {
	target, err := parseTarget(kindParam, targetIdParam)
	if err != nil {
		return model.LikeResponse{}, err
	}

	controller, err := usecase.session(sessionId, viewer).Like(target)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return likeResponse(target, controller.State(), controller.Phase()), nil
}

// ToggleLike flips the like on a mounted target. With wait unset it answers
// with the optimistic state and lets the request to the backend settle on
// its own.
func (usecase *EngagementUsecase) ToggleLike(ctx context.Context, sessionId string, viewer model.Viewer, kindParam string, targetIdParam string, wait bool) (model.LikeResponse, error) {
	target, err := parseTarget(kindParam, targetIdParam)
	if err != nil {
		return model.LikeResponse{}, err
	}

	controller, err := usecase.session(sessionId, viewer).Like(target)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return usecase.toggle(ctx, controller, wait)
}

func (usecase *EngagementUsecase) toggle(ctx context.Context, controller *engagement.LikeToggleController, wait bool) (model.LikeResponse, error) {
	if !wait {
		optimistic, _, err := controller.Begin(context.WithoutCancel(ctx))
		if err != nil {
			return model.LikeResponse{}, err
		}

		return likeResponse(controller.Target(), optimistic, engagement.LikePending), nil
	}

	state, err := controller.Toggle(ctx)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return likeResponse(controller.Target(), state, controller.Phase()), nil
}

func (usecase *EngagementUsecase) thread(sessionId string, viewer model.Viewer, postId string, sortBy engagement.SortOrder) (*engagement.CommentThreadManager, error) {
	if strings.TrimSpace(postId) == "" {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Post id is required",
			Param:   "postId",
		}
	}

	return usecase.session(sessionId, viewer).Thread(strings.TrimSpace(postId), sortBy)
}

// ListComments shows a page of the post's thread. page 0 keeps the current
// page, which makes it a refetch; an empty sort keeps the current order.
func (usecase *EngagementUsecase) ListComments(ctx context.Context, sessionId string, viewer model.Viewer, postId string, page int, limit int, sortParam string) (engagement.ThreadView, error) {
	if page < 0 {
		return engagement.ThreadView{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Page must be greater or equal than 1",
			Param:   "page",
		}
	}

	if limit < 0 {
		return engagement.ThreadView{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Limit must be greater or equal than 0",
			Param:   "limit",
		}
	} else if limit > engagement.MaxPageLimit {
		return engagement.ThreadView{}, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Limit is exceeded max limit: %d", engagement.MaxPageLimit),
			Param:   "limit",
		}
	}

	var sortBy engagement.SortOrder
	if strings.TrimSpace(sortParam) != "" {
		sortBy = engagement.ParseSortOrder(sortParam)
	}

	thread, err := usecase.thread(sessionId, viewer, postId, sortBy)
	if err != nil {
		return engagement.ThreadView{}, err
	}

	if page == 0 {
		page = thread.Pagination().Page()
	}

	return thread.ListComments(ctx, page, limit)
}

func (usecase *EngagementUsecase) CloseThread(sessionId string, viewer model.Viewer, postId string) bool {
	return usecase.session(sessionId, viewer).CloseThread(postId)
}

func (usecase *EngagementUsecase) ExpandReplies(ctx context.Context, sessionId string, viewer model.Viewer, postId string, commentId string) (engagement.ReplySection, error) {
	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.ReplySection{}, err
	}

	return thread.ExpandReplies(ctx, commentId)
}

func (usecase *EngagementUsecase) CollapseReplies(sessionId string, viewer model.Viewer, postId string, commentId string) (engagement.ReplySection, error) {
	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.ReplySection{}, err
	}

	return thread.CollapseReplies(commentId), nil
}

func (usecase *EngagementUsecase) PrepareReply(sessionId string, viewer model.Viewer, postId string, commentId string) (engagement.ReplyDraft, error) {
	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.ReplyDraft{}, err
	}

	return thread.PrepareReply(commentId)
}

func (usecase *EngagementUsecase) CreateComment(ctx context.Context, sessionId string, viewer model.Viewer, postId string, payload model.CommentCreateRequest) (engagement.CreateResult, error) {
	err := validateContent(payload.Content)
	if err != nil {
		return engagement.CreateResult{}, err
	}

	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.CreateResult{}, err
	}

	return thread.CreateComment(ctx, payload.Content, payload.ParentId, payload.RootId)
}

func (usecase *EngagementUsecase) UpdateComment(ctx context.Context, sessionId string, viewer model.Viewer, postId string, commentId string, payload model.CommentUpdateRequest) (engagement.CommentNode, error) {
	err := validateContent(payload.Content)
	if err != nil {
		return engagement.CommentNode{}, err
	}

	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.CommentNode{}, err
	}

	return thread.UpdateComment(ctx, commentId, payload.Content)
}

func (usecase *EngagementUsecase) DeleteComment(ctx context.Context, sessionId string, viewer model.Viewer, postId string, commentId string) (engagement.MutationOutcome, error) {
	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return engagement.MutationOutcome{}, err
	}

	return thread.DeleteComment(ctx, commentId)
}

func (usecase *EngagementUsecase) ToggleCommentLike(ctx context.Context, sessionId string, viewer model.Viewer, postId string, commentId string, wait bool) (model.LikeResponse, error) {
	thread, err := usecase.thread(sessionId, viewer, postId, "")
	if err != nil {
		return model.LikeResponse{}, err
	}

	controller, err := thread.LikeController(commentId)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return usecase.toggle(ctx, controller, wait)
}

func (usecase *EngagementUsecase) Notices(sessionId string, viewer model.Viewer) []engagement.Notice {
	return usecase.session(sessionId, viewer).Notices().List()
}

func (usecase *EngagementUsecase) DismissNotice(sessionId string, viewer model.Viewer, noticeId string) error {
	dismissed := usecase.session(sessionId, viewer).Notices().Dismiss(noticeId)
	if !dismissed {
		return &model.ValidationError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "Notice not found",
			Param:   "noticeId",
		}
	}

	return nil
}

// EndSession drops every mounted controller of the session. View markers in
// the marker store survive.
func (usecase *EngagementUsecase) EndSession(sessionId string) bool {
	return usecase.Registry.Remove(sessionId)
}
