package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type PostUsecase struct {
	PostRepository *repository.PostRepository
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewPostUsecase(postRepository *repository.PostRepository, zap *zap.Logger, koanf *koanf.Koanf) *PostUsecase {
	return &PostUsecase{
		PostRepository: postRepository,
		Log:            zap,
		Config:         koanf,
	}
}

func validatePost(payload model.PostCreateRequest) error {
	if strings.TrimSpace(payload.Title) == "" {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Title is required",
			Param:   "title",
		}
	} else if utf8.RuneCountInString(payload.Title) > constant.MAX_TITLE_LENGTH {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Title is exceeded max length: %d", constant.MAX_TITLE_LENGTH),
			Param:   "title",
		}
	}

	if strings.TrimSpace(payload.Content) == "" {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Content is required",
			Param:   "content",
		}
	} else if utf8.RuneCountInString(payload.Content) > constant.MAX_POST_LENGTH {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Content is exceeded max length: %d", constant.MAX_POST_LENGTH),
			Param:   "content",
		}
	}

	return nil
}

// CreatePost stores a new post and tells the caller where to go next. A new
// post opens its own detail view, so no list page is refetched.
func (usecase *PostUsecase) CreatePost(ctx context.Context, viewer model.Viewer, payload model.PostCreateRequest) (model.PostCreateResponse, error) {
	response := model.PostCreateResponse{}

	if !viewer.IsAuthenticated() {
		return response, engagement.Unauthenticated()
	}

	err := validatePost(payload)
	if err != nil {
		return response, err
	}

	now := time.Now().UTC()
	post := model.Post{
		Id:             uuid.New(),
		AuthorId:       viewer.UserId,
		AuthorName:     viewer.Username,
		Title:          strings.TrimSpace(payload.Title),
		Content:        strings.TrimSpace(payload.Content),
		CreateDatetime: now,
		UpdateDatetime: now,
	}

	err = usecase.PostRepository.CreatePost(ctx, post)
	if err != nil {
		return response, err
	}

	created := engagement.Target{ID: post.Id.String(), Kind: engagement.KindPost}
	outcome, err := engagement.NewPaginationCoordinator(1, 0).OnMutationSettled(ctx, engagement.MutationCreateNavigating, &created)
	if err != nil {
		return response, err
	}

	response.Id = created.ID
	response.Navigate = outcome.Navigate.Path

	return response, nil
}

func (usecase *PostUsecase) GetPost(ctx context.Context, viewer model.Viewer, postIdParam string) (model.PostResponse, error) {
	response := model.PostResponse{}

	postId, err := uuid.Parse(postIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid post id",
			Param:   "postId",
		}
	}

	post, err := usecase.PostRepository.GetPost(ctx, postId, viewer.UserId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return response, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Post not found",
				Param:   "postId",
			}
		}

		return response, err
	}

	response = model.PostResponse{
		Id:             post.Id.String(),
		AuthorId:       post.AuthorId.String(),
		AuthorName:     post.AuthorName,
		Title:          post.Title,
		Content:        post.Content,
		ViewCount:      post.ViewCount,
		LikeCount:      post.LikeCount,
		IsLiked:        post.IsLiked,
		CommentCount:   post.CommentCount,
		CreateDatetime: post.CreateDatetime.Format(time.RFC3339),
		UpdateDatetime: post.UpdateDatetime.Format(time.RFC3339),
	}

	return response, nil
}
