package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	Id             uuid.UUID
	PostId         uuid.UUID
	ParentId       *uuid.UUID
	RootId         *uuid.UUID
	AuthorId       uuid.UUID
	AuthorName     string
	Content        string
	IsDeleted      bool
	CreateDatetime time.Time
	UpdateDatetime time.Time
}

// CommentRow is a comment as listed for one viewer.
type CommentRow struct {
	Comment
	LikeCount  int
	IsLiked    bool
	ReplyCount int
}
