package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	Id             uuid.UUID
	AuthorId       uuid.UUID
	AuthorName     string
	Title          string
	Content        string
	CreateDatetime time.Time
	UpdateDatetime time.Time
}

type PostDetail struct {
	Id             uuid.UUID
	AuthorId       uuid.UUID
	AuthorName     string
	Title          string
	Content        string
	ViewCount      int
	LikeCount      int
	IsLiked        bool
	CommentCount   int
	CreateDatetime time.Time
	UpdateDatetime time.Time
}
