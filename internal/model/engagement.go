package model

type MountRequest struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

type CommentCreateRequest struct {
	Content  string  `json:"content"`
	ParentId *string `json:"parentId"`
	RootId   *string `json:"rootId"`
}

type CommentUpdateRequest struct {
	Content string `json:"content"`
}

type PostCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type PostCreateResponse struct {
	Id       string `json:"id"`
	Navigate string `json:"navigate"`
}

type PostResponse struct {
	Id             string `json:"id"`
	AuthorId       string `json:"authorId"`
	AuthorName     string `json:"authorName"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ViewCount      int    `json:"viewCount"`
	LikeCount      int    `json:"likeCount"`
	IsLiked        bool   `json:"isLiked"`
	CommentCount   int    `json:"commentCount"`
	CreateDatetime string `json:"createDatetime"`
	UpdateDatetime string `json:"updateDatetime"`
}

type LikeResponse struct {
	TargetId  string `json:"targetId"`
	Kind      string `json:"kind"`
	IsLiked   bool   `json:"isLiked"`
	LikeCount int    `json:"likeCount"`
	Pending   bool   `json:"pending"`
	Phase     string `json:"phase"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres,omitempty"`
	Redis    string `json:"redis,omitempty"`
}
