package constant

const (
	MAX_COMMENT_LENGTH = 2000
	MAX_TITLE_LENGTH   = 200
	MAX_POST_LENGTH    = 10000
)
