package model

import (
	"time"

	"github.com/google/uuid"
)

type Like struct {
	TargetKind     string
	TargetId       uuid.UUID
	UserId         uuid.UUID
	CreateDatetime time.Time
}
