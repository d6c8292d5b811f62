package model

import "github.com/google/uuid"

// Viewer is who the current request acts for. UserId is uuid.Nil for
// anonymous readers.
type Viewer struct {
	UserId   uuid.UUID
	Username string
	Token    string
}

func (viewer Viewer) IsAuthenticated() bool {
	return viewer.UserId != uuid.Nil
}

// Fingerprint changes whenever the session must be rebuilt for a new identity.
func (viewer Viewer) Fingerprint() string {
	if !viewer.IsAuthenticated() {
		return "anonymous"
	}

	return viewer.UserId.String() + ":" + viewer.Username
}
