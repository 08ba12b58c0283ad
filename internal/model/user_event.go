package model

import (
	"time"

	"github.com/google/uuid"
)

type UserEventType string

const (
	UserCreated UserEventType = "user.created"
	UserUpdated UserEventType = "user.updated"
	UserDeleted UserEventType = "user.deleted"
)

// UserEvent is published after a user row has been written.
// PreviousUsername is only set for updates that renamed the user.
type UserEvent struct {
	ID               string        `json:"id"`
	Type             UserEventType `json:"type"`
	UserID           uint          `json:"user_id"`
	Username         string        `json:"username"`
	PreviousUsername string        `json:"previous_username,omitempty"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

func NewUserEvent(eventType UserEventType, userID uint, username string) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
}

// Usernames lists every username whose cached lookup the event makes stale.
func (e UserEvent) Usernames() []string {
	names := []string{e.Username}
	if e.PreviousUsername != "" && e.PreviousUsername != e.Username {
		names = append(names, e.PreviousUsername)
	}
	return names
}
