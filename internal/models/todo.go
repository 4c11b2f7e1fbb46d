package models

import (
	"time"

	"github.com/google/uuid"
)

// Todo as stored and as received from clients
// Pointer fields are nil when a client left them out; stored todos always have them set
type Todo struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	ScheduledAt *time.Time
	Completed   *bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	User        User
}

// Page of todos and the total count of todos the owner has
type TodoPage struct {
	Todos []Todo
	Total int64
}
