package models

import (
	"time"
)

type User struct {
	Username       string
	HashedPassword string
	Email          *string // nil if user didn't set email
	CreatedAt      time.Time
	Forename       *string
	Surname        *string
	Roles          []string
}
