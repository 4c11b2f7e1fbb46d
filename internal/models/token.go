package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Authenticated caller
// Token is the very token the request was authenticated with, so it may be revoked later in the same request
type Principal struct {
	Subject   string
	Roles     []string
	Token     string
	ExpiresAt time.Time
}
