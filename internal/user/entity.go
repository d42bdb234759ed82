// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                  string    `db:"id"`
	Username            string    `db:"username"`
	Email               string    `db:"email"`
	PasswordHash        string    `db:"password_hash"`
	IsVerified          bool      `db:"is_verified"`
	IsAcceptingMessages bool      `db:"is_accepting_messages"`
	TokenVersion        int       `db:"token_version"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// Stats is an aggregate over the users table for operator dashboards.
type Stats struct {
	Total     int64 `db:"total"`
	Verified  int64 `db:"verified"`
	Accepting int64 `db:"accepting"`
}

// PendingCode is an outstanding sign-up verification code.
type PendingCode struct {
	Code     string
	Attempts int
}
