// AngelaMos | 2026
// entity.go

package message

import (
	"time"
)

// Message is an anonymous note left in a user's inbox. Seq breaks ties
// between messages created in the same instant.
type Message struct {
	ID        string    `db:"id"`
	Seq       int64     `db:"seq"`
	UserID    string    `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
