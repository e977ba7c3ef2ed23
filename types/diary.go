package types

import "time"

// DiaryEntry is a dated journal entry owned by a single user.
type DiaryEntry struct {
	ID        int       `json:"id" db:"id"`
	Date      string    `json:"date" db:"date"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	UserID    int       `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
