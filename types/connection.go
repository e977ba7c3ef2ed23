package types

import "time"

// Connection links a user to another user they track synchronicities
// with. The (UserID, ConnectedUserID) pair is unique.
type Connection struct {
	ID              int       `json:"id" db:"id"`
	UserID          int       `json:"userId" db:"user_id"`
	ConnectedUserID int       `json:"connectedUserId" db:"connected_user_id"`
	SharedPatterns  string    `json:"sharedPatterns" db:"shared_patterns"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// ConnectionWithUser is a connection joined with the connected user's
// public profile, as returned by the list endpoint.
type ConnectionWithUser struct {
	Connection
	ConnectedUser PublicUser `json:"connectedUser"`
}
