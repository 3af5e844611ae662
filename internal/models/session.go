package models

import "time"

// Session is one issued token in a user's valid-session set. A token
// authenticates only while its row exists; deleting the row revokes it
// regardless of the embedded expiry.
type Session struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
