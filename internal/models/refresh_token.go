package models

import "time"

// RefreshToken is a single-use credential: redeeming it deletes the row and
// issues a replacement. Rows are hard-deleted, never soft-deleted, so a
// consumed token can never be replayed.
type RefreshToken struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token's TTL has elapsed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
