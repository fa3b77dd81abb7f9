package models

import (
	"time"

	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRefused  InvitationStatus = "REFUSED"
)

// Valid reports whether the status is one of the closed set.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRefused:
		return true
	}
	return false
}

// ProjectInvitation records a pending, accepted or refused invitation of a
// user into a project. At most one PENDING invitation may exist per
// (project, invited) pair; expired pending invitations are deleted lazily
// when they are next touched.
type ProjectInvitation struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	ProjectID uint64           `gorm:"not null;index" json:"project_id"`
	SenderID  uint64           `gorm:"not null" json:"sender_id"`
	InvitedID uint64           `gorm:"not null;index" json:"invited_id"`
	Status    InvitationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Sender  User    `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Invited User    `gorm:"foreignKey:InvitedID" json:"invited,omitempty"`
}

// Expired reports whether the invitation's TTL has elapsed.
func (i *ProjectInvitation) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
