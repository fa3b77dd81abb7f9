package models

import (
	"time"

	"gorm.io/gorm"
)

// RoleUser is implicitly held by every account.
const RoleUser = "USER"

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Avatar       *string        `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Roles        []string       `gorm:"serializer:json" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []ProjectMember     `gorm:"foreignKey:UserID" json:"-"`
	Invitations []ProjectInvitation `gorm:"foreignKey:InvitedID" json:"-"`
}

// RoleList returns the user's roles, guaranteeing RoleUser is present.
func (u *User) RoleList() []string {
	for _, r := range u.Roles {
		if r == RoleUser {
			return u.Roles
		}
	}
	return append([]string{RoleUser}, u.Roles...)
}
