package constants

// ContextKeyUserID is the gin context key holding the authenticated user ID.
const ContextKeyUserID = "user_id"

// ContextKeyProject and ContextKeyMembership are set by the project access
// middleware for downstream handlers.
const (
	ContextKeyProject    = "project"
	ContextKeyMembership = "project_member"
)

// Password and pagination limits.
const (
	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Title/description validation bounds, matching the API contract.
const (
	MinTitleLength       = 3
	MaxTitleLength       = 255
	MaxDescriptionLength = 2048
)

// InvitationTTLDays is how long a pending invitation stays redeemable.
const InvitationTTLDays = 7
