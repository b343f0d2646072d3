package model

import "time"

// Reasons a refresh token row was revoked. Only rows revoked by a rotation
// count as reuse when presented again.
const (
	RevokedRotated  = "rotated"
	RevokedReplaced = "replaced"
	RevokedLogout   = "logout"
	RevokedReuse    = "reuse"
)

// RefreshToken is the database side of a refresh credential. The signed token
// handed to the client only carries ID as its rid claim.
//
// The partial unique index allows any number of revoked rows per user but at
// most one live one.
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:16;not null;index;uniqueIndex:idx_refresh_tokens_live_user,where:revoked_at IS NULL"`
	CreatedAt time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time `gorm:"index"`
	// One of the Revoked* constants, empty while the row is live
	RevokedReason string `gorm:"size:16"`
	IP        string     `gorm:"size:64"`
	UserAgent string     `gorm:"size:512"`
}

// Live reports whether the row can still be used for a refresh at t.
func (r *RefreshToken) Live(t time.Time) bool {
	return r.RevokedAt == nil && t.Before(r.ExpiresAt)
}
