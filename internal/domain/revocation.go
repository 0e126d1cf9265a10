package domain

import "time"

// RevocationReason is a closed set; the store rejects anything else.
type RevocationReason string

const (
	ReasonLogout         RevocationReason = "logout"
	ReasonRotation       RevocationReason = "rotation"
	ReasonRevocation     RevocationReason = "revocation"
	ReasonPasswordChange RevocationReason = "password_change"
)

func (r RevocationReason) Valid() bool {
	switch r {
	case ReasonLogout, ReasonRotation, ReasonRevocation, ReasonPasswordChange:
		return true
	}
	return false
}

// RevocationEntry records a token identifier that must no longer be honored.
//
// The jti is the natural key: a token can be revoked at most once, ever.
// Rows are append-only; the only deletes come from the expiry sweep once the
// underlying token is past its own exp claim.
type RevocationEntry struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"not null;index:idx_revocations_user_revoked,priority:1"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	JTI string `json:"jti" gorm:"column:jti;size:255;uniqueIndex;not null"`

	RevokedAt time.Time `json:"revoked_at" gorm:"autoCreateTime;index:idx_revocations_user_revoked,priority:2"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`

	Reason RevocationReason `json:"reason" gorm:"size:50;not null;default:logout"`
}

func (RevocationEntry) TableName() string { return "revocation_entries" }
