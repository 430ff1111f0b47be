package domain

import "time"

// RefreshToken stores refresh tokens for users.
//
// Security notes:
// - We never store the raw token in DB, only its SHA-256 hash (TokenHash).
// - On refresh we rotate tokens: old token is marked used and replaced by a
//   new one within the same family (FamilyID).
// - If a used token shows up again, the whole family is revoked
//   (reuse detection).
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	// JTI — уникальный идентификатор токена (uuid), попадает в claims.
	JTI string `json:"-" gorm:"size:36;index"`

	// FamilyID объединяет цепочку ротаций одного логина.
	FamilyID    string `json:"-" gorm:"size:36;index"`
	RotatedFrom *int64 `json:"-"`

	UserAgent *string `json:"-"`
	IP        *string `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	UsedAt    *time.Time `json:"-"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`

	ReuseDetectedAt *time.Time `json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
