package domain

import "time"

// VerificationCode — одноразовый код подтверждения email.
// Хранится только SHA-256 хеш кода (с pepper), не сам код.
type VerificationCode struct {
	ID          int64      `json:"-" gorm:"primaryKey"`
	UserID      int64      `json:"-" gorm:"uniqueIndex;not null"`
	CodeHash    string     `json:"-" gorm:"size:64;not null"`
	Attempts    int        `json:"-"`
	ResendCount int        `json:"-"`
	LastSentAt  time.Time  `json:"-"`
	ExpiresAt   time.Time  `json:"-" gorm:"index"`
	UsedAt      *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"-"`
}

func (VerificationCode) TableName() string {
	return "email_verification_codes"
}
