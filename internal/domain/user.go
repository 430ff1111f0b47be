package domain

import "time"

type UserRole string

const (
	RoleClient  UserRole = "client"
	RoleTrainer UserRole = "trainer"
	RoleAdmin   UserRole = "admin"
)

type TrainerStatus string

const (
	TrainerPending  TrainerStatus = "pending"
	TrainerVerified TrainerStatus = "verified"
	TrainerRejected TrainerStatus = "rejected"
	TrainerBlocked  TrainerStatus = "blocked"
)

type User struct {
	ID              int64         `json:"id"`
	Email           string        `json:"email" validate:"required,email"`
	PasswordHash    string        `json:"-"`
	Role            UserRole      `json:"role"`
	Name            string        `json:"name"`
	Phone           string        `json:"phone,omitempty"`
	AvatarURL       string        `json:"avatar_url,omitempty"`
	EmailVerified   bool          `json:"email_verified"`
	EmailVerifiedAt *time.Time    `json:"-"`
	TrainerStatus   TrainerStatus `json:"trainer_status,omitempty"`

	// Блокировка аккаунта (выставляется админом)
	IsBanned  bool       `json:"is_banned,omitempty"`
	BannedAt  *time.Time `json:"-"`
	BanReason string     `json:"-"`

	// Защита от перебора пароля: после N неудачных попыток логин
	// временно блокируется до LockedUntil.
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLocked reports whether login is temporarily disabled for the user.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
