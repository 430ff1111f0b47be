package auth

type RegisterClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterTrainerRequest struct {
	Name            string   `json:"name" binding:"required,min=2"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone"`
	Password        string   `json:"password" binding:"required,min=8"`
	DisplayName     string   `json:"display_name"`
	City            string   `json:"city" binding:"required"`
	Bio             string   `json:"bio"`
	Specializations []string `json:"specializations"`
	ExperienceYears int      `json:"experience_years" binding:"omitempty,min=0,max=60"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — токен может прийти в body (мобильные клиенты)
// или в HttpOnly cookie (web), поэтому поле не required.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2"`
	Phone string `json:"phone,omitempty"`
}

type UserPublic struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =========================
// PROFILE RESPONSE DTOs
// =========================

// UserStats содержит статистику бронирований пользователя
type UserStats struct {
	TotalBookings     int `json:"total_bookings"`
	UpcomingBookings  int `json:"upcoming_bookings"`
	CompletedBookings int `json:"completed_bookings"`
	CancelledBookings int `json:"cancelled_bookings"`
}

// RecentBooking — краткая информация о бронировании для профиля
type RecentBooking struct {
	ID          int64  `json:"id"`
	TrainerName string `json:"trainer_name"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// UserProfileResponse расширенный ответ для профиля
type UserProfileResponse struct {
	ID             int64           `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Role           string          `json:"role"`
	AvatarURL      string          `json:"avatar_url,omitempty"`
	TrainerStatus  string          `json:"trainer_status,omitempty"`
	CreatedAt      string          `json:"created_at"`
	Stats          *UserStats      `json:"stats,omitempty"`
	RecentBookings []RecentBooking `json:"recent_bookings,omitempty"`
}

type VerifyRequestDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyConfirmDTO struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}
