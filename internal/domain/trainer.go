package domain

import "time"

// TrainerProfile хранит публичную анкету тренера (1:1 с users).
// Модерационные поля (VerifiedAt, RejectedReason) заполняет админ.
type TrainerProfile struct {
	ID              int64    `json:"id"`
	UserID          int64    `json:"user_id" gorm:"uniqueIndex;not null"`
	DisplayName     string   `json:"display_name"`
	Bio             string   `json:"bio,omitempty" gorm:"type:text"`
	City            string   `json:"city" gorm:"index"`
	Address         string   `json:"address,omitempty"`
	Specializations []string `json:"specializations,omitempty" gorm:"serializer:json"`
	Certifications  []string `json:"certifications,omitempty" gorm:"serializer:json"`
	PhotoURLs       []string `json:"photo_urls,omitempty" gorm:"serializer:json"`
	ExperienceYears int      `json:"experience_years"`

	// Агрегаты по отзывам, пересчитываются в review module
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`

	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	VerifiedBy     *int64     `json:"-"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	AdminNotes     string     `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`

	// Virtual fields для ответов каталога
	User     *User     `json:"user,omitempty" gorm:"-"`
	Services []Service `json:"services,omitempty" gorm:"-"`
}

func (TrainerProfile) TableName() string {
	return "trainer_profiles"
}
