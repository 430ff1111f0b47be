package domain

import "time"

// Review — отзыв клиента о тренере. Пара (user_id, trainer_id)
// уникальна: второй отзыв тому же тренеру ловится констрейнтом БД.
type Review struct {
	ID              int64      `json:"id"`
	TrainerID       int64      `json:"trainer_id" gorm:"not null;uniqueIndex:uq_review_user_trainer"`
	UserID          int64      `json:"user_id" gorm:"not null;uniqueIndex:uq_review_user_trainer"`
	BookingID       *int64     `json:"booking_id,omitempty"`
	Rating          int        `json:"rating" gorm:"not null"`
	Comment         string     `json:"comment,omitempty" gorm:"type:text"`
	TrainerResponse *string    `json:"trainer_response,omitempty"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	IsHidden        bool       `json:"is_hidden" gorm:"default:false"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Virtual: автор отзыва для выдачи в каталоге
	User *User `json:"user,omitempty" gorm:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
