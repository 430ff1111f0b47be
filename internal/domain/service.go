package domain

import "time"

// Service — позиция прайс-листа тренера.
// HourlyPrice задаётся за час; стоимость сессии считается как
// (HourlyPrice / 60) * DurationMinutes.
type Service struct {
	ID              int64   `json:"id"`
	TrainerID       int64   `json:"trainer_id" gorm:"index;not null"`
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description,omitempty" gorm:"type:text"`
	HourlyPrice     float64 `json:"hourly_price"`
	DurationMinutes int     `json:"duration_minutes"`
	IsActive        bool    `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

// PriceFor возвращает стоимость сессии длительностью minutes минут.
func (s *Service) PriceFor(minutes int) float64 {
	return s.HourlyPrice / 60 * float64(minutes)
}
