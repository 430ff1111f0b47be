package domain

import "time"

// PendingTrainerRow Row DTO для запросов с join trainer_profiles + users (без циклов с admin package)
type PendingTrainerRow struct {
	ProfileID       int64     `json:"profile_id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	City            string    `json:"city"`
	ExperienceYears int       `json:"experience_years"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
