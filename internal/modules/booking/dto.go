package booking

import "time"

// SessionItemRequest — одна строка заявки: какую услугу, когда и
// сколько минут. duration_minutes опционален — без него берётся
// длительность подобранной услуги.
type SessionItemRequest struct {
	ServiceName     string    `json:"service_name" binding:"required"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=15,max=480"`
	Notes           string    `json:"notes"`
}

type CreateBookingRequest struct {
	TrainerID int64                `json:"trainer_id" binding:"required"`
	Notes     string               `json:"notes"`
	Sessions  []SessionItemRequest `json:"sessions" binding:"required,min=1,max=20,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingSummary — строка списков «мои брони» / «брони тренера».
type BookingSummary struct {
	ID            int64            `json:"id"`
	ClientID      int64            `json:"client_id"`
	ClientName    string           `json:"client_name,omitempty"`
	TrainerID     int64            `json:"trainer_id"`
	TrainerName   string           `json:"trainer_name,omitempty"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"payment_status"`
	TotalPrice    float64          `json:"total_price"`
	CreatedAt     time.Time        `json:"created_at"`
	Sessions      []SessionSummary `json:"sessions"`
}

type SessionSummary struct {
	ID              int64     `json:"id"`
	ServiceName     string    `json:"service_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

// BusySlot — публичная занятость тренера, без данных клиента.
type BusySlot struct {
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}
