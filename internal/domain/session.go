package domain

import "time"

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Session — отдельная тренировка внутри брони.
// ServiceName фиксируется на момент создания: прайс тренера может
// меняться, история броней — нет.
type Session struct {
	ID              int64   `json:"id"`
	BookingID       int64   `json:"booking_id" gorm:"index;not null"`
	TrainerID       int64   `json:"trainer_id" gorm:"index;not null"`
	ClientID        int64   `json:"client_id" gorm:"index;not null"`
	ServiceID       *int64  `json:"service_id,omitempty"`
	ServiceName     string  `json:"service_name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Notes           string  `json:"notes,omitempty"`

	StartTime time.Time     `json:"start_time"`
	Status    SessionStatus `json:"status"`

	StatusHistory StatusHistory `json:"status_history,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// EndTime вычисляется из StartTime и длительности, в БД не хранится.
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
