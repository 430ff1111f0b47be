package events

import "time"

// Типы событий в топике бронирований.
const (
	TypeBookingCreated        = "booking.created"
	TypeBookingStatusChanged  = "booking.status_changed"
	TypeBookingPaymentChanged = "booking.payment_changed"
	TypeBookingCancelled      = "booking.cancelled"
	TypeSessionStatusChanged  = "session.status_changed"
)

// Заголовки сообщений (общие для всех сервисов-потребителей).
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderSchemaVersion = "schema-version"
)

const SchemaVersion = "1"

// BookingEvent — envelope события брони.
// Key сообщения — booking_id, чтобы события одной брони
// попадали в одну партицию и сохраняли порядок.
type BookingEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`

	BookingID     int64   `json:"booking_id"`
	SessionID     *int64  `json:"session_id,omitempty"`
	ClientID      int64   `json:"client_id"`
	TrainerID     int64   `json:"trainer_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	TotalPrice    float64 `json:"total_price"`

	// Для status_changed: что именно поменялось
	Field string `json:"field,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`

	// Для cancelled
	Reason string `json:"reason,omitempty"`
}
