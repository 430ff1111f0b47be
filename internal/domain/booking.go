package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// IsValid проверяет только принадлежность enum'у: переходы между
// статусами не ограничиваются, любой валидный статус принимается.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Поля, по которым ведётся история статусов.
const (
	StatusFieldStatus  = "status"
	StatusFieldPayment = "payment_status"
)

// StatusChange — одна запись аудита смены статуса.
// История append-only: записи никогда не изменяются и не удаляются.
type StatusChange struct {
	Field         string    `json:"field"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedBy     int64     `json:"changed_by"`
	ChangedByRole UserRole  `json:"changed_by_role"`
	Note          string    `json:"note,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}

type StatusHistory []StatusChange

// Append возвращает историю с добавленной записью.
func (h StatusHistory) Append(c StatusChange) StatusHistory {
	return append(h, c)
}

type Booking struct {
	ID            int64         `json:"id"`
	ClientID      int64         `json:"client_id" validate:"required"`
	TrainerID     int64         `json:"trainer_id" validate:"required"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalPrice    float64       `json:"total_price"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`

	// Причина отмены (заполняется при cancel, обязательна)
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	StatusHistory StatusHistory `json:"status_history,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Связи
	Client   *User     `json:"client,omitempty" gorm:"-"`
	Trainer  *User     `json:"trainer,omitempty" gorm:"-"`
	Sessions []Session `json:"sessions,omitempty" gorm:"-"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsTerminal — отменённую или завершённую бронь нельзя отменить повторно.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingCompleted
}
