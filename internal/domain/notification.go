package domain

import "time"

type NotificationType string

const (
	NotifBookingCreated       NotificationType = "booking_created"
	NotifBookingConfirmed     NotificationType = "booking_confirmed"
	NotifBookingCancelled     NotificationType = "booking_cancelled"
	NotifBookingCompleted     NotificationType = "booking_completed"
	NotifSessionCancelled     NotificationType = "session_cancelled"
	NotifVerificationApproved NotificationType = "verification_approved"
	NotifVerificationRejected NotificationType = "verification_rejected"
	NotifNewReview            NotificationType = "new_review"
	NotifNewMessage           NotificationType = "new_message"
)

type Notification struct {
	ID        int64            `json:"id" gorm:"primaryKey"`
	UserID    int64            `json:"user_id" gorm:"index;not null"`
	Type      NotificationType `json:"type" gorm:"size:50;index"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	Data      any              `json:"data,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
