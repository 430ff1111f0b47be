package mailer

import (
	"context"
	"log"
)

// ConsoleMailer пишет письма в лог вместо отправки.
// Используется в dev-окружении и в тестах.
type ConsoleMailer struct {
	enabled bool
}

func NewConsoleMailer(enabled bool) *ConsoleMailer {
	return &ConsoleMailer{enabled: enabled}
}

func (m *ConsoleMailer) SendVerificationCode(_ context.Context, email, code string) error {
	if m.enabled {
		log.Printf("[DEV-EMAIL] verification code email=%s code=%s", email, code)
	}
	return nil
}

func (m *ConsoleMailer) SendBookingReceived(_ context.Context, email, name string, bookingID int64, totalPrice float64) error {
	if m.enabled {
		log.Printf("[DEV-EMAIL] booking received email=%s name=%s booking_id=%d total=%.2f", email, name, bookingID, totalPrice)
	}
	return nil
}

func (m *ConsoleMailer) SendBookingConfirmed(_ context.Context, email, name string, bookingID int64, totalPrice float64) error {
	if m.enabled {
		log.Printf("[DEV-EMAIL] booking confirmed email=%s name=%s booking_id=%d total=%.2f", email, name, bookingID, totalPrice)
	}
	return nil
}
