package booking

import (
	"context"
	"time"

	"fitmarket/internal/domain"
)

// BookingStore defines the persistence interface for bookings
type BookingStore interface {
	CreateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, int64, error)
	ListByTrainer(ctx context.Context, trainerID int64, status string, limit, offset int) ([]domain.Booking, int64, error)
	Update(ctx context.Context, b *domain.Booking) error
	UpdateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error
}

// SessionStore defines the persistence interface for sessions
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Session, error)
	ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]domain.Session, error)
	ListActiveByTrainerBetween(ctx context.Context, trainerID int64, from, to time.Time) ([]domain.Session, error)
	ListByTrainerOnDate(ctx context.Context, trainerID int64, day time.Time) ([]domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	CountOpenByBooking(ctx context.Context, bookingID, excludeID int64) (int64, error)
}

// TrainerDirectory отвечает на вопрос «есть ли у тренера анкета»
// и отдаёт публичные имена для списков.
type TrainerDirectory interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error)
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*domain.TrainerProfile, error)
}

// ServiceCatalog — прайс тренера для матчинга услуг.
type ServiceCatalog interface {
	ListByTrainer(ctx context.Context, trainerID int64, activeOnly bool) ([]domain.Service, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
}

// NotificationSender — in-app уведомления. Вызовы best-effort:
// отказ уведомлений не валит операцию.
type NotificationSender interface {
	NotifyBookingCreated(ctx context.Context, trainerUserID, bookingID int64, clientName string, totalPrice float64) error
	NotifyBookingStatusChanged(ctx context.Context, recipientUserID, bookingID int64, status domain.BookingStatus) error
	NotifyBookingCancelled(ctx context.Context, recipientUserID, bookingID int64, reason string) error
	NotifySessionCancelled(ctx context.Context, recipientUserID, bookingID, sessionID int64) error
}

// EventPublisher — Kafka-стрим жизненного цикла броней.
// Реализация сама логирует ошибки и ничего не возвращает.
type EventPublisher interface {
	BookingCreated(ctx context.Context, b *domain.Booking)
	BookingStatusChanged(ctx context.Context, b *domain.Booking, from, to string)
	BookingPaymentChanged(ctx context.Context, b *domain.Booking, from, to string)
	BookingCancelled(ctx context.Context, b *domain.Booking, reason string)
	SessionStatusChanged(ctx context.Context, b *domain.Booking, sessionID int64, from, to string)
}

// MailSender — транзакционные письма клиенту.
type MailSender interface {
	SendBookingReceived(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error
	SendBookingConfirmed(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error
}
