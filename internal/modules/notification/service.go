package notification

import (
	"context"
	"fmt"
	"log"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"
)

type Service struct {
	repo *repository.NotificationRepository
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

/* ---------- INBOX ---------- */

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	list, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

/* ---------- PRODUCERS ---------- */

// push пишет уведомление в инбокс. Ошибка логируется и отдаётся
// наверх, но продюсеры её игнорируют: упавшее уведомление не должно
// ронять операцию, которая его породила.
func (s *Service) push(ctx context.Context, userID int64, typ domain.NotificationType, title, message string, data map[string]any) error {
	n := &domain.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("notification: create %s for user %d: %v", typ, userID, err)
		return err
	}
	return nil
}

func (s *Service) NotifyBookingCreated(ctx context.Context, trainerUserID, bookingID int64, clientName string, totalPrice float64) error {
	return s.push(ctx, trainerUserID, domain.NotifBookingCreated,
		"Новая заявка на бронирование",
		fmt.Sprintf("%s отправил(а) заявку на сумму %.2f ₸", clientName, totalPrice),
		map[string]any{"booking_id": bookingID},
	)
}

func (s *Service) NotifyBookingStatusChanged(ctx context.Context, recipientUserID, bookingID int64, status domain.BookingStatus) error {
	var typ domain.NotificationType
	var title string
	switch status {
	case domain.BookingConfirmed:
		typ, title = domain.NotifBookingConfirmed, "Бронь подтверждена"
	case domain.BookingCompleted:
		typ, title = domain.NotifBookingCompleted, "Бронь выполнена"
	case domain.BookingCancelled:
		typ, title = domain.NotifBookingCancelled, "Бронь отменена"
	default:
		typ, title = domain.NotifBookingCreated, "Статус брони изменён"
	}
	return s.push(ctx, recipientUserID, typ, title,
		fmt.Sprintf("Бронь #%d переведена в статус «%s»", bookingID, status),
		map[string]any{"booking_id": bookingID, "status": string(status)},
	)
}

func (s *Service) NotifyBookingCancelled(ctx context.Context, recipientUserID, bookingID int64, reason string) error {
	msg := fmt.Sprintf("Бронь #%d отменена", bookingID)
	if reason != "" {
		msg = fmt.Sprintf("Бронь #%d отменена: %s", bookingID, reason)
	}
	return s.push(ctx, recipientUserID, domain.NotifBookingCancelled,
		"Бронь отменена", msg,
		map[string]any{"booking_id": bookingID, "reason": reason},
	)
}

func (s *Service) NotifySessionCancelled(ctx context.Context, recipientUserID, bookingID, sessionID int64) error {
	return s.push(ctx, recipientUserID, domain.NotifSessionCancelled,
		"Тренировка отменена",
		fmt.Sprintf("Тренировка #%d из брони #%d отменена", sessionID, bookingID),
		map[string]any{"booking_id": bookingID, "session_id": sessionID},
	)
}

func (s *Service) NotifyNewReview(ctx context.Context, trainerUserID, reviewID int64, rating int) error {
	return s.push(ctx, trainerUserID, domain.NotifNewReview,
		"Новый отзыв",
		fmt.Sprintf("Клиент оценил вас на %d из 5", rating),
		map[string]any{"review_id": reviewID, "rating": rating},
	)
}

func (s *Service) NotifyVerificationApproved(ctx context.Context, trainerUserID int64) error {
	return s.push(ctx, trainerUserID, domain.NotifVerificationApproved,
		"Анкета одобрена",
		"Ваша анкета тренера прошла проверку и видна в каталоге",
		nil,
	)
}

func (s *Service) NotifyVerificationRejected(ctx context.Context, trainerUserID int64, reason string) error {
	return s.push(ctx, trainerUserID, domain.NotifVerificationRejected,
		"Анкета отклонена",
		fmt.Sprintf("Анкета не прошла проверку: %s", reason),
		map[string]any{"reason": reason},
	)
}

func (s *Service) NotifyNewMessage(ctx context.Context, recipientUserID, conversationID int64, senderName, preview string) error {
	return s.push(ctx, recipientUserID, domain.NotifNewMessage,
		"Новое сообщение",
		fmt.Sprintf("%s: %s", senderName, preview),
		map[string]any{"conversation_id": conversationID},
	)
}
