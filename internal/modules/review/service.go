package review

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type BookingGate interface {
	HasCompletedBookingWithTrainer(ctx context.Context, clientID, trainerID int64) (bool, error)
}

type TrainerGate interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error)
	UpdateRatingAggregate(ctx context.Context, trainerUserID int64, rating float64, totalReviews int) error
}

type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
}

type NotificationSender interface {
	NotifyNewReview(ctx context.Context, trainerUserID, reviewID int64, rating int) error
}

type Service struct {
	reviews  *repository.ReviewRepository
	bookings BookingGate
	trainers TrainerGate
	users    UserDirectory
	notifs   NotificationSender
}

func NewService(reviews *repository.ReviewRepository, bookings BookingGate, trainers TrainerGate, users UserDirectory, notifs NotificationSender) *Service {
	return &Service{reviews: reviews, bookings: bookings, trainers: trainers, users: users, notifs: notifs}
}

// Create сохраняет отзыв клиента. Право на отзыв даёт хотя бы одна
// завершённая бронь у тренера; повторный отзыв той же паре ловится
// уникальным констрейнтом.
func (s *Service) Create(ctx context.Context, userID int64, req CreateReviewRequest) (*domain.Review, error) {
	if userID <= 0 || req.TrainerID <= 0 || req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRequest
	}

	if _, err := s.trainers.GetByUserID(ctx, req.TrainerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ok, err := s.bookings.HasCompletedBookingWithTrainer(ctx, userID, req.TrainerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReviewNotAllowed
	}

	rv := &domain.Review{
		TrainerID: req.TrainerID,
		UserID:    userID,
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	if err := s.reviews.Create(ctx, rv); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.refreshAggregate(ctx, req.TrainerID)

	if s.notifs != nil {
		_ = s.notifs.NotifyNewReview(ctx, req.TrainerID, rv.ID, rv.Rating)
	}

	return rv, nil
}

// refreshAggregate пересчитывает rating/total_reviews анкеты тренера.
// Ошибка не роняет запрос: агрегат производный и пересчитается со
// следующим отзывом.
func (s *Service) refreshAggregate(ctx context.Context, trainerID int64) {
	avg, total, err := s.reviews.Aggregate(ctx, trainerID)
	if err == nil {
		err = s.trainers.UpdateRatingAggregate(ctx, trainerID, math.Round(avg*100)/100, int(total))
	}
	if err != nil {
		log.Printf("review: refresh aggregate for trainer %d: %v", trainerID, err)
	}
}

// GetByTrainer — публичная лента отзывов тренера с авторами.
func (s *Service) GetByTrainer(ctx context.Context, trainerID int64, limit, offset int) ([]domain.Review, int64, error) {
	if trainerID <= 0 {
		return nil, 0, ErrInvalidRequest
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.reviews.ListByTrainer(ctx, trainerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(items))
	for _, rv := range items {
		ids = append(ids, rv.UserID)
	}
	if len(ids) > 0 && s.users != nil {
		if people, err := s.users.GetByIDs(ctx, ids); err == nil {
			for i := range items {
				if u, ok := people[items[i].UserID]; ok {
					// Наружу уходит только публичная часть автора
					items[i].User = &domain.User{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
				}
			}
		}
	}

	return items, total, nil
}

// Respond добавляет ответ тренера на отзыв о нём. Повторный вызов
// перезаписывает текст и responded_at: ответ один, не ветка.
func (s *Service) Respond(ctx context.Context, reviewID, userID int64, text string) (*domain.Review, error) {
	text = strings.TrimSpace(text)
	if reviewID <= 0 || userID <= 0 || text == "" {
		return nil, ErrInvalidRequest
	}

	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if rv.TrainerID != userID {
		return nil, ErrForbidden
	}

	now := time.Now()
	rv.TrainerResponse = &text
	rv.RespondedAt = &now

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// isUniqueViolation ловит нарушение уникальной пары (user, trainer):
// Postgres отдаёт SQLSTATE 23505, sqlite — "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
