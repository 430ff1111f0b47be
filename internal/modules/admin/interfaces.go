package admin

import (
	"context"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	SetTrainerStatus(ctx context.Context, userID int64, status domain.TrainerStatus) error
	SetBan(ctx context.Context, userID int64, banned bool, reason string) error
	List(ctx context.Context, f repository.UserFilters) ([]domain.User, int64, error)
	DB() *gorm.DB
}

type TrainerRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error)
	Update(ctx context.Context, profile *domain.TrainerProfile) error
	DB() *gorm.DB
}

type BookingRepository interface {
	DB() *gorm.DB
}

type SessionRepository interface {
	DB() *gorm.DB
}

type NotificationSender interface {
	NotifyVerificationApproved(ctx context.Context, trainerUserID int64) error
	NotifyVerificationRejected(ctx context.Context, trainerUserID int64, reason string) error
}
