package auth

import (
	"context"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"gorm.io/gorm"
)

// UserRepositoryInterface — only the methods auth service uses
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *domain.User) error
	DB() *gorm.DB // прямой handle нужен для транзакций регистрации и ротации
}

// BookingStatsReader — интерфейс который реализует bookingRepo
type BookingStatsReader interface {
	GetStatsByUserID(ctx context.Context, userID int64) (*repository.BookingStats, error)
	GetRecentByUserID(ctx context.Context, userID int64, limit int) ([]repository.RecentBookingRow, error)
}
