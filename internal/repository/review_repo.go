package repository

import (
	"context"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var review domain.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsForUserAndTrainer — один клиент может оставить тренеру только
// один отзыв.
func (r *ReviewRepository) ExistsForUserAndTrainer(ctx context.Context, userID, trainerID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("user_id = ? AND trainer_id = ?", userID, trainerID).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ListByTrainer возвращает видимые отзывы тренера, новые сверху.
func (r *ReviewRepository) ListByTrainer(ctx context.Context, trainerID int64, limit, offset int) ([]domain.Review, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("trainer_id = ? AND is_hidden = ?", trainerID, false)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []domain.Review
	err := r.db.WithContext(ctx).
		Where("trainer_id = ? AND is_hidden = ?", trainerID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error

	return reviews, total, err
}

// Aggregate считает средний рейтинг и число видимых отзывов.
func (r *ReviewRepository) Aggregate(ctx context.Context, trainerID int64) (float64, int64, error) {
	type agg struct {
		Avg   float64
		Total int64
	}
	var a agg
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(1) AS total").
		Where("trainer_id = ? AND is_hidden = ?", trainerID, false).
		Scan(&a).Error
	if err != nil {
		return 0, 0, err
	}
	return a.Avg, a.Total, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}
