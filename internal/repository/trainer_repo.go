package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type TrainerFilters struct {
	City           string
	Specialization string
	MinPrice       float64
	MaxPrice       float64
	MinRating      float64
	Query          string
	Limit          int
	Offset         int
}

type TrainerRepository struct {
	db *gorm.DB
}

func NewTrainerRepository(db *gorm.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// DB отдаёт raw-handle для сводных запросов админки
func (r *TrainerRepository) DB() *gorm.DB {
	return r.db
}

// Search возвращает анкеты верифицированных тренеров с фильтрами.
// Видны только verified и не забаненные.
func (r *TrainerRepository) Search(
	ctx context.Context,
	f TrainerFilters,
) ([]domain.TrainerProfile, int64, error) {

	var profiles []domain.TrainerProfile
	var total int64

	q := r.db.WithContext(ctx).
		Model(&domain.TrainerProfile{}).
		Joins("JOIN users ON users.id = trainer_profiles.user_id").
		Where("trainer_profiles.deleted_at IS NULL").
		Where("users.trainer_status = ?", string(domain.TrainerVerified)).
		Where("users.is_banned = ?", false)

	if f.City != "" {
		q = q.Where("LOWER(trainer_profiles.city) = ?", strings.ToLower(strings.TrimSpace(f.City)))
	}

	if f.Specialization != "" {
		// Специализации лежат JSON-массивом в text-колонке,
		// ищем по вхождению строки в кавычках
		spec := strings.ToLower(strings.TrimSpace(f.Specialization))
		q = q.Where("trainer_profiles.specializations LIKE ?", `%"`+spec+`"%`)
	}

	if f.MinRating > 0 {
		q = q.Where("trainer_profiles.rating >= ?", f.MinRating)
	}

	if f.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Where("LOWER(trainer_profiles.display_name) LIKE ? OR LOWER(trainer_profiles.bio) LIKE ?", like, like)
	}

	if f.MinPrice > 0 || f.MaxPrice > 0 {
		q = q.Joins("JOIN services ON services.trainer_id = trainer_profiles.user_id AND services.is_active = ?", true)
		if f.MinPrice > 0 {
			q = q.Where("services.hourly_price >= ?", f.MinPrice)
		}
		if f.MaxPrice > 0 {
			q = q.Where("services.hourly_price <= ?", f.MaxPrice)
		}
		q = q.Distinct("trainer_profiles.*")
	}

	countQ := q.Session(&gorm.Session{}).Distinct("trainer_profiles.id")
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Order("trainer_profiles.rating DESC, trainer_profiles.total_reviews DESC, trainer_profiles.id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&profiles).Error

	return profiles, total, err
}

// GetByUserID возвращает анкету по ID пользователя-тренера.
func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByUserIDs — пачка анкет по ID пользователей, включая удалённые:
// в списках броней имя тренера нужно и после ухода анкеты из каталога.
func (r *TrainerRepository) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*domain.TrainerProfile, error) {
	out := make(map[int64]*domain.TrainerProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var profiles []domain.TrainerProfile
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].UserID] = &profiles[i]
	}
	return out, nil
}

func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *TrainerRepository) Create(ctx context.Context, profile *domain.TrainerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *TrainerRepository) Update(ctx context.Context, profile *domain.TrainerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// UpdateRatingAggregate пересчитанные агрегаты по отзывам.
func (r *TrainerRepository) UpdateRatingAggregate(ctx context.Context, trainerUserID int64, rating float64, totalReviews int) error {
	return r.db.WithContext(ctx).
		Model(&domain.TrainerProfile{}).
		Where("user_id = ?", trainerUserID).
		Updates(map[string]any{
			"rating":        rating,
			"total_reviews": totalReviews,
			"updated_at":    time.Now(),
		}).Error
}

// SoftDelete скрывает анкету из каталога, не трогая историю броней.
func (r *TrainerRepository) SoftDelete(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.TrainerProfile{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Update("deleted_at", time.Now()).Error
}

// AllSpecializations собирает уникальные специализации из видимых анкет.
// JSON-колонку разбираем на стороне приложения: переносимо между
// sqlite и postgres.
func (r *TrainerRepository) AllSpecializations(ctx context.Context) ([]string, error) {
	var profiles []domain.TrainerProfile
	err := r.db.WithContext(ctx).
		Model(&domain.TrainerProfile{}).
		Select("trainer_profiles.id", "trainer_profiles.specializations").
		Joins("JOIN users ON users.id = trainer_profiles.user_id").
		Where("trainer_profiles.deleted_at IS NULL").
		Where("users.trainer_status = ?", string(domain.TrainerVerified)).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range profiles {
		for _, s := range p.Specializations {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
