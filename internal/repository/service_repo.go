package repository

import (
	"context"
	"strings"
	"time"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	var s domain.Service
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByTrainer возвращает прайс тренера.
// activeOnly=true — только активные позиции, порядок по id:
// первая добавленная услуга считается основной (fallback при матчинге).
func (r *ServiceRepository) ListByTrainer(ctx context.Context, trainerID int64, activeOnly bool) ([]domain.Service, error) {
	q := r.db.WithContext(ctx).Where("trainer_id = ?", trainerID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var services []domain.Service
	err := q.Order("id ASC").Find(&services).Error
	return services, err
}

func (r *ServiceRepository) Update(ctx context.Context, s *domain.Service) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Deactivate выключает услугу, не удаляя её: история броней хранит
// service_id и должна оставаться валидной.
func (r *ServiceRepository) Deactivate(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Service{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

// NameExists проверяет уникальность названия услуги у тренера
// (без учёта регистра, среди активных).
func (r *ServiceRepository) NameExists(ctx context.Context, trainerID int64, name string, excludeID int64) (bool, error) {
	var cnt int64
	q := r.db.WithContext(ctx).
		Model(&domain.Service{}).
		Where("trainer_id = ? AND is_active = ?", trainerID, true).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID > 0 {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
