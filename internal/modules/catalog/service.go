package catalog

import (
	"context"
	"errors"
	"strings"

	"fitmarket/internal/domain"
	"fitmarket/internal/pkg/utils"
	"fitmarket/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotVerified      = errors.New("trainer is not verified")
	ErrServiceNameTaken = errors.New("service name already taken")
)

type Service struct {
	trainerRepo *repository.TrainerRepository
	serviceRepo *repository.ServiceRepository
	userRepo    *repository.UserRepository
}

func NewService(
	trainerRepo *repository.TrainerRepository,
	serviceRepo *repository.ServiceRepository,
	userRepo *repository.UserRepository,
) *Service {
	return &Service{trainerRepo, serviceRepo, userRepo}
}

/* ---------- PUBLIC CATALOG ---------- */

// SearchTrainers возвращает страницу каталога: только verified
// и не удалённые анкеты, фильтры уже собраны хендлером.
func (s *Service) SearchTrainers(ctx context.Context, f repository.TrainerFilters) ([]domain.TrainerProfile, int64, error) {
	return s.trainerRepo.Search(ctx, f)
}

// GetTrainer возвращает публичную анкету по ID пользователя-тренера
// вместе с активными услугами. Скрытые анкеты (pending, rejected,
// blocked, забаненные) наружу не отдаём — для клиента их нет.
func (s *Service) GetTrainer(ctx context.Context, trainerUserID int64) (*domain.TrainerProfile, error) {
	profile, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}
	if user.TrainerStatus != domain.TrainerVerified || user.IsBanned {
		return nil, gorm.ErrRecordNotFound
	}

	services, err := s.serviceRepo.ListByTrainer(ctx, trainerUserID, true)
	if err != nil {
		return nil, err
	}
	profile.Services = services

	return profile, nil
}

// Specializations — уникальные специализации по видимым анкетам.
func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	return s.trainerRepo.AllSpecializations(ctx)
}

/* ---------- TRAINER SELF-SERVICE ---------- */

// UpdateMyProfile обновляет анкету текущего тренера. Частичное
// обновление: меняем только присланные поля.
func (s *Service) UpdateMyProfile(ctx context.Context, userID int64, req UpdateTrainerProfileRequest) (*domain.TrainerProfile, error) {
	profile, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.City != nil {
		profile.City = *req.City
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.Specializations != nil {
		profile.Specializations = utils.NormalizeSpecs(*req.Specializations)
	}
	if req.Certifications != nil {
		profile.Certifications = *req.Certifications
	}
	if req.PhotoURLs != nil {
		profile.PhotoURLs = *req.PhotoURLs
	}
	if req.ExperienceYears != nil {
		profile.ExperienceYears = *req.ExperienceYears
	}

	if err := s.trainerRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// CreateService добавляет позицию в прайс тренера.
// Доступно только верифицированным: pending/rejected тренер не должен
// появляться в каталоге с услугами.
func (s *Service) CreateService(ctx context.Context, user *domain.User, req CreateServiceRequest) (*domain.Service, error) {
	if user.Role != domain.RoleTrainer {
		return nil, ErrForbidden
	}
	if user.TrainerStatus != domain.TrainerVerified {
		return nil, ErrNotVerified
	}

	taken, err := s.serviceRepo.NameExists(ctx, user.ID, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrServiceNameTaken
	}

	svc := &domain.Service{
		TrainerID:       user.ID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		HourlyPrice:     req.HourlyPrice,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}

	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}

	return svc, nil
}

// UpdateService меняет позицию прайса. Владение уже проверено
// middleware-ом, но сервис перечитывает запись сам — метод не должен
// зависеть от того, из какого маршрута его позвали.
func (s *Service) UpdateService(ctx context.Context, userID, serviceID int64, req UpdateServiceRequest) (*domain.Service, error) {
	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.TrainerID != userID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		taken, err := s.serviceRepo.NameExists(ctx, userID, *req.Name, serviceID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrServiceNameTaken
		}
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.HourlyPrice != nil {
		svc.HourlyPrice = *req.HourlyPrice
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, err
	}

	return svc, nil
}

// DeactivateService мягко выключает услугу: прошлые сессии продолжают
// ссылаться на неё, но в каталоге и матчинге она больше не участвует.
func (s *Service) DeactivateService(ctx context.Context, userID, serviceID int64) error {
	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if svc.TrainerID != userID {
		return ErrForbidden
	}

	return s.serviceRepo.Deactivate(ctx, serviceID)
}
