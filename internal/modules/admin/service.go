package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrNotPending     = errors.New("trainer application is not pending")
	ErrReasonRequired = errors.New("reason is required")
	ErrCannotBanAdmin = errors.New("cannot ban an administrator")
)

type Service struct {
	userRepo    UserRepository
	trainerRepo TrainerRepository
	bookingRepo BookingRepository
	sessionRepo SessionRepository
	notifs      NotificationSender
}

func NewService(
	userRepo UserRepository,
	trainerRepo TrainerRepository,
	bookingRepo BookingRepository,
	sessionRepo SessionRepository,
	notifs NotificationSender,
) *Service {
	return &Service{
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		notifs:      notifs,
	}
}

// -------------------- Trainer moderation --------------------

// GetPendingTrainers возвращает заявки тренеров со статусом "pending".
func (s *Service) GetPendingTrainers(ctx context.Context, page, limit int) ([]domain.PendingTrainerRow, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	// pending = users.trainer_status = 'pending', анкета не удалена
	var total int64
	if err := s.trainerRepo.DB().WithContext(ctx).
		Table("trainer_profiles").
		Joins("JOIN users u ON u.id = trainer_profiles.user_id").
		Where("u.trainer_status = ? AND trainer_profiles.deleted_at IS NULL", domain.TrainerPending).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.PendingTrainerRow
	if err := s.trainerRepo.DB().WithContext(ctx).
		Table("trainer_profiles").
		Select("trainer_profiles.id AS profile_id, trainer_profiles.user_id, u.name, u.email, "+
			"trainer_profiles.display_name, trainer_profiles.city, trainer_profiles.experience_years, "+
			"trainer_profiles.created_at AS submitted_at").
		Joins("JOIN users u ON u.id = trainer_profiles.user_id").
		Where("u.trainer_status = ? AND trainer_profiles.deleted_at IS NULL", domain.TrainerPending).
		Order("trainer_profiles.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, int(total), nil
}

// VerifyTrainer одобряет заявку: trainer_status = verified, анкета попадает в каталог.
func (s *Service) VerifyTrainer(ctx context.Context, trainerUserID, adminID int64, notes string) (*domain.TrainerProfile, error) {
	u, err := s.userRepo.GetByID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}
	if u.TrainerStatus != domain.TrainerPending {
		return nil, ErrNotPending
	}

	profile, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetTrainerStatus(ctx, trainerUserID, domain.TrainerVerified); err != nil {
		return nil, err
	}

	now := time.Now()
	profile.VerifiedAt = &now
	profile.VerifiedBy = &adminID
	profile.AdminNotes = notes
	profile.RejectedReason = ""
	if err := s.trainerRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyVerificationApproved(ctx, trainerUserID)
	}

	return profile, nil
}

// RejectTrainer отклоняет заявку с причиной. Тренер может исправить анкету
// и податься снова.
func (s *Service) RejectTrainer(ctx context.Context, trainerUserID, adminID int64, reason string) (*domain.TrainerProfile, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	u, err := s.userRepo.GetByID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}
	if u.TrainerStatus != domain.TrainerPending {
		return nil, ErrNotPending
	}

	profile, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetTrainerStatus(ctx, trainerUserID, domain.TrainerRejected); err != nil {
		return nil, err
	}

	profile.RejectedReason = reason
	profile.VerifiedAt = nil
	profile.VerifiedBy = &adminID
	if err := s.trainerRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyVerificationRejected(ctx, trainerUserID, reason)
	}

	return profile, nil
}

// -------------------- Users moderation --------------------

func (s *Service) BlockUser(ctx context.Context, userID int64, reason string) (*domain.User, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return nil, ErrCannotBanAdmin
	}

	if err := s.userRepo.SetBan(ctx, userID, true, reason); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *Service) UnblockUser(ctx context.Context, userID int64) (*domain.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetBan(ctx, userID, false, ""); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers supports simple filters + pagination
func (s *Service) ListUsers(ctx context.Context, filter UserListFilter, page, limit int) ([]domain.User, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := s.userRepo.List(ctx, repository.UserFilters{
		Role:   strings.TrimSpace(filter.Role),
		Banned: filter.Banned,
		Query:  filter.Query,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, 0, err
	}

	return users, int(total), nil
}

// -------------------- Statistics --------------------

func (s *Service) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	var totalUsers int64
	if err := s.userRepo.DB().WithContext(ctx).Table("users").Count(&totalUsers).Error; err != nil {
		return nil, err
	}

	var totalTrainers int64
	if err := s.trainerRepo.DB().WithContext(ctx).Table("trainer_profiles").Where("deleted_at IS NULL").Count(&totalTrainers).Error; err != nil {
		return nil, err
	}

	var totalBookings int64
	if err := s.bookingRepo.DB().WithContext(ctx).Table("bookings").Count(&totalBookings).Error; err != nil {
		return nil, err
	}

	var totalSessions int64
	if err := s.sessionRepo.DB().WithContext(ctx).Table("sessions").Count(&totalSessions).Error; err != nil {
		return nil, err
	}

	var pendingTrainers int64
	if err := s.trainerRepo.DB().WithContext(ctx).
		Table("trainer_profiles").
		Joins("JOIN users u ON u.id = trainer_profiles.user_id").
		Where("u.trainer_status = ? AND trainer_profiles.deleted_at IS NULL", domain.TrainerPending).
		Count(&pendingTrainers).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var todayBookings int64
	if err := s.bookingRepo.DB().WithContext(ctx).
		Table("bookings").
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&todayBookings).Error; err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var completedSessions int64
	if err := s.sessionRepo.DB().WithContext(ctx).
		Table("sessions").
		Where("status = ? AND start_time >= ? AND start_time < ?", domain.SessionCompleted, monthStart, monthEnd).
		Count(&completedSessions).Error; err != nil {
		return nil, err
	}

	// Доход — сумма оплаченных броней за всё время.
	var revenue float64
	if err := s.bookingRepo.DB().WithContext(ctx).
		Table("bookings").
		Where("payment_status = ?", domain.PaymentPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}

	return &StatisticsResponse{
		TotalUsers:                 int(totalUsers),
		TotalTrainers:              int(totalTrainers),
		TotalBookings:              int(totalBookings),
		TotalSessions:              int(totalSessions),
		PendingTrainers:            int(pendingTrainers),
		TodayBookings:              int(todayBookings),
		CompletedSessionsThisMonth: int(completedSessions),
		TotalRevenue:               revenue,
	}, nil
}

// helper for gorm not found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
