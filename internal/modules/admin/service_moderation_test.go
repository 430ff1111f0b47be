package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"gorm.io/gorm"
)

type stubUserRepo struct {
	user      *domain.User
	getErr    error
	statusSet domain.TrainerStatus
	banCalled bool
	banValue  bool
	banReason string
}

func (m *stubUserRepo) DB() *gorm.DB { return nil }

func (m *stubUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *stubUserRepo) SetTrainerStatus(ctx context.Context, userID int64, status domain.TrainerStatus) error {
	m.statusSet = status
	m.user.TrainerStatus = status
	return nil
}

func (m *stubUserRepo) SetBan(ctx context.Context, userID int64, banned bool, reason string) error {
	m.banCalled = true
	m.banValue = banned
	m.banReason = reason
	m.user.IsBanned = banned
	return nil
}

func (m *stubUserRepo) List(ctx context.Context, f repository.UserFilters) ([]domain.User, int64, error) {
	return nil, 0, nil
}

type stubTrainerRepo struct {
	profile *domain.TrainerProfile
	getErr  error
}

func (m *stubTrainerRepo) DB() *gorm.DB { return nil }

func (m *stubTrainerRepo) GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.profile, nil
}

func (m *stubTrainerRepo) Update(ctx context.Context, p *domain.TrainerProfile) error {
	m.profile = p
	return nil
}

type spyNotifier struct {
	approvedUserID int64
	rejectedUserID int64
	rejectedReason string
}

func (n *spyNotifier) NotifyVerificationApproved(ctx context.Context, trainerUserID int64) error {
	n.approvedUserID = trainerUserID
	return nil
}

func (n *spyNotifier) NotifyVerificationRejected(ctx context.Context, trainerUserID int64, reason string) error {
	n.rejectedUserID = trainerUserID
	n.rejectedReason = reason
	return nil
}

func TestVerifyTrainer_SetsModerationFields(t *testing.T) {
	ctx := context.Background()

	adminID := int64(1)
	trainerUserID := int64(5)

	userRepo := &stubUserRepo{user: &domain.User{
		ID:            trainerUserID,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerPending,
	}}
	trainerRepo := &stubTrainerRepo{profile: &domain.TrainerProfile{
		ID:             7,
		UserID:         trainerUserID,
		RejectedReason: "старый отказ",
	}}
	notifier := &spyNotifier{}

	svc := NewService(userRepo, trainerRepo, nil, nil, notifier)

	if _, err := svc.VerifyTrainer(ctx, trainerUserID, adminID, "документы в порядке"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if userRepo.statusSet != domain.TrainerVerified {
		t.Fatalf("expected trainer_status = verified, got %v", userRepo.statusSet)
	}

	if trainerRepo.profile.VerifiedAt == nil {
		t.Fatalf("expected verified_at to be set")
	}
	if time.Since(*trainerRepo.profile.VerifiedAt) > 10*time.Second {
		t.Fatalf("expected verified_at to be recent, got %v", trainerRepo.profile.VerifiedAt)
	}

	if trainerRepo.profile.VerifiedBy == nil || *trainerRepo.profile.VerifiedBy != adminID {
		t.Fatalf("expected verified_by = %d, got %v", adminID, trainerRepo.profile.VerifiedBy)
	}

	if trainerRepo.profile.AdminNotes != "документы в порядке" {
		t.Fatalf("expected admin notes to be saved, got %q", trainerRepo.profile.AdminNotes)
	}

	if trainerRepo.profile.RejectedReason != "" {
		t.Fatalf("expected rejected_reason empty, got %q", trainerRepo.profile.RejectedReason)
	}

	if notifier.approvedUserID != trainerUserID {
		t.Fatalf("expected approval notification for user %d, got %d", trainerUserID, notifier.approvedUserID)
	}
}

func TestVerifyTrainer_NotPending(t *testing.T) {
	ctx := context.Background()

	userRepo := &stubUserRepo{user: &domain.User{
		ID:            5,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerVerified,
	}}
	trainerRepo := &stubTrainerRepo{profile: &domain.TrainerProfile{ID: 7, UserID: 5}}

	svc := NewService(userRepo, trainerRepo, nil, nil, nil)

	if _, err := svc.VerifyTrainer(ctx, 5, 1, ""); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestRejectTrainer_RequiresReason(t *testing.T) {
	ctx := context.Background()

	userRepo := &stubUserRepo{user: &domain.User{
		ID:            5,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerPending,
	}}
	trainerRepo := &stubTrainerRepo{profile: &domain.TrainerProfile{ID: 7, UserID: 5}}

	svc := NewService(userRepo, trainerRepo, nil, nil, nil)

	if _, err := svc.RejectTrainer(ctx, 5, 1, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	if userRepo.statusSet != "" {
		t.Fatalf("expected trainer_status untouched, got %v", userRepo.statusSet)
	}
}

func TestRejectTrainer_SetsReasonAndNotifies(t *testing.T) {
	ctx := context.Background()

	trainerUserID := int64(5)

	userRepo := &stubUserRepo{user: &domain.User{
		ID:            trainerUserID,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerPending,
	}}
	now := time.Now()
	trainerRepo := &stubTrainerRepo{profile: &domain.TrainerProfile{
		ID:         7,
		UserID:     trainerUserID,
		VerifiedAt: &now,
	}}
	notifier := &spyNotifier{}

	svc := NewService(userRepo, trainerRepo, nil, nil, notifier)

	if _, err := svc.RejectTrainer(ctx, trainerUserID, 1, "Нет сертификатов"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if userRepo.statusSet != domain.TrainerRejected {
		t.Fatalf("expected trainer_status = rejected, got %v", userRepo.statusSet)
	}

	if trainerRepo.profile.RejectedReason != "Нет сертификатов" {
		t.Fatalf("expected rejected_reason saved, got %q", trainerRepo.profile.RejectedReason)
	}

	if trainerRepo.profile.VerifiedAt != nil {
		t.Fatalf("expected verified_at cleared, got %v", trainerRepo.profile.VerifiedAt)
	}

	if notifier.rejectedUserID != trainerUserID || notifier.rejectedReason != "Нет сертификатов" {
		t.Fatalf("expected rejection notification with reason, got user=%d reason=%q",
			notifier.rejectedUserID, notifier.rejectedReason)
	}
}

func TestBlockUser_CannotBanAdmin(t *testing.T) {
	ctx := context.Background()

	userRepo := &stubUserRepo{user: &domain.User{
		ID:   2,
		Role: domain.RoleAdmin,
	}}

	svc := NewService(userRepo, &stubTrainerRepo{}, nil, nil, nil)

	if _, err := svc.BlockUser(ctx, 2, "за компанию"); !errors.Is(err, ErrCannotBanAdmin) {
		t.Fatalf("expected ErrCannotBanAdmin, got %v", err)
	}

	if userRepo.banCalled {
		t.Fatalf("expected SetBan not to be called")
	}
}

func TestBlockUser_SetsBan(t *testing.T) {
	ctx := context.Background()

	userRepo := &stubUserRepo{user: &domain.User{
		ID:   7,
		Role: domain.RoleClient,
	}}

	svc := NewService(userRepo, &stubTrainerRepo{}, nil, nil, nil)

	u, err := svc.BlockUser(ctx, 7, "спам")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if !userRepo.banCalled || !userRepo.banValue || userRepo.banReason != "спам" {
		t.Fatalf("expected SetBan(true, %q), got called=%v banned=%v reason=%q",
			"спам", userRepo.banCalled, userRepo.banValue, userRepo.banReason)
	}

	if !u.IsBanned {
		t.Fatalf("expected returned user to be banned")
	}
}
