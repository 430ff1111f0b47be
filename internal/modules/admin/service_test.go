package admin

import (
	"context"
	"strings"
	"testing"
	"time"

	"fitmarket/internal/database"
	"fitmarket/internal/domain"
	"fitmarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

/* ==================== MOCKS ==================== */

/* -------- UserRepository -------- */

type MockUserRepository struct {
	mock.Mock
	db *gorm.DB
}

func (m *MockUserRepository) DB() *gorm.DB {
	return m.db
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetTrainerStatus(ctx context.Context, userID int64, status domain.TrainerStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockUserRepository) SetBan(ctx context.Context, userID int64, banned bool, reason string) error {
	args := m.Called(ctx, userID, banned, reason)
	return args.Error(0)
}

/* unused method, required by interface */

func (m *MockUserRepository) List(_ context.Context, _ repository.UserFilters) ([]domain.User, int64, error) {
	return nil, 0, nil
}

/* -------- TrainerRepository -------- */

type MockTrainerRepository struct {
	mock.Mock
	db *gorm.DB
}

func (m *MockTrainerRepository) DB() *gorm.DB {
	return m.db
}

func (m *MockTrainerRepository) GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainerProfile), args.Error(1)
}

func (m *MockTrainerRepository) Update(ctx context.Context, profile *domain.TrainerProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

/* -------- BookingRepository / SessionRepository -------- */

type MockBookingRepository struct {
	db *gorm.DB
}

func (m *MockBookingRepository) DB() *gorm.DB {
	return m.db
}

type MockSessionRepository struct {
	db *gorm.DB
}

func (m *MockSessionRepository) DB() *gorm.DB {
	return m.db
}

/* ==================== UNIT TESTS (mocks) ==================== */

func TestVerifyTrainer_Success(t *testing.T) {
	ctx := context.Background()

	pending := &domain.User{
		ID:            10,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerPending,
	}
	profile := &domain.TrainerProfile{
		ID:             3,
		UserID:         10,
		RejectedReason: "нет фото",
	}

	userRepo := new(MockUserRepository)
	trainerRepo := new(MockTrainerRepository)

	userRepo.On("GetByID", ctx, int64(10)).Return(pending, nil)
	trainerRepo.On("GetByUserID", ctx, int64(10)).Return(profile, nil)
	userRepo.On("SetTrainerStatus", ctx, int64(10), domain.TrainerVerified).Return(nil)
	trainerRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.TrainerProfile) bool {
		return p.VerifiedAt != nil &&
			p.VerifiedBy != nil && *p.VerifiedBy == 100 &&
			p.AdminNotes == "OK" &&
			p.RejectedReason == ""
	})).Return(nil)

	service := NewService(
		userRepo,
		trainerRepo,
		&MockBookingRepository{},
		&MockSessionRepository{},
		nil,
	)

	res, err := service.VerifyTrainer(ctx, 10, 100, "OK")

	assert.NoError(t, err)
	assert.Equal(t, profile, res)
	userRepo.AssertExpectations(t)
	trainerRepo.AssertExpectations(t)
}

func TestVerifyTrainer_NotFound(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", ctx, int64(999)).
		Return(nil, gorm.ErrRecordNotFound)

	service := NewService(
		userRepo,
		new(MockTrainerRepository),
		&MockBookingRepository{},
		&MockSessionRepository{},
		nil,
	)

	res, err := service.VerifyTrainer(ctx, 999, 1, "OK")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRejectTrainer_Success(t *testing.T) {
	ctx := context.Background()

	pending := &domain.User{
		ID:            10,
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerPending,
	}
	profile := &domain.TrainerProfile{
		ID:     3,
		UserID: 10,
	}

	userRepo := new(MockUserRepository)
	trainerRepo := new(MockTrainerRepository)

	userRepo.On("GetByID", ctx, int64(10)).Return(pending, nil)
	trainerRepo.On("GetByUserID", ctx, int64(10)).Return(profile, nil)
	userRepo.On("SetTrainerStatus", ctx, int64(10), domain.TrainerRejected).Return(nil)
	trainerRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.TrainerProfile) bool {
		return p.RejectedReason == "Анкета неполная" && p.VerifiedAt == nil
	})).Return(nil)

	service := NewService(
		userRepo,
		trainerRepo,
		&MockBookingRepository{},
		&MockSessionRepository{},
		nil,
	)

	res, err := service.RejectTrainer(ctx, 10, 1, "Анкета неполная")

	assert.NoError(t, err)
	assert.Equal(t, profile, res)
	userRepo.AssertExpectations(t)
	trainerRepo.AssertExpectations(t)
}

/* ==================== SQLITE TESTS ==================== */

func newSQLiteService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	svc := NewService(
		repository.NewUserRepository(db),
		repository.NewTrainerRepository(db),
		repository.NewBookingRepository(db),
		repository.NewSessionRepository(db),
		nil,
	)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, email, name string, role domain.UserRole, status domain.TrainerStatus) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:         email,
		PasswordHash:  "x",
		Name:          name,
		Role:          role,
		TrainerStatus: status,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProfile(t *testing.T, db *gorm.DB, userID int64, displayName, city string) *domain.TrainerProfile {
	t.Helper()
	p := &domain.TrainerProfile{
		UserID:          userID,
		DisplayName:     displayName,
		City:            city,
		ExperienceYears: 5,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestGetPendingTrainers_OnlyPending(t *testing.T) {
	svc, db := newSQLiteService(t)
	ctx := context.Background()

	marat := seedUser(t, db, "marat@example.com", "Марат", domain.RoleTrainer, domain.TrainerPending)
	seedProfile(t, db, marat.ID, "Марат Ибрагимов", "Алматы")

	aigerim := seedUser(t, db, "aigerim@example.com", "Айгерим", domain.RoleTrainer, domain.TrainerVerified)
	seedProfile(t, db, aigerim.ID, "Айгерим К.", "Астана")

	seedUser(t, db, "anna@example.com", "Анна", domain.RoleClient, "")

	rows, total, err := svc.GetPendingTrainers(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, marat.ID, rows[0].UserID)
	assert.Equal(t, "marat@example.com", rows[0].Email)
	assert.Equal(t, "Марат Ибрагимов", rows[0].DisplayName)
	assert.Equal(t, "Алматы", rows[0].City)
}

func TestGetStatistics_CountsAndRevenue(t *testing.T) {
	svc, db := newSQLiteService(t)
	ctx := context.Background()

	anna := seedUser(t, db, "anna@example.com", "Анна", domain.RoleClient, "")
	marat := seedUser(t, db, "marat@example.com", "Марат", domain.RoleTrainer, domain.TrainerPending)
	seedProfile(t, db, marat.ID, "Марат Ибрагимов", "Алматы")
	aigerim := seedUser(t, db, "aigerim@example.com", "Айгерим", domain.RoleTrainer, domain.TrainerVerified)
	seedProfile(t, db, aigerim.ID, "Айгерим К.", "Астана")
	seedUser(t, db, "admin@example.com", "Админ", domain.RoleAdmin, "")

	paid := &domain.Booking{
		ClientID:      anna.ID,
		TrainerID:     aigerim.ID,
		Status:        domain.BookingCompleted,
		PaymentStatus: domain.PaymentPaid,
		TotalPrice:    18000,
	}
	require.NoError(t, db.Create(paid).Error)

	unpaid := &domain.Booking{
		ClientID:      anna.ID,
		TrainerID:     aigerim.ID,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		TotalPrice:    7000,
	}
	require.NoError(t, db.Create(unpaid).Error)
	// вторая бронь создана "вчера" — не попадает в today_bookings
	require.NoError(t, db.Model(&domain.Booking{}).
		Where("id = ?", unpaid.ID).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 9, 0, 0, 0, now.Location())

	sessions := []domain.Session{
		{
			BookingID: paid.ID, TrainerID: aigerim.ID, ClientID: anna.ID,
			ServiceName: "Персональная тренировка", DurationMinutes: 60, Price: 9000,
			StartTime: monthStart, Status: domain.SessionCompleted,
		},
		{
			BookingID: paid.ID, TrainerID: aigerim.ID, ClientID: anna.ID,
			ServiceName: "Персональная тренировка", DurationMinutes: 60, Price: 9000,
			StartTime: monthStart.AddDate(0, 0, -3), Status: domain.SessionCompleted,
		},
		{
			BookingID: unpaid.ID, TrainerID: aigerim.ID, ClientID: anna.ID,
			ServiceName: "Сплит-тренировка", DurationMinutes: 90, Price: 7000,
			StartTime: now.Add(48 * time.Hour), Status: domain.SessionScheduled,
		},
	}
	for i := range sessions {
		require.NoError(t, db.Create(&sessions[i]).Error)
	}

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalTrainers)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.PendingTrainers)
	assert.Equal(t, 1, stats.TodayBookings)
	assert.Equal(t, 1, stats.CompletedSessionsThisMonth)
	assert.InDelta(t, 18000, stats.TotalRevenue, 0.001)
}

func TestListUsers_Filters(t *testing.T) {
	svc, db := newSQLiteService(t)
	ctx := context.Background()

	anna := seedUser(t, db, "anna@example.com", "Анна", domain.RoleClient, "")
	marat := seedUser(t, db, "marat@example.com", "Марат", domain.RoleTrainer, domain.TrainerVerified)
	seedUser(t, db, "admin@example.com", "Админ", domain.RoleAdmin, "")

	_, err := svc.BlockUser(ctx, marat.ID, "спам в чатах")
	require.NoError(t, err)

	users, total, err := svc.ListUsers(ctx, UserListFilter{Role: "trainer"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, marat.ID, users[0].ID)
	assert.True(t, users[0].IsBanned)

	banned := true
	users, total, err = svc.ListUsers(ctx, UserListFilter{Banned: &banned}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, marat.ID, users[0].ID)

	users, total, err = svc.ListUsers(ctx, UserListFilter{Query: "anna"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, anna.ID, users[0].ID)

	// после разблокировки banned-фильтр пустой
	_, err = svc.UnblockUser(ctx, marat.ID)
	require.NoError(t, err)

	_, total, err = svc.ListUsers(ctx, UserListFilter{Banned: &banned}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
