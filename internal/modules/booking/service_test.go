package booking

import (
	"context"
	"testing"
	"time"

	"fitmarket/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock stores

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) CreateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error {
	args := m.Called(ctx, b, sessions)
	if b != nil {
		b.ID = 501 // simulate DB insert
		b.Sessions = sessions
	}
	return args.Error(0)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, int64, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]domain.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingStore) ListByTrainer(ctx context.Context, trainerID int64, status string, limit, offset int) ([]domain.Booking, int64, error) {
	args := m.Called(ctx, trainerID, status, limit, offset)
	return args.Get(0).([]domain.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingStore) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingStore) UpdateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error {
	args := m.Called(ctx, b, sessions)
	return args.Error(0)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Session, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]domain.Session, error) {
	args := m.Called(ctx, bookingIDs)
	return args.Get(0).(map[int64][]domain.Session), args.Error(1)
}

func (m *MockSessionStore) ListActiveByTrainerBetween(ctx context.Context, trainerID int64, from, to time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, trainerID, from, to)
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) ListByTrainerOnDate(ctx context.Context, trainerID int64, day time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, trainerID, day)
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) Update(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionStore) CountOpenByBooking(ctx context.Context, bookingID, excludeID int64) (int64, error) {
	args := m.Called(ctx, bookingID, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

type MockTrainerDirectory struct {
	mock.Mock
}

func (m *MockTrainerDirectory) GetByUserID(ctx context.Context, userID int64) (*domain.TrainerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainerProfile), args.Error(1)
}

func (m *MockTrainerDirectory) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*domain.TrainerProfile, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).(map[int64]*domain.TrainerProfile), args.Error(1)
}

type MockServiceCatalog struct {
	mock.Mock
}

func (m *MockServiceCatalog) ListByTrainer(ctx context.Context, trainerID int64, activeOnly bool) ([]domain.Service, error) {
	args := m.Called(ctx, trainerID, activeOnly)
	return args.Get(0).([]domain.Service), args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]*domain.User), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) NotifyBookingCreated(ctx context.Context, trainerUserID, bookingID int64, clientName string, totalPrice float64) error {
	args := m.Called(ctx, trainerUserID, bookingID, clientName, totalPrice)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyBookingStatusChanged(ctx context.Context, recipientUserID, bookingID int64, status domain.BookingStatus) error {
	args := m.Called(ctx, recipientUserID, bookingID, status)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyBookingCancelled(ctx context.Context, recipientUserID, bookingID int64, reason string) error {
	args := m.Called(ctx, recipientUserID, bookingID, reason)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifySessionCancelled(ctx context.Context, recipientUserID, bookingID, sessionID int64) error {
	args := m.Called(ctx, recipientUserID, bookingID, sessionID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) BookingCreated(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}

func (m *MockEventPublisher) BookingStatusChanged(ctx context.Context, b *domain.Booking, from, to string) {
	m.Called(ctx, b, from, to)
}

func (m *MockEventPublisher) BookingPaymentChanged(ctx context.Context, b *domain.Booking, from, to string) {
	m.Called(ctx, b, from, to)
}

func (m *MockEventPublisher) BookingCancelled(ctx context.Context, b *domain.Booking, reason string) {
	m.Called(ctx, b, reason)
}

func (m *MockEventPublisher) SessionStatusChanged(ctx context.Context, b *domain.Booking, sessionID int64, from, to string) {
	m.Called(ctx, b, sessionID, from, to)
}

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendBookingReceived(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error {
	args := m.Called(ctx, email, name, bookingID, totalPrice)
	return args.Error(0)
}

func (m *MockMailSender) SendBookingConfirmed(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error {
	args := m.Called(ctx, email, name, bookingID, totalPrice)
	return args.Error(0)
}

// Fixtures

const (
	testTrainerID = int64(42)
	testClientID  = int64(7)
)

func verifiedTrainerUser() *domain.User {
	return &domain.User{
		ID:            testTrainerID,
		Name:          "Айгерим",
		Role:          domain.RoleTrainer,
		TrainerStatus: domain.TrainerVerified,
	}
}

func testClientUser() *domain.User {
	return &domain.User{
		ID:    testClientID,
		Name:  "Данияр",
		Email: "daniyar@example.com",
		Role:  domain.RoleClient,
	}
}

func testPriceList() []domain.Service {
	return []domain.Service{
		{ID: 1, TrainerID: testTrainerID, Name: "Персональная тренировка", HourlyPrice: 15000, DurationMinutes: 60, IsActive: true},
		{ID: 2, TrainerID: testTrainerID, Name: "Йога", HourlyPrice: 12000, DurationMinutes: 90, IsActive: true},
	}
}

// newCreateDeps собирает моки happy-path для CreateBooking.
func newCreateDeps(t *testing.T) (*Service, *MockBookingStore, *MockSessionStore) {
	t.Helper()

	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	trainers := new(MockTrainerDirectory)
	catalog := new(MockServiceCatalog)
	users := new(MockUserDirectory)

	users.On("GetByID", mock.Anything, testTrainerID).Return(verifiedTrainerUser(), nil)
	users.On("GetByID", mock.Anything, testClientID).Return(testClientUser(), nil)
	trainers.On("GetByUserID", mock.Anything, testTrainerID).Return(&domain.TrainerProfile{UserID: testTrainerID, DisplayName: "Айгерим"}, nil)
	catalog.On("ListByTrainer", mock.Anything, testTrainerID, true).Return(testPriceList(), nil)

	svc := NewService(bookings, sessions, trainers, catalog, users, nil, nil, nil)
	return svc, bookings, sessions
}

/* ---------- CREATE ---------- */

func TestCreateBooking_MatchesByNameAndFallsBack(t *testing.T) {
	svc, bookings, sessions := newCreateDeps(t)

	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, mock.Anything, mock.Anything).
		Return([]domain.Session{}, nil)
	bookings.On("CreateWithSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	start1 := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	start2 := start1.Add(5 * time.Hour)

	b, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			// Точное совпадение без учёта регистра и пробелов,
			// длительность не задана — берётся из услуги (90 мин)
			{ServiceName: "  ЙОГА ", StartTime: start1},
			// Нет такой услуги — фоллбэк на первую активную (60 мин из запроса не трогаем)
			{ServiceName: "Кроссфит", StartTime: start2, DurationMinutes: 30},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, b)

	// 12000/60*90 + 15000/60*30 = 18000 + 7500
	assert.Equal(t, 25500.0, b.TotalPrice)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)

	require.Len(t, b.Sessions, 2)
	assert.Equal(t, "Йога", b.Sessions[0].ServiceName) // каноническое имя из прайса
	assert.Equal(t, 90, b.Sessions[0].DurationMinutes)
	assert.Equal(t, 18000.0, b.Sessions[0].Price)
	assert.Equal(t, "Персональная тренировка", b.Sessions[1].ServiceName)
	assert.Equal(t, 30, b.Sessions[1].DurationMinutes)
	assert.Equal(t, domain.SessionScheduled, b.Sessions[0].Status)

	// Начальные записи истории
	require.Len(t, b.StatusHistory, 1)
	assert.Equal(t, "", b.StatusHistory[0].From)
	assert.Equal(t, string(domain.BookingPending), b.StatusHistory[0].To)
	assert.Equal(t, testClientID, b.StatusHistory[0].ChangedBy)
	require.Len(t, b.Sessions[0].StatusHistory, 1)
	assert.Equal(t, string(domain.SessionScheduled), b.Sessions[0].StatusHistory[0].To)
}

func TestCreateBooking_RoundsTotalToCents(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	trainers := new(MockTrainerDirectory)
	catalog := new(MockServiceCatalog)
	users := new(MockUserDirectory)

	users.On("GetByID", mock.Anything, testTrainerID).Return(verifiedTrainerUser(), nil)
	users.On("GetByID", mock.Anything, testClientID).Return(testClientUser(), nil)
	trainers.On("GetByUserID", mock.Anything, testTrainerID).Return(&domain.TrainerProfile{UserID: testTrainerID}, nil)
	catalog.On("ListByTrainer", mock.Anything, testTrainerID, true).Return([]domain.Service{
		{ID: 1, TrainerID: testTrainerID, Name: "Сплит", HourlyPrice: 10001, DurationMinutes: 60, IsActive: true},
	}, nil)
	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, mock.Anything, mock.Anything).
		Return([]domain.Session{}, nil)
	bookings.On("CreateWithSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(bookings, sessions, trainers, catalog, users, nil, nil, nil)

	b, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			{ServiceName: "Сплит", StartTime: time.Now().Add(time.Hour), DurationMinutes: 25},
		},
	})

	require.NoError(t, err)
	// 10001/60*25 = 4167.0833... -> 4167.08
	assert.Equal(t, 4167.08, b.TotalPrice)
}

func TestCreateBooking_ConflictAgainstExistingSessions(t *testing.T) {
	svc, _, sessions := newCreateDeps(t)

	start := time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC)
	window := 45 * time.Minute

	// Сервис спрашивает ровно окно ±45 минут от старта
	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, start.Add(-window), start.Add(window)).
		Return([]domain.Session{{ID: 11, TrainerID: testTrainerID, StartTime: start.Add(-20 * time.Minute)}}, nil)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			{ServiceName: "Йога", StartTime: start, DurationMinutes: 45},
		},
	})

	assert.ErrorIs(t, err, ErrTimeConflict)
	sessions.AssertExpectations(t)
}

func TestCreateBooking_ConflictInsideSameRequest(t *testing.T) {
	svc, _, sessions := newCreateDeps(t)

	// В базе пусто — конфликтуют строки самой заявки
	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, mock.Anything, mock.Anything).
		Return([]domain.Session{}, nil)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			{ServiceName: "Йога", StartTime: start, DurationMinutes: 60},
			{ServiceName: "Йога", StartTime: start.Add(30 * time.Minute), DurationMinutes: 60},
		},
	})

	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestCreateBooking_BackToBackIsAllowed(t *testing.T) {
	svc, bookings, sessions := newCreateDeps(t)

	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, mock.Anything, mock.Anything).
		Return([]domain.Session{}, nil)
	bookings.On("CreateWithSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	// Ровно через duration минут — границы окна исключающие
	b, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			{ServiceName: "Йога", StartTime: start, DurationMinutes: 60},
			{ServiceName: "Йога", StartTime: start.Add(60 * time.Minute), DurationMinutes: 60},
		},
	})

	require.NoError(t, err)
	assert.Len(t, b.Sessions, 2)
}

func TestCreateBooking_NoActiveServices(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	trainers := new(MockTrainerDirectory)
	catalog := new(MockServiceCatalog)
	users := new(MockUserDirectory)

	users.On("GetByID", mock.Anything, testTrainerID).Return(verifiedTrainerUser(), nil)
	trainers.On("GetByUserID", mock.Anything, testTrainerID).Return(&domain.TrainerProfile{UserID: testTrainerID}, nil)
	catalog.On("ListByTrainer", mock.Anything, testTrainerID, true).Return([]domain.Service{}, nil)

	svc := NewService(bookings, sessions, trainers, catalog, users, nil, nil, nil)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions:  []SessionItemRequest{{ServiceName: "Йога", StartTime: time.Now().Add(time.Hour)}},
	})

	assert.ErrorIs(t, err, ErrNoActiveServices)
}

func TestCreateBooking_PastStartTime(t *testing.T) {
	svc, _, _ := newCreateDeps(t)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions: []SessionItemRequest{
			{ServiceName: "Йога", StartTime: time.Now().Add(-time.Hour), DurationMinutes: 60},
		},
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBooking_UnverifiedTrainer(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	trainers := new(MockTrainerDirectory)
	catalog := new(MockServiceCatalog)
	users := new(MockUserDirectory)

	pending := verifiedTrainerUser()
	pending.TrainerStatus = domain.TrainerPending
	users.On("GetByID", mock.Anything, testTrainerID).Return(pending, nil)

	svc := NewService(bookings, sessions, trainers, catalog, users, nil, nil, nil)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions:  []SessionItemRequest{{ServiceName: "Йога", StartTime: time.Now().Add(time.Hour)}},
	})

	assert.ErrorIs(t, err, ErrTrainerNotFound)
}

func TestCreateBooking_NotifiesAndPublishes(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	trainers := new(MockTrainerDirectory)
	catalog := new(MockServiceCatalog)
	users := new(MockUserDirectory)
	notifs := new(MockNotificationSender)
	events := new(MockEventPublisher)
	mail := new(MockMailSender)

	users.On("GetByID", mock.Anything, testTrainerID).Return(verifiedTrainerUser(), nil)
	users.On("GetByID", mock.Anything, testClientID).Return(testClientUser(), nil)
	trainers.On("GetByUserID", mock.Anything, testTrainerID).Return(&domain.TrainerProfile{UserID: testTrainerID}, nil)
	catalog.On("ListByTrainer", mock.Anything, testTrainerID, true).Return(testPriceList(), nil)
	sessions.On("ListActiveByTrainerBetween", mock.Anything, testTrainerID, mock.Anything, mock.Anything).
		Return([]domain.Session{}, nil)
	bookings.On("CreateWithSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	notifs.On("NotifyBookingCreated", mock.Anything, testTrainerID, int64(501), "Данияр", 18000.0).Return(nil)
	events.On("BookingCreated", mock.Anything, mock.Anything).Return()
	mail.On("SendBookingReceived", mock.Anything, "daniyar@example.com", "Данияр", int64(501), 18000.0).Return(nil)

	svc := NewService(bookings, sessions, trainers, catalog, users, notifs, events, mail)

	_, err := svc.CreateBooking(context.Background(), testClientID, CreateBookingRequest{
		TrainerID: testTrainerID,
		Sessions:  []SessionItemRequest{{ServiceName: "Йога", StartTime: time.Now().Add(time.Hour)}},
	})

	require.NoError(t, err)
	notifs.AssertExpectations(t)
	events.AssertExpectations(t)
	mail.AssertExpectations(t)
}

/* ---------- STATUS ---------- */

func TestUpdateStatus_AppendsHistory(t *testing.T) {
	bookings := new(MockBookingStore)
	users := new(MockUserDirectory)
	events := new(MockEventPublisher)

	existing := &domain.Booking{
		ID:            501,
		ClientID:      testClientID,
		TrainerID:     testTrainerID,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		StatusHistory: domain.StatusHistory{
			{Field: domain.StatusFieldStatus, From: "", To: "pending", ChangedBy: testClientID, ChangedByRole: domain.RoleClient},
		},
	}
	bookings.On("GetByID", mock.Anything, int64(501)).Return(existing, nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)
	events.On("BookingStatusChanged", mock.Anything, mock.Anything, "pending", "confirmed").Return()

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), users, nil, events, nil)

	b, err := svc.UpdateStatus(context.Background(), testTrainerID, "trainer", 501, "confirmed")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	require.Len(t, b.StatusHistory, 2)
	last := b.StatusHistory[1]
	assert.Equal(t, domain.StatusFieldStatus, last.Field)
	assert.Equal(t, "pending", last.From)
	assert.Equal(t, "confirmed", last.To)
	assert.Equal(t, testTrainerID, last.ChangedBy)
	assert.Equal(t, domain.RoleTrainer, last.ChangedByRole)
	events.AssertExpectations(t)
}

func TestUpdateStatus_SendsConfirmationEmail(t *testing.T) {
	bookings := new(MockBookingStore)
	users := new(MockUserDirectory)
	mail := new(MockMailSender)

	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID,
		Status: domain.BookingPending, TotalPrice: 18000,
	}, nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)
	users.On("GetByID", mock.Anything, testClientID).Return(testClientUser(), nil)
	mail.On("SendBookingConfirmed", mock.Anything, "daniyar@example.com", "Данияр", int64(501), 18000.0).Return(nil)

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), users, nil, nil, mail)

	_, err := svc.UpdateStatus(context.Background(), testTrainerID, "trainer", 501, "confirmed")

	require.NoError(t, err)
	mail.AssertExpectations(t)
}

func TestUpdateStatus_AnyKnownValueAccepted(t *testing.T) {
	bookings := new(MockBookingStore)

	// Завершённую бронь можно вернуть в pending: таблицы переходов нет
	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingCompleted,
	}, nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	b, err := svc.UpdateStatus(context.Background(), testTrainerID, "trainer", 501, "pending")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, "completed", b.StatusHistory[len(b.StatusHistory)-1].From)
}

func TestUpdateStatus_UnknownValueRejected(t *testing.T) {
	svc := NewService(new(MockBookingStore), new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), testTrainerID, "trainer", 501, "paused")

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_ClientForbidden(t *testing.T) {
	bookings := new(MockBookingStore)
	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingPending,
	}, nil)

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), testClientID, "client", 501, "confirmed")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdatePaymentStatus_TracksPaymentField(t *testing.T) {
	bookings := new(MockBookingStore)
	events := new(MockEventPublisher)

	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID,
		Status: domain.BookingConfirmed, PaymentStatus: domain.PaymentUnpaid,
	}, nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)
	events.On("BookingPaymentChanged", mock.Anything, mock.Anything, "unpaid", "paid").Return()

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, events, nil)

	b, err := svc.UpdatePaymentStatus(context.Background(), testTrainerID, "trainer", 501, "paid")

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, b.PaymentStatus)
	last := b.StatusHistory[len(b.StatusHistory)-1]
	assert.Equal(t, domain.StatusFieldPayment, last.Field)
	assert.Equal(t, "unpaid", last.From)
	assert.Equal(t, "paid", last.To)
	events.AssertExpectations(t)
}

/* ---------- CANCEL ---------- */

func TestCancelBooking_RequiresReason(t *testing.T) {
	svc := NewService(new(MockBookingStore), new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.CancelBooking(context.Background(), testClientID, "client", 501, "   ")

	assert.ErrorIs(t, err, ErrReasonRequired)
}

func TestCancelBooking_RejectsTerminal(t *testing.T) {
	bookings := new(MockBookingStore)
	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingCompleted,
	}, nil)

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.CancelBooking(context.Background(), testClientID, "client", 501, "передумал")

	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestCancelBooking_CascadesToScheduledSessions(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	notifs := new(MockNotificationSender)
	events := new(MockEventPublisher)

	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingConfirmed,
	}, nil)
	sessions.On("ListByBooking", mock.Anything, int64(501)).Return([]domain.Session{
		{ID: 1, BookingID: 501, TrainerID: testTrainerID, ClientID: testClientID, Status: domain.SessionScheduled},
		{ID: 2, BookingID: 501, TrainerID: testTrainerID, ClientID: testClientID, Status: domain.SessionCompleted},
	}, nil)

	var savedSessions []domain.Session
	bookings.On("UpdateWithSessions", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedSessions = args.Get(2).([]domain.Session)
		}).
		Return(nil)

	// Отменил клиент — уведомление уходит тренеру
	notifs.On("NotifyBookingCancelled", mock.Anything, testTrainerID, int64(501), "уезжаю").Return(nil)
	events.On("BookingCancelled", mock.Anything, mock.Anything, "уезжаю").Return()

	svc := NewService(bookings, sessions, new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), notifs, events, nil)

	b, err := svc.CancelBooking(context.Background(), testClientID, "client", 501, "уезжаю")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	assert.Equal(t, "уезжаю", b.CancellationReason)
	require.NotNil(t, b.CancelledAt)

	last := b.StatusHistory[len(b.StatusHistory)-1]
	assert.Equal(t, "уезжаю", last.Note)

	// Каскад зацепил только scheduled-сессию
	require.Len(t, savedSessions, 1)
	assert.Equal(t, int64(1), savedSessions[0].ID)
	assert.Equal(t, domain.SessionCancelled, savedSessions[0].Status)
	sessLast := savedSessions[0].StatusHistory[len(savedSessions[0].StatusHistory)-1]
	assert.Equal(t, "booking cancelled", sessLast.Note)

	notifs.AssertExpectations(t)
	events.AssertExpectations(t)
}

/* ---------- SESSIONS ---------- */

func TestGetTrainerSessions_PublicBusyView(t *testing.T) {
	sessions := new(MockSessionStore)
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	sessions.On("ListByTrainerOnDate", mock.Anything, testTrainerID, day).Return([]domain.Session{
		{ID: 1, Status: domain.SessionScheduled, StartTime: day.Add(10 * time.Hour), DurationMinutes: 60},
		{ID: 2, Status: domain.SessionCompleted, StartTime: day.Add(12 * time.Hour), DurationMinutes: 60},
		{ID: 3, Status: domain.SessionInProgress, StartTime: day.Add(14 * time.Hour), DurationMinutes: 90},
	}, nil)

	svc := NewService(new(MockBookingStore), sessions, new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	slots, err := svc.GetTrainerSessions(context.Background(), testTrainerID, "2026-09-14")

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 60, slots[0].DurationMinutes)
	assert.Equal(t, "in-progress", slots[1].Status)

	_, err = svc.GetTrainerSessions(context.Background(), testTrainerID, "14.09.2026")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateSessionStatus_CompletesBookingOnLastSession(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	notifs := new(MockNotificationSender)
	events := new(MockEventPublisher)

	sess := &domain.Session{
		ID: 9, BookingID: 501, TrainerID: testTrainerID, ClientID: testClientID,
		Status: domain.SessionInProgress,
	}
	sessions.On("GetByID", mock.Anything, int64(9)).Return(sess, nil)
	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingConfirmed,
	}, nil)
	sessions.On("CountOpenByBooking", mock.Anything, int64(501), int64(9)).Return(int64(0), nil)

	var savedBooking *domain.Booking
	bookings.On("UpdateWithSessions", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedBooking = args.Get(1).(*domain.Booking)
		}).
		Return(nil)

	notifs.On("NotifyBookingStatusChanged", mock.Anything, testClientID, int64(501), domain.BookingCompleted).Return(nil)
	events.On("BookingStatusChanged", mock.Anything, mock.Anything, "confirmed", "completed").Return()
	events.On("SessionStatusChanged", mock.Anything, mock.Anything, int64(9), "in-progress", "completed").Return()

	svc := NewService(bookings, sessions, new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), notifs, events, nil)

	updated, err := svc.UpdateSessionStatus(context.Background(), testTrainerID, "trainer", 9, "completed")

	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, updated.Status)

	require.NotNil(t, savedBooking)
	assert.Equal(t, domain.BookingCompleted, savedBooking.Status)
	last := savedBooking.StatusHistory[len(savedBooking.StatusHistory)-1]
	assert.Equal(t, "all sessions completed", last.Note)

	notifs.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestUpdateSessionStatus_KeepsBookingWhileOthersOpen(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	events := new(MockEventPublisher)

	sess := &domain.Session{
		ID: 9, BookingID: 501, TrainerID: testTrainerID, ClientID: testClientID,
		Status: domain.SessionScheduled,
	}
	sessions.On("GetByID", mock.Anything, int64(9)).Return(sess, nil)
	bookings.On("GetByID", mock.Anything, int64(501)).Return(&domain.Booking{
		ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingConfirmed,
	}, nil)
	sessions.On("CountOpenByBooking", mock.Anything, int64(501), int64(9)).Return(int64(2), nil)
	sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
	events.On("SessionStatusChanged", mock.Anything, mock.Anything, int64(9), "scheduled", "completed").Return()

	svc := NewService(bookings, sessions, new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, events, nil)

	updated, err := svc.UpdateSessionStatus(context.Background(), testTrainerID, "trainer", 9, "completed")

	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, updated.Status)
	bookings.AssertNotCalled(t, "UpdateWithSessions", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertExpectations(t)
}

func TestUpdateSessionStatus_StrangerForbidden(t *testing.T) {
	sessions := new(MockSessionStore)
	sessions.On("GetByID", mock.Anything, int64(9)).Return(&domain.Session{
		ID: 9, BookingID: 501, TrainerID: testTrainerID, ClientID: testClientID, Status: domain.SessionScheduled,
	}, nil)

	svc := NewService(new(MockBookingStore), sessions, new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.UpdateSessionStatus(context.Background(), int64(777), "trainer", 9, "completed")

	assert.ErrorIs(t, err, ErrForbidden)
}

/* ---------- READ ---------- */

func TestGetBooking_AccessControl(t *testing.T) {
	bookings := new(MockBookingStore)
	sessions := new(MockSessionStore)
	users := new(MockUserDirectory)

	stored := &domain.Booking{ID: 501, ClientID: testClientID, TrainerID: testTrainerID, Status: domain.BookingPending}
	bookings.On("GetByID", mock.Anything, int64(501)).Return(stored, nil)
	sessions.On("ListByBooking", mock.Anything, int64(501)).Return([]domain.Session{{ID: 1, BookingID: 501}}, nil)
	users.On("GetByIDs", mock.Anything, []int64{testClientID, testTrainerID}).Return(map[int64]*domain.User{
		testClientID:  testClientUser(),
		testTrainerID: verifiedTrainerUser(),
	}, nil)

	svc := NewService(bookings, sessions, new(MockTrainerDirectory), new(MockServiceCatalog), users, nil, nil, nil)

	// Посторонний
	_, err := svc.GetBooking(context.Background(), int64(888), "client", 501)
	assert.ErrorIs(t, err, ErrForbidden)

	// Участник
	b, err := svc.GetBooking(context.Background(), testClientID, "client", 501)
	require.NoError(t, err)
	assert.Len(t, b.Sessions, 1)
	require.NotNil(t, b.Trainer)
	assert.Equal(t, "Айгерим", b.Trainer.Name)

	// Админ
	_, err = svc.GetBooking(context.Background(), int64(1), "admin", 501)
	assert.NoError(t, err)
}

func TestGetBooking_NotFound(t *testing.T) {
	bookings := new(MockBookingStore)
	bookings.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(bookings, new(MockSessionStore), new(MockTrainerDirectory), new(MockServiceCatalog), new(MockUserDirectory), nil, nil, nil)

	_, err := svc.GetBooking(context.Background(), testClientID, "client", 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
