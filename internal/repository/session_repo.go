package repository

import (
	"context"
	"encoding/json"
	"time"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// DB отдаёт raw-handle для сводных запросов админки
func (r *SessionRepository) DB() *gorm.DB {
	return r.db
}

type sessionModel struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	BookingID       int64     `gorm:"column:booking_id"`
	TrainerID       int64     `gorm:"column:trainer_id"`
	ClientID        int64     `gorm:"column:client_id"`
	ServiceID       *int64    `gorm:"column:service_id"`
	ServiceName     string    `gorm:"column:service_name"`
	DurationMinutes int       `gorm:"column:duration_minutes"`
	Price           float64   `gorm:"column:price"`
	Notes           string    `gorm:"column:notes"`
	StartTime       time.Time `gorm:"column:start_time"`
	Status          string    `gorm:"column:status"`
	StatusHistory   []byte    `gorm:"column:status_history"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string { return "sessions" }

func toDomainSession(m sessionModel) *domain.Session {
	var history domain.StatusHistory
	if len(m.StatusHistory) > 0 {
		_ = json.Unmarshal(m.StatusHistory, &history)
	}

	return &domain.Session{
		ID:              m.ID,
		BookingID:       m.BookingID,
		TrainerID:       m.TrainerID,
		ClientID:        m.ClientID,
		ServiceID:       m.ServiceID,
		ServiceName:     m.ServiceName,
		DurationMinutes: m.DurationMinutes,
		Price:           m.Price,
		Notes:           m.Notes,
		StartTime:       m.StartTime,
		Status:          domain.SessionStatus(m.Status),
		StatusHistory:   history,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toSessionModel(s *domain.Session) sessionModel {
	history, _ := json.Marshal(s.StatusHistory)
	if s.StatusHistory == nil {
		history = []byte("[]")
	}

	return sessionModel{
		ID:              s.ID,
		BookingID:       s.BookingID,
		TrainerID:       s.TrainerID,
		ClientID:        s.ClientID,
		ServiceID:       s.ServiceID,
		ServiceName:     s.ServiceName,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		Notes:           s.Notes,
		StartTime:       s.StartTime,
		Status:          string(s.Status),
		StatusHistory:   history,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	var m sessionModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSession(m), nil
}

func (r *SessionRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Session, error) {
	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainSession(m))
	}
	return out, nil
}

// ListByBookingIDs грузит сессии пачки броней одним запросом,
// сгруппированные по booking_id.
func (r *SessionRepository) ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]domain.Session, error) {
	out := make(map[int64][]domain.Session, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("booking_id IN ?", bookingIDs).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		out[m.BookingID] = append(out[m.BookingID], *toDomainSession(m))
	}
	return out, nil
}

// ListActiveByTrainerBetween — активные (scheduled/in-progress) сессии
// тренера со start_time строго внутри (from, to).
// Используется проверкой конфликтов при создании брони.
func (r *SessionRepository) ListActiveByTrainerBetween(ctx context.Context, trainerID int64, from, to time.Time) ([]domain.Session, error) {
	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID).
		Where("status IN ?", []string{string(domain.SessionScheduled), string(domain.SessionInProgress)}).
		Where("start_time > ? AND start_time < ?", from, to).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainSession(m))
	}
	return out, nil
}

// ListByTrainerOnDate — все сессии тренера за календарный день (UTC).
func (r *SessionRepository) ListByTrainerOnDate(ctx context.Context, trainerID int64, day time.Time) ([]domain.Session, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID).
		Where("start_time >= ? AND start_time < ?", start, end).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainSession(m))
	}
	return out, nil
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	m := toSessionModel(s)
	m.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return err
	}
	*s = *toDomainSession(m)
	return nil
}

// CountOpenByBooking — сколько в брони сессий, которые ещё не
// завершены и не отменены (исключая excludeID).
func (r *SessionRepository) CountOpenByBooking(ctx context.Context, bookingID, excludeID int64) (int64, error) {
	var cnt int64
	q := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("booking_id = ?", bookingID).
		Where("status NOT IN ?", []string{string(domain.SessionCompleted), string(domain.SessionCancelled)})
	if excludeID > 0 {
		q = q.Where("id != ?", excludeID)
	}
	err := q.Count(&cnt).Error
	return cnt, err
}
