package repository

import (
	"context"
	"encoding/json"
	"time"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// DB отдаёт raw-handle для сводных запросов админки
func (r *BookingRepository) DB() *gorm.DB {
	return r.db
}

type bookingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	ClientID           int64      `gorm:"column:client_id"`
	TrainerID          int64      `gorm:"column:trainer_id"`
	Status             string     `gorm:"column:status"`
	PaymentStatus      string     `gorm:"column:payment_status"`
	TotalPrice         float64    `gorm:"column:total_price"`
	Notes              *string    `gorm:"column:notes"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	StatusHistory      []byte     `gorm:"column:status_history"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes, reason string
	if m.Notes != nil {
		notes = *m.Notes
	}
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	var history domain.StatusHistory
	if len(m.StatusHistory) > 0 {
		_ = json.Unmarshal(m.StatusHistory, &history)
	}

	return &domain.Booking{
		ID:                 m.ID,
		ClientID:           m.ClientID,
		TrainerID:          m.TrainerID,
		Status:             domain.BookingStatus(m.Status),
		PaymentStatus:      domain.PaymentStatus(m.PaymentStatus),
		TotalPrice:         m.TotalPrice,
		Notes:              notes,
		CancellationReason: reason,
		CancelledAt:        m.CancelledAt,
		StatusHistory:      history,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes, reason *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	history, _ := json.Marshal(b.StatusHistory)
	if b.StatusHistory == nil {
		history = []byte("[]")
	}

	return bookingModel{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		TrainerID:          b.TrainerID,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		TotalPrice:         b.TotalPrice,
		Notes:              notes,
		CancellationReason: reason,
		CancelledAt:        b.CancelledAt,
		StatusHistory:      history,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// CreateWithSessions вставляет бронь и все её сессии одной транзакцией:
// либо бронь создаётся целиком, либо не создаётся вовсе.
func (r *BookingRepository) CreateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*b = *toDomainBooking(m)

		for i := range sessions {
			sessions[i].BookingID = b.ID
			sm := toSessionModel(&sessions[i])
			if err := tx.Create(&sm).Error; err != nil {
				return err
			}
			sessions[i] = *toDomainSession(sm)
		}
		b.Sessions = sessions
		return nil
	})
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, int64, error) {
	return r.list(ctx, "client_id = ?", []any{clientID}, limit, offset)
}

// ListByTrainer — входящие брони тренера, status="" значит без фильтра.
func (r *BookingRepository) ListByTrainer(ctx context.Context, trainerID int64, status string, limit, offset int) ([]domain.Booking, int64, error) {
	if status != "" {
		return r.list(ctx, "trainer_id = ? AND status = ?", []any{trainerID, status}, limit, offset)
	}
	return r.list(ctx, "trainer_id = ?", []any{trainerID}, limit, offset)
}

func (r *BookingRepository) list(ctx context.Context, cond string, args []any, limit, offset int) ([]domain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&bookingModel{}).Where(cond, args...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []bookingModel
	err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, total, nil
}

// Update сохраняет бронь целиком, включая историю статусов.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	m.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return err
	}
	*b = *toDomainBooking(m)
	return nil
}

// UpdateWithSessions сохраняет бронь и изменённые сессии одной
// транзакцией. Нужен отмене с каскадом и автозавершению брони.
func (r *BookingRepository) UpdateWithSessions(ctx context.Context, b *domain.Booking, sessions []domain.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toBookingModel(b)
		m.UpdatedAt = time.Now()
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		*b = *toDomainBooking(m)

		for i := range sessions {
			sm := toSessionModel(&sessions[i])
			sm.UpdatedAt = time.Now()
			if err := tx.Save(&sm).Error; err != nil {
				return err
			}
			sessions[i] = *toDomainSession(sm)
		}
		return nil
	})
}

// CountByStatus — агрегат для админской статистики.
func (r *BookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("status = ?", string(status)).
		Count(&cnt).Error
	return cnt, err
}

// HasCompletedBookingWithTrainer — была ли у клиента хоть одна
// завершённая бронь у этого тренера. Открывает право на отзыв.
func (r *BookingRepository) HasCompletedBookingWithTrainer(ctx context.Context, clientID, trainerID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("client_id = ? AND trainer_id = ? AND status = ?", clientID, trainerID, string(domain.BookingCompleted)).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// BookingStats — агрегаты по броням клиента для блока статистики
// в профиле.
type BookingStats struct {
	Total     int64 `gorm:"column:total"`
	Upcoming  int64 `gorm:"column:upcoming"`
	Completed int64 `gorm:"column:completed"`
	Cancelled int64 `gorm:"column:cancelled"`
}

func (r *BookingRepository) GetStatsByUserID(ctx context.Context, userID int64) (*BookingStats, error) {
	var stats BookingStats

	// COUNT(CASE ...) вместо SUM: на пустой выборке возвращает 0, а не NULL
	q := `
SELECT
  COUNT(*) AS total,
  COUNT(CASE WHEN status IN ('pending', 'confirmed') THEN 1 END) AS upcoming,
  COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
  COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled
FROM bookings
WHERE client_id = ?
`
	tx := r.db.WithContext(ctx).Raw(q, userID).Scan(&stats)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &stats, nil
}

// RecentBookingRow — строка блока «последние брони»: имя тренера уже
// приджойнено, start_time — время первой сессии брони.
type RecentBookingRow struct {
	ID          int64     `gorm:"column:id"`
	TrainerName string    `gorm:"column:trainer_name"`
	StartTime   time.Time `gorm:"column:start_time"`
	Status      string    `gorm:"column:status"`
}

func (r *BookingRepository) GetRecentByUserID(ctx context.Context, userID int64, limit int) ([]RecentBookingRow, error) {
	if limit <= 0 || limit > 20 {
		limit = 3
	}

	var rows []RecentBookingRow
	q := `
SELECT
  b.id,
  u.name AS trainer_name,
  COALESCE(MIN(s.start_time), b.created_at) AS start_time,
  b.status
FROM bookings b
JOIN users u ON u.id = b.trainer_id
LEFT JOIN sessions s ON s.booking_id = b.id
WHERE b.client_id = ?
GROUP BY b.id, u.name, b.status, b.created_at
ORDER BY b.created_at DESC
LIMIT ?
`
	tx := r.db.WithContext(ctx).Raw(q, userID, limit).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}
