package repository

import (
	"context"
	"strings"
	"time"

	"fitmarket/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DB отдаёт raw-handle для транзакций в сервисах (auth)
func (r *UserRepository) DB() *gorm.DB {
	return r.db
}

type userModel struct {
	ID                  int64      `gorm:"column:id;primaryKey"`
	Email               string     `gorm:"column:email"`
	PasswordHash        string     `gorm:"column:password_hash"`
	Role                string     `gorm:"column:role"`
	Name                string     `gorm:"column:name"`
	Phone               *string    `gorm:"column:phone"`
	AvatarURL           *string    `gorm:"column:avatar_url"`
	EmailVerified       bool       `gorm:"column:email_verified"`
	EmailVerifiedAt     *time.Time `gorm:"column:email_verified_at"`
	TrainerStatus       *string    `gorm:"column:trainer_status"`
	IsBanned            bool       `gorm:"column:is_banned"`
	BannedAt            *time.Time `gorm:"column:banned_at"`
	BanReason           *string    `gorm:"column:ban_reason"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts"`
	LockedUntil         *time.Time `gorm:"column:locked_until"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	var phone, avatar, status, banReason string
	if m.Phone != nil {
		phone = *m.Phone
	}
	if m.AvatarURL != nil {
		avatar = *m.AvatarURL
	}
	if m.TrainerStatus != nil {
		status = *m.TrainerStatus
	}
	if m.BanReason != nil {
		banReason = *m.BanReason
	}

	return &domain.User{
		ID:                  m.ID,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		Role:                domain.UserRole(m.Role),
		Name:                m.Name,
		Phone:               phone,
		AvatarURL:           avatar,
		EmailVerified:       m.EmailVerified,
		EmailVerifiedAt:     m.EmailVerifiedAt,
		TrainerStatus:       domain.TrainerStatus(status),
		IsBanned:            m.IsBanned,
		BannedAt:            m.BannedAt,
		BanReason:           banReason,
		FailedLoginAttempts: m.FailedLoginAttempts,
		LockedUntil:         m.LockedUntil,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	email := strings.TrimSpace(strings.ToLower(u.Email))

	var phone, avatar, status, banReason *string
	if u.Phone != "" {
		v := u.Phone
		phone = &v
	}
	if u.AvatarURL != "" {
		v := u.AvatarURL
		avatar = &v
	}
	if u.TrainerStatus != "" {
		v := string(u.TrainerStatus)
		status = &v
	}
	if u.BanReason != "" {
		v := u.BanReason
		banReason = &v
	}

	return userModel{
		ID:                  u.ID,
		Email:               email,
		PasswordHash:        u.PasswordHash,
		Role:                string(u.Role),
		Name:                u.Name,
		Phone:               phone,
		AvatarURL:           avatar,
		EmailVerified:       u.EmailVerified,
		EmailVerifiedAt:     u.EmailVerifiedAt,
		TrainerStatus:       status,
		IsBanned:            u.IsBanned,
		BannedAt:            u.BannedAt,
		BanReason:           banReason,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedUntil:         u.LockedUntil,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

// GetByIDs возвращает пользователей пачкой (для подстановки имён в списки)
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	out := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []userModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.ID] = toDomainUser(m)
	}
	return out, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	return r.db.WithContext(ctx).Save(&m).Error
}

// SetTrainerStatus обновляет статус модерации тренера.
func (r *UserRepository) SetTrainerStatus(ctx context.Context, userID int64, status domain.TrainerStatus) error {
	return r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"trainer_status": string(status),
			"updated_at":     time.Now(),
		}).Error
}

// SetBan банит или разбанивает пользователя.
func (r *UserRepository) SetBan(ctx context.Context, userID int64, banned bool, reason string) error {
	updates := map[string]any{
		"is_banned":  banned,
		"updated_at": time.Now(),
	}
	if banned {
		updates["banned_at"] = time.Now()
		updates["ban_reason"] = reason
	} else {
		updates["banned_at"] = nil
		updates["ban_reason"] = nil
	}
	return r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

type UserFilters struct {
	Role          string
	TrainerStatus string
	Banned        *bool
	Query         string
	Limit         int
	Offset        int
}

// List возвращает пользователей для админки.
func (r *UserRepository) List(ctx context.Context, f UserFilters) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&userModel{})

	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.TrainerStatus != "" {
		q = q.Where("trainer_status = ?", f.TrainerStatus)
	}
	if f.Banned != nil {
		q = q.Where("is_banned = ?", *f.Banned)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []userModel
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, *toDomainUser(m))
	}
	return users, total, nil
}
