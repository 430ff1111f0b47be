package domain

import (
	"time"
)

// Favorite представляет связь пользователя с избранным тренером.
// Каждая запись означает, что пользователь добавил тренера в свой список избранного.
type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_trainer"`
	TrainerID int64     `json:"trainer_id" gorm:"not null;index;uniqueIndex:idx_user_trainer"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Virtual fields для preload
	User    *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Trainer *TrainerProfile `json:"trainer,omitempty" gorm:"-"`
}

// TableName возвращает имя таблицы в БД
func (Favorite) TableName() string {
	return "favorites"
}

// FavoriteWithTrainer используется для ответа API с полной информацией о тренере
type FavoriteWithTrainer struct {
	ID        int64           `json:"id"`
	TrainerID int64           `json:"trainer_id"`
	Trainer   *TrainerProfile `json:"trainer"`
	CreatedAt string          `json:"created_at"`
}
