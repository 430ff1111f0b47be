package database

import (
	"log"
	"strings"

	"fitmarket/internal/domain"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Регистрирует database/sql драйвер "sqlite" (pure-Go, без cgo)
	_ "modernc.org/sqlite"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate применяет схему всех доменных сущностей.
// Вызывается из cmd/api и cmd/seed; порядок важен из-за FK.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.TrainerProfile{},
		&domain.Service{},
		&domain.Booking{},
		&domain.Session{},
		&domain.Review{},
		&domain.Favorite{},
		&domain.Notification{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.RefreshToken{},
		&domain.VerificationCode{},
	)
}
