package main

import (
	"context"
	"log"
	"os"
	"time"

	"fitmarket/internal/database"
	"fitmarket/internal/domain"
	"fitmarket/internal/repository"
)

// Периодическая чистка: протухшие refresh-токены, использованные коды
// подтверждения и старые прочитанные уведомления. Запускается по cron.
func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now()

	refreshRepo := repository.NewRefreshTokenRepository(db)

	expired, err := refreshRepo.DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup refresh_tokens (expired) failed: %v", err)
	}

	revoked, err := refreshRepo.DeleteRevokedBefore(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		log.Fatalf("cleanup refresh_tokens (revoked) failed: %v", err)
	}

	codesRes := db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&domain.VerificationCode{})
	if codesRes.Error != nil {
		log.Fatalf("cleanup email_verification_codes failed: %v", codesRes.Error)
	}

	notifRepo := repository.NewNotificationRepository(db)
	readNotifs, err := notifRepo.DeleteReadBefore(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		log.Fatalf("cleanup notifications failed: %v", err)
	}

	log.Printf("cleanup completed: refresh_expired=%d refresh_revoked=%d verification_codes=%d notifications=%d",
		expired, revoked, codesRes.RowsAffected, readNotifs)
}
