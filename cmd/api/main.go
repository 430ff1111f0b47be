package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fitmarket/internal/config"
	"fitmarket/internal/database"
	"fitmarket/internal/events"
	"fitmarket/internal/middleware"
	"fitmarket/internal/modules/admin"
	"fitmarket/internal/modules/auth"
	"fitmarket/internal/modules/booking"
	"fitmarket/internal/modules/catalog"
	"fitmarket/internal/modules/chat"
	"fitmarket/internal/modules/favorite"
	"fitmarket/internal/modules/notification"
	"fitmarket/internal/modules/review"
	jwtsvc "fitmarket/internal/pkg/jwt"
	"fitmarket/internal/pkg/mailer"
	"fitmarket/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, reading config from environment")
	}

	cfg := config.LoadAppConfig()
	authCfg, err := config.LoadAuthRuntimeConfig()
	if err != nil {
		log.Fatalf("auth config: %v", err)
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	j := jwtsvc.New(authCfg.JWTSecret, authCfg.JWTAccessTTL)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaBookingsTopic, cfg.KafkaDLQTopic)
	if publisher == nil {
		log.Println("events: kafka disabled (KAFKA_BROKERS is empty)")
	}
	defer publisher.Close()

	// Без SENDGRID_API_KEY письма уходят в лог — удобно для локальной разработки.
	var (
		authMail    auth.Mailer
		bookingMail booking.MailSender
	)
	if cfg.SendGridAPIKey != "" {
		sg := mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromEmail)
		authMail, bookingMail = sg, sg
	} else {
		cm := mailer.NewConsoleMailer(cfg.DevMailEcho)
		authMail, bookingMail = cm, cm
		log.Println("mailer: console mode (SENDGRID_API_KEY is empty)")
	}

	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	authService := auth.NewService(
		userRepo,
		j,
		authMail,
		authCfg.VerificationCodePepper,
		authCfg.VerifyCodeTTL,
		authCfg.VerifyResendCooldown,
		authCfg.RefreshTokenPepper,
		authCfg.RefreshTTL,
	)
	authHandler := auth.NewHandler(authService, bookingRepo, auth.CookieConfig{
		Secure:   authCfg.CookieSecure,
		SameSite: authCfg.CookieSameSite,
		Path:     authCfg.CookiePath,
		MaxAge:   int(authCfg.RefreshTTL.Seconds()),
	})

	catalogService := catalog.NewService(trainerRepo, serviceRepo, userRepo)
	catalogHandler := catalog.NewHandler(catalogService, userRepo)
	ownership := middleware.NewOwnershipChecker(serviceRepo)

	bookingService := booking.NewService(
		bookingRepo,
		sessionRepo,
		trainerRepo,
		serviceRepo,
		userRepo,
		notificationService,
		publisher,
		bookingMail,
	)
	bookingHandler := booking.NewHandler(bookingService)

	reviewService := review.NewService(reviewRepo, bookingRepo, trainerRepo, userRepo, notificationService)
	reviewHandler := review.NewHandler(reviewService)

	favoriteHandler := favorite.NewHandler(favoriteRepo, trainerRepo)

	chatHub := chat.NewHub()
	chatService := chat.NewService(chatRepo, userRepo, notificationService)
	chatHandler := chat.NewHandler(chatService, chatHub)
	wsHandler := chat.NewWSHandler(chatHub, j, chatService)

	adminService := admin.NewService(userRepo, trainerRepo, bookingRepo, sessionRepo, notificationService)
	adminHandler := admin.NewHandler(adminService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)
		wsHandler.RegisterRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			catalogHandler.RegisterProtectedRoutes(protected, ownership)
			bookingHandler.RegisterProtectedRoutes(protected)
			reviewHandler.RegisterRoutes(v1, protected)
			favoriteHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)

			adminGroup := protected.Group("/admin", middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("shutdown: signal %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		chatHub.Close()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: forced close: %v", err)
			_ = srv.Close()
		}
	}
}
