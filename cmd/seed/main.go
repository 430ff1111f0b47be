package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"fitmarket/internal/database"
	"fitmarket/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func main() {
	rand.Seed(time.Now().UnixNano())

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "fitmarket.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM conversations")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM favorites")
	db.Exec("DELETE FROM reviews")
	db.Exec("DELETE FROM sessions")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM services")
	db.Exec("DELETE FROM trainer_profiles")
	db.Exec("DELETE FROM refresh_tokens")
	db.Exec("DELETE FROM email_verification_codes")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	// Admin
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:         "admin@fitmarket.kz",
		PasswordHash:  string(adminHash),
		Role:          domain.RoleAdmin,
		Name:          "Администратор",
		EmailVerified: true,
	}
	db.Create(&admin)
	log.Println("Admin created: admin@fitmarket.kz / admin123")

	// Clients (3 users)
	clients := []domain.User{}
	clientSeed := []struct {
		email string
		name  string
	}{
		{"asel@mail.kz", "Асель Нурланова"},
		{"bekzat@gmail.com", "Бекзат Оспанов"},
		{"dina@yandex.kz", "Дина Сапарова"},
	}
	for i, cs := range clientSeed {
		hash, _ := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
		client := domain.User{
			Email:         cs.email,
			PasswordHash:  string(hash),
			Role:          domain.RoleClient,
			Name:          cs.name,
			Phone:         fmt.Sprintf("+7 777 123 45%02d", i+67),
			EmailVerified: true,
		}
		db.Create(&client)
		clients = append(clients, client)
	}

	// Trainers (3 verified + 1 pending)
	trainers := []domain.User{}
	trainerSeed := []struct {
		email string
		name  string
		city  string
		bio   string
		spec  []string
		years int
	}{
		{"marat@ironfit.kz", "Марат Ибрагимов", "Алматы",
			"Мастер спорта по пауэрлифтингу. Готовлю к соревнованиям и просто ставлю технику.",
			[]string{"Силовые тренировки", "Пауэрлифтинг"}, 8},
		{"aizhan@yogaflow.kz", "Айжан Сериккызы", "Алматы",
			"Сертифицированный инструктор хатха-йоги. Работаю с начинающими и восстановлением после травм.",
			[]string{"Йога", "Стретчинг"}, 5},
		{"daniyar@profit.kz", "Данияр Ахметов", "Астана",
			"Кроссфит L2. Функциональный тренинг для тех, кто хочет выносливость, а не только рельеф.",
			[]string{"Кроссфит", "Функциональный тренинг"}, 6},
	}
	now := time.Now()
	for i, ts := range trainerSeed {
		hash, _ := bcrypt.GenerateFromPassword([]byte("trainer123"), bcrypt.DefaultCost)
		trainer := domain.User{
			Email:         ts.email,
			PasswordHash:  string(hash),
			Role:          domain.RoleTrainer,
			Name:          ts.name,
			Phone:         fmt.Sprintf("+7 701 555 10%02d", i+1),
			TrainerStatus: domain.TrainerVerified,
			EmailVerified: true,
		}
		db.Create(&trainer)
		trainers = append(trainers, trainer)

		verifiedAt := now.AddDate(0, -1, 0)
		db.Create(&domain.TrainerProfile{
			UserID:          trainer.ID,
			DisplayName:     ts.name,
			Bio:             ts.bio,
			City:            ts.city,
			Specializations: ts.spec,
			ExperienceYears: ts.years,
			VerifiedAt:      &verifiedAt,
			VerifiedBy:      &admin.ID,
		})
	}

	// Pending trainer: виден в админке на модерации, в каталог не попадает
	pendingHash, _ := bcrypt.GenerateFromPassword([]byte("trainer123"), bcrypt.DefaultCost)
	pendingTrainer := domain.User{
		Email:         "saule@newstart.kz",
		PasswordHash:  string(pendingHash),
		Role:          domain.RoleTrainer,
		Name:          "Сауле Жумабаева",
		TrainerStatus: domain.TrainerPending,
		EmailVerified: true,
	}
	db.Create(&pendingTrainer)
	db.Create(&domain.TrainerProfile{
		UserID:          pendingTrainer.ID,
		DisplayName:     "Сауле Жумабаева",
		Bio:             "Пилатес и ЛФК, начинаю частную практику.",
		City:            "Алматы",
		Specializations: []string{"Пилатес"},
		ExperienceYears: 2,
	})

	// ================== SERVICES ==================
	log.Println("Creating services...")
	serviceSeed := [][]domain.Service{
		{
			{Name: "Персональная тренировка", Description: "Индивидуальное занятие в зале", HourlyPrice: 10000, DurationMinutes: 60, IsActive: true},
			{Name: "Сплит-тренировка", Description: "Занятие для двоих", HourlyPrice: 14000, DurationMinutes: 90, IsActive: true},
			{Name: "Составление программы", Description: "Разбор техники и план на месяц", HourlyPrice: 8000, DurationMinutes: 30, IsActive: true},
		},
		{
			{Name: "Хатха-йога", Description: "Персональная практика", HourlyPrice: 9000, DurationMinutes: 60, IsActive: true},
			{Name: "Стретчинг", Description: "Растяжка и мобильность", HourlyPrice: 8000, DurationMinutes: 45, IsActive: true},
		},
		{
			{Name: "Кроссфит WOD", Description: "Персональный WOD с тренером", HourlyPrice: 12000, DurationMinutes: 60, IsActive: true},
			{Name: "Онлайн-консультация", Description: "Видеозвонок, разбор тренировок", HourlyPrice: 6000, DurationMinutes: 30, IsActive: true},
		},
	}
	services := make(map[int64][]domain.Service) // trainer user id -> его прайс
	for i, trainer := range trainers {
		for _, svc := range serviceSeed[i] {
			svc.TrainerID = trainer.ID
			db.Create(&svc)
			services[trainer.ID] = append(services[trainer.ID], svc)
		}
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")
	statuses := []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed, domain.BookingCompleted}
	for i := 0; i < 8; i++ {
		client := clients[rand.Intn(len(clients))]
		trainer := trainers[rand.Intn(len(trainers))]
		priceList := services[trainer.ID]
		svc := priceList[rand.Intn(len(priceList))]

		days := rand.Intn(30) - 15 // -15 to +15 days
		startHour := 9 + rand.Intn(11)
		start := now.AddDate(0, 0, days).Truncate(24 * time.Hour).Add(time.Duration(startHour) * time.Hour)

		status := statuses[rand.Intn(len(statuses))]
		if days >= 0 && status == domain.BookingCompleted {
			status = domain.BookingConfirmed // будущая бронь не может быть завершённой
		}
		payment := domain.PaymentUnpaid
		if status == domain.BookingCompleted || rand.Intn(2) == 0 {
			payment = domain.PaymentPaid
		}

		createdAt := start.AddDate(0, 0, -1)
		booking := domain.Booking{
			ClientID:      client.ID,
			TrainerID:     trainer.ID,
			Status:        status,
			PaymentStatus: payment,
			TotalPrice:    svc.PriceFor(svc.DurationMinutes),
			Notes:         fmt.Sprintf("Бронирование %d", i+1),
			StatusHistory: domain.StatusHistory{{
				Field:         domain.StatusFieldStatus,
				From:          "",
				To:            string(domain.BookingPending),
				ChangedBy:     client.ID,
				ChangedByRole: domain.RoleClient,
				ChangedAt:     createdAt,
			}},
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		db.Create(&booking)

		sessionStatus := domain.SessionScheduled
		if status == domain.BookingCompleted {
			sessionStatus = domain.SessionCompleted
		}
		db.Create(&domain.Session{
			BookingID:       booking.ID,
			TrainerID:       trainer.ID,
			ClientID:        client.ID,
			ServiceID:       &svc.ID,
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.PriceFor(svc.DurationMinutes),
			StartTime:       start,
			Status:          sessionStatus,
		})
	}

	// ================== DEMO USER HISTORY ==================
	log.Println("Creating demo client with booking history...")

	demoHash, _ := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	demoUser := domain.User{
		Email:         "demo@fitmarket.kz",
		PasswordHash:  string(demoHash),
		Name:          "Алексей Петров",
		Role:          domain.RoleClient,
		EmailVerified: true,
	}

	// Upsert по email: повторный запуск seed не плодит дубликаты
	db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "name", "role", "email_verified", "updated_at"}),
	}).Create(&demoUser)

	db.Where("client_id = ?", demoUser.ID).Delete(&domain.Session{})
	db.Where("client_id = ?", demoUser.ID).Delete(&domain.Booking{})

	demoTrainer := trainers[0]
	demoSvc := services[demoTrainer.ID][0]

	createDemo := func(start time.Time, status domain.BookingStatus, payment domain.PaymentStatus) {
		createdAt := start.AddDate(0, 0, -2)
		b := domain.Booking{
			ClientID:      demoUser.ID,
			TrainerID:     demoTrainer.ID,
			Status:        status,
			PaymentStatus: payment,
			TotalPrice:    demoSvc.PriceFor(demoSvc.DurationMinutes),
			Notes:         "Demo booking",
			StatusHistory: domain.StatusHistory{{
				Field:         domain.StatusFieldStatus,
				From:          "",
				To:            string(domain.BookingPending),
				ChangedBy:     demoUser.ID,
				ChangedByRole: domain.RoleClient,
				ChangedAt:     createdAt,
			}},
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		db.Create(&b)

		sessionStatus := domain.SessionScheduled
		switch status {
		case domain.BookingCompleted:
			sessionStatus = domain.SessionCompleted
		case domain.BookingCancelled:
			sessionStatus = domain.SessionCancelled
		}
		db.Create(&domain.Session{
			BookingID:       b.ID,
			TrainerID:       demoTrainer.ID,
			ClientID:        demoUser.ID,
			ServiceID:       &demoSvc.ID,
			ServiceName:     demoSvc.Name,
			DurationMinutes: demoSvc.DurationMinutes,
			Price:           demoSvc.PriceFor(demoSvc.DurationMinutes),
			StartTime:       start,
			Status:          sessionStatus,
		})
	}

	at := func(days, hour int) time.Time {
		return now.AddDate(0, 0, days).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}

	// Completed (3) in the past
	createDemo(at(-20, 10), domain.BookingCompleted, domain.PaymentPaid)
	createDemo(at(-15, 12), domain.BookingCompleted, domain.PaymentPaid)
	createDemo(at(-10, 9), domain.BookingCompleted, domain.PaymentPaid)

	// Upcoming confirmed (2) + pending (1)
	createDemo(at(5, 10), domain.BookingConfirmed, domain.PaymentPaid)
	createDemo(at(8, 14), domain.BookingConfirmed, domain.PaymentUnpaid)
	createDemo(at(3, 11), domain.BookingPending, domain.PaymentUnpaid)

	// Cancelled (1)
	createDemo(at(-7, 10), domain.BookingCancelled, domain.PaymentRefunded)

	log.Println("✅ Demo booking history created (total=7, completed=3, upcoming=3, cancelled=1)")

	// ================== REVIEWS ==================
	log.Println("Creating reviews...")
	response := "Спасибо! Рад, что техника пошла в рост."
	respondedAt := now.AddDate(0, 0, -4)
	reviewSeed := []domain.Review{
		{TrainerID: trainers[0].ID, UserID: clients[0].ID, Rating: 5,
			Comment:         "Марат поставил мне технику приседа за месяц. Очень внимательный тренер!",
			TrainerResponse: &response, RespondedAt: &respondedAt},
		{TrainerID: trainers[0].ID, UserID: clients[1].ID, Rating: 4,
			Comment: "Жёстко, но результат есть."},
		{TrainerID: trainers[1].ID, UserID: clients[1].ID, Rating: 5,
			Comment: "После занятий с Айжан спина перестала болеть. Рекомендую!"},
		{TrainerID: trainers[2].ID, UserID: clients[2].ID, Rating: 4,
			Comment: "Отличные WODы, выносливость заметно выросла."},
	}
	for i := range reviewSeed {
		db.Create(&reviewSeed[i])
	}

	// Пересчёт агрегатов, как это делает review module
	ratingByTrainer := map[int64][]int{}
	for _, rv := range reviewSeed {
		ratingByTrainer[rv.TrainerID] = append(ratingByTrainer[rv.TrainerID], rv.Rating)
	}
	for trainerID, ratings := range ratingByTrainer {
		sum := 0
		for _, r := range ratings {
			sum += r
		}
		db.Model(&domain.TrainerProfile{}).
			Where("user_id = ?", trainerID).
			Updates(map[string]interface{}{
				"rating":        float64(sum) / float64(len(ratings)),
				"total_reviews": len(ratings),
			})
	}

	// ================== FAVORITES ==================
	log.Println("Creating favorites...")
	db.Create(&domain.Favorite{UserID: clients[0].ID, TrainerID: trainers[0].ID})
	db.Create(&domain.Favorite{UserID: clients[2].ID, TrainerID: trainers[1].ID})

	// ================== CHAT ==================
	log.Println("Creating demo conversation...")
	a, b := domain.NormalizeParticipants(clients[0].ID, trainers[0].ID)
	conv := domain.Conversation{
		ParticipantA:  a,
		ParticipantB:  b,
		LastMessageAt: now.Add(-2 * time.Hour),
	}
	db.Create(&conv)
	db.Create(&domain.Message{
		ConversationID: conv.ID,
		SenderID:       clients[0].ID,
		Content:        "Здравствуйте! Можно перенести тренировку на вечер?",
		MessageType:    domain.MessageTypeText,
		IsRead:         true,
	})
	db.Create(&domain.Message{
		ConversationID: conv.ID,
		SenderID:       trainers[0].ID,
		Content:        "Добрый день! Да, есть окно в 19:00.",
		MessageType:    domain.MessageTypeText,
	})

	// ================== NOTIFICATIONS ==================
	log.Println("Creating notifications...")
	for _, trainer := range trainers {
		db.Create(&domain.Notification{
			UserID:  trainer.ID,
			Type:    domain.NotifVerificationApproved,
			Title:   "Анкета подтверждена",
			Message: "Ваш профиль тренера прошёл модерацию и виден в каталоге!",
			IsRead:  rand.Intn(2) == 0,
		})
	}

	log.Println("🎉 Seed completed!")
	log.Println("Test accounts:")
	log.Println("Admin: admin@fitmarket.kz / admin123")
	log.Println("Clients: asel@mail.kz, bekzat@gmail.com, dina@yandex.kz / client123")
	log.Println("Trainers: marat@ironfit.kz, aizhan@yogaflow.kz, daniyar@profit.kz / trainer123")
	log.Println("Pending trainer: saule@newstart.kz / trainer123")
	log.Println("Demo client: demo@fitmarket.kz / demo123")
}
