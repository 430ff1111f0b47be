package booking

import (
	"context"
	"math"
	"strings"
	"time"

	"fitmarket/internal/domain"
)

type Service struct {
	bookings BookingStore
	sessions SessionStore
	trainers TrainerDirectory
	catalog  ServiceCatalog
	users    UserDirectory
	notifs   NotificationSender
	events   EventPublisher
	mail     MailSender
}

func NewService(
	bookings BookingStore,
	sessions SessionStore,
	trainers TrainerDirectory,
	catalog ServiceCatalog,
	users UserDirectory,
	notifs NotificationSender,
	events EventPublisher,
	mail MailSender,
) *Service {
	return &Service{
		bookings: bookings,
		sessions: sessions,
		trainers: trainers,
		catalog:  catalog,
		users:    users,
		notifs:   notifs,
		events:   events,
		mail:     mail,
	}
}

/* ---------- CREATE ---------- */

// CreateBooking проводит заявку клиента: матчит услуги по названию,
// считает стоимость, проверяет конфликты расписания и создаёт бронь
// со всеми сессиями одной транзакцией.
func (s *Service) CreateBooking(ctx context.Context, clientID int64, req CreateBookingRequest) (*domain.Booking, error) {
	if len(req.Sessions) == 0 {
		return nil, ErrValidation
	}

	trainerUser, err := s.users.GetByID(ctx, req.TrainerID)
	if err != nil {
		return nil, ErrTrainerNotFound
	}
	if trainerUser.Role != domain.RoleTrainer ||
		trainerUser.TrainerStatus != domain.TrainerVerified ||
		trainerUser.IsBanned {
		return nil, ErrTrainerNotFound
	}
	if _, err := s.trainers.GetByUserID(ctx, req.TrainerID); err != nil {
		return nil, ErrTrainerNotFound
	}

	priceList, err := s.catalog.ListByTrainer(ctx, req.TrainerID, true)
	if err != nil {
		return nil, err
	}
	if len(priceList) == 0 {
		return nil, ErrNoActiveServices
	}

	byName := make(map[string]*domain.Service, len(priceList))
	for i := range priceList {
		byName[strings.ToLower(strings.TrimSpace(priceList[i].Name))] = &priceList[i]
	}
	// Нет точного совпадения — берём первую активную услугу (порядок по id)
	fallback := &priceList[0]

	now := time.Now()
	sessions := make([]domain.Session, 0, len(req.Sessions))
	var total float64

	for _, item := range req.Sessions {
		if !item.StartTime.After(now) {
			return nil, ErrValidation
		}

		matched, ok := byName[strings.ToLower(strings.TrimSpace(item.ServiceName))]
		if !ok {
			matched = fallback
		}

		duration := item.DurationMinutes
		if duration == 0 {
			duration = matched.DurationMinutes
		}
		if duration < 15 || duration > 480 {
			return nil, ErrValidation
		}

		// Сессии, принятые ранее в этой же заявке, участвуют в проверке
		if err := s.checkConflicts(ctx, req.TrainerID, item.StartTime, duration, sessions); err != nil {
			return nil, err
		}

		price := matched.PriceFor(duration)
		total += price

		serviceID := matched.ID
		sessions = append(sessions, domain.Session{
			TrainerID:       req.TrainerID,
			ClientID:        clientID,
			ServiceID:       &serviceID,
			ServiceName:     matched.Name,
			DurationMinutes: duration,
			Price:           math.Round(price*100) / 100,
			Notes:           item.Notes,
			StartTime:       item.StartTime,
			Status:          domain.SessionScheduled,
			StatusHistory: domain.StatusHistory{}.Append(domain.StatusChange{
				Field:         domain.StatusFieldStatus,
				From:          "",
				To:            string(domain.SessionScheduled),
				ChangedBy:     clientID,
				ChangedByRole: domain.RoleClient,
				ChangedAt:     now,
			}),
		})
	}

	total = math.Round(total*100) / 100

	b := &domain.Booking{
		ClientID:      clientID,
		TrainerID:     req.TrainerID,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		TotalPrice:    total,
		Notes:         req.Notes,
		StatusHistory: domain.StatusHistory{}.Append(domain.StatusChange{
			Field:         domain.StatusFieldStatus,
			From:          "",
			To:            string(domain.BookingPending),
			ChangedBy:     clientID,
			ChangedByRole: domain.RoleClient,
			ChangedAt:     now,
		}),
	}

	if err := s.bookings.CreateWithSessions(ctx, b, sessions); err != nil {
		return nil, err
	}

	// Дальше best-effort: бронь уже создана, отказ уведомлений её не откатит
	client, cerr := s.users.GetByID(ctx, clientID)
	if s.notifs != nil && cerr == nil {
		_ = s.notifs.NotifyBookingCreated(ctx, b.TrainerID, b.ID, client.Name, b.TotalPrice)
	}
	if s.events != nil {
		s.events.BookingCreated(ctx, b)
	}
	if s.mail != nil && cerr == nil {
		_ = s.mail.SendBookingReceived(ctx, client.Email, client.Name, b.ID, b.TotalPrice)
	}

	return b, nil
}

// checkConflicts отклоняет старт, если у тренера есть активная сессия
// со start_time ближе чем duration минут к запрошенному. Границы окна
// исключающие: встык (ровно duration минут) — не конфликт.
func (s *Service) checkConflicts(ctx context.Context, trainerID int64, start time.Time, durationMin int, pending []domain.Session) error {
	window := time.Duration(durationMin) * time.Minute

	existing, err := s.sessions.ListActiveByTrainerBetween(ctx, trainerID, start.Add(-window), start.Add(window))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrTimeConflict
	}

	for _, p := range pending {
		diff := p.StartTime.Sub(start)
		if diff > -window && diff < window {
			return ErrTimeConflict
		}
	}
	return nil
}

/* ---------- READ ---------- */

func (s *Service) GetMyBookings(ctx context.Context, clientID int64, limit, offset int) ([]BookingSummary, int64, error) {
	rows, total, err := s.bookings.ListByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.buildSummaries(ctx, rows, true)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Service) GetTrainerBookings(ctx context.Context, trainerID int64, status string, limit, offset int) ([]BookingSummary, int64, error) {
	if status != "" && !domain.BookingStatus(status).IsValid() {
		return nil, 0, ErrInvalidStatus
	}

	rows, total, err := s.bookings.ListByTrainer(ctx, trainerID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.buildSummaries(ctx, rows, false)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// buildSummaries дособирает к броням сессии и имя второй стороны:
// клиенту — публичное имя тренера из анкеты, тренеру — имя клиента.
func (s *Service) buildSummaries(ctx context.Context, rows []domain.Booking, forClient bool) ([]BookingSummary, error) {
	bookingIDs := make([]int64, 0, len(rows))
	partyIDs := make([]int64, 0, len(rows))
	for _, b := range rows {
		bookingIDs = append(bookingIDs, b.ID)
		if forClient {
			partyIDs = append(partyIDs, b.TrainerID)
		} else {
			partyIDs = append(partyIDs, b.ClientID)
		}
	}

	grouped, err := s.sessions.ListByBookingIDs(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	var trainerNames map[int64]*domain.TrainerProfile
	var clientNames map[int64]*domain.User
	if forClient {
		trainerNames, err = s.trainers.GetByUserIDs(ctx, partyIDs)
	} else {
		clientNames, err = s.users.GetByIDs(ctx, partyIDs)
	}
	if err != nil {
		return nil, err
	}

	out := make([]BookingSummary, 0, len(rows))
	for _, b := range rows {
		sum := BookingSummary{
			ID:            b.ID,
			ClientID:      b.ClientID,
			TrainerID:     b.TrainerID,
			Status:        string(b.Status),
			PaymentStatus: string(b.PaymentStatus),
			TotalPrice:    b.TotalPrice,
			CreatedAt:     b.CreatedAt,
			Sessions:      make([]SessionSummary, 0),
		}
		if forClient {
			if p, ok := trainerNames[b.TrainerID]; ok {
				sum.TrainerName = p.DisplayName
			}
		} else {
			if u, ok := clientNames[b.ClientID]; ok {
				sum.ClientName = u.Name
			}
		}
		for _, sess := range grouped[b.ID] {
			sum.Sessions = append(sum.Sessions, SessionSummary{
				ID:              sess.ID,
				ServiceName:     sess.ServiceName,
				StartTime:       sess.StartTime,
				DurationMinutes: sess.DurationMinutes,
				Status:          string(sess.Status),
			})
		}
		out = append(out, sum)
	}
	return out, nil
}

// GetBooking возвращает бронь с сессиями и историей. Читать могут
// только участники брони и админ.
func (s *Service) GetBooking(ctx context.Context, actorID int64, actorRole string, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != actorID && b.TrainerID != actorID && actorRole != string(domain.RoleAdmin) {
		return nil, ErrForbidden
	}

	sessions, err := s.sessions.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	b.Sessions = sessions

	people, err := s.users.GetByIDs(ctx, []int64{b.ClientID, b.TrainerID})
	if err == nil {
		b.Client = people[b.ClientID]
		b.Trainer = people[b.TrainerID]
	}

	return b, nil
}

/* ---------- MUTATE ---------- */

// UpdateStatus ставит любой валидный статус брони. Таблицы переходов
// нет намеренно: принимается любое значение enum'а независимо от
// текущего, смену фиксирует история.
func (s *Service) UpdateStatus(ctx context.Context, actorID int64, actorRole string, bookingID int64, newStatus string) (*domain.Booking, error) {
	st := domain.BookingStatus(newStatus)
	if !st.IsValid() {
		return nil, ErrInvalidStatus
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole != string(domain.RoleAdmin) && b.TrainerID != actorID {
		return nil, ErrForbidden
	}

	from := b.Status
	b.Status = st
	b.StatusHistory = b.StatusHistory.Append(domain.StatusChange{
		Field:         domain.StatusFieldStatus,
		From:          string(from),
		To:            string(st),
		ChangedBy:     actorID,
		ChangedByRole: domain.UserRole(actorRole),
		ChangedAt:     time.Now(),
	})

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if st == domain.BookingCancelled {
			// Отмена через этот эндпоинт идёт без причины
			_ = s.notifs.NotifyBookingCancelled(ctx, b.ClientID, b.ID, "")
		} else {
			_ = s.notifs.NotifyBookingStatusChanged(ctx, b.ClientID, b.ID, st)
		}
	}
	if s.events != nil {
		s.events.BookingStatusChanged(ctx, b, string(from), string(st))
	}
	if st == domain.BookingConfirmed && s.mail != nil {
		if client, err := s.users.GetByID(ctx, b.ClientID); err == nil {
			_ = s.mail.SendBookingConfirmed(ctx, client.Email, client.Name, b.ID, b.TotalPrice)
		}
	}

	return b, nil
}

// UpdatePaymentStatus ставит любой валидный платёжный статус,
// история ведётся по полю payment_status.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actorID int64, actorRole string, bookingID int64, newStatus string) (*domain.Booking, error) {
	st := domain.PaymentStatus(newStatus)
	if !st.IsValid() {
		return nil, ErrInvalidStatus
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole != string(domain.RoleAdmin) && b.TrainerID != actorID {
		return nil, ErrForbidden
	}

	from := b.PaymentStatus
	b.PaymentStatus = st
	b.StatusHistory = b.StatusHistory.Append(domain.StatusChange{
		Field:         domain.StatusFieldPayment,
		From:          string(from),
		To:            string(st),
		ChangedBy:     actorID,
		ChangedByRole: domain.UserRole(actorRole),
		ChangedAt:     time.Now(),
	})

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.BookingPaymentChanged(ctx, b, string(from), string(st))
	}

	return b, nil
}

// CancelBooking отменяет бронь с обязательной причиной и каскадно
// снимает её запланированные сессии.
func (s *Service) CancelBooking(ctx context.Context, actorID int64, actorRole string, bookingID int64, reason string) (*domain.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole != string(domain.RoleAdmin) && b.ClientID != actorID && b.TrainerID != actorID {
		return nil, ErrForbidden
	}
	if b.IsTerminal() {
		return nil, ErrAlreadyFinished
	}

	now := time.Now()
	from := b.Status
	b.Status = domain.BookingCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.StatusHistory = b.StatusHistory.Append(domain.StatusChange{
		Field:         domain.StatusFieldStatus,
		From:          string(from),
		To:            string(domain.BookingCancelled),
		ChangedBy:     actorID,
		ChangedByRole: domain.UserRole(actorRole),
		Note:          reason,
		ChangedAt:     now,
	})

	all, err := s.sessions.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	cancelled := make([]domain.Session, 0, len(all))
	for _, sess := range all {
		if sess.Status != domain.SessionScheduled {
			continue
		}
		sess.Status = domain.SessionCancelled
		sess.StatusHistory = sess.StatusHistory.Append(domain.StatusChange{
			Field:         domain.StatusFieldStatus,
			From:          string(domain.SessionScheduled),
			To:            string(domain.SessionCancelled),
			ChangedBy:     actorID,
			ChangedByRole: domain.UserRole(actorRole),
			Note:          "booking cancelled",
			ChangedAt:     now,
		})
		cancelled = append(cancelled, sess)
	}

	if err := s.bookings.UpdateWithSessions(ctx, b, cancelled); err != nil {
		return nil, err
	}

	recipient := b.ClientID
	if actorID == b.ClientID {
		recipient = b.TrainerID
	}
	if s.notifs != nil {
		_ = s.notifs.NotifyBookingCancelled(ctx, recipient, b.ID, reason)
	}
	if s.events != nil {
		s.events.BookingCancelled(ctx, b, reason)
	}

	return b, nil
}

/* ---------- SESSIONS ---------- */

// GetTrainerSessions — занятость тренера на день: активные сессии,
// только время, длительность и статус.
func (s *Service) GetTrainerSessions(ctx context.Context, trainerID int64, dateStr string) ([]BusySlot, error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrValidation
	}

	rows, err := s.sessions.ListByTrainerOnDate(ctx, trainerID, day)
	if err != nil {
		return nil, err
	}

	out := make([]BusySlot, 0, len(rows))
	for _, sess := range rows {
		if sess.Status != domain.SessionScheduled && sess.Status != domain.SessionInProgress {
			continue
		}
		out = append(out, BusySlot{
			StartTime:       sess.StartTime,
			DurationMinutes: sess.DurationMinutes,
			Status:          string(sess.Status),
		})
	}
	return out, nil
}

// UpdateSessionStatus ставит статус сессии (семантика та же, без
// таблицы переходов). Когда завершается последняя незакрытая сессия
// брони, бронь автоматически помечается выполненной.
func (s *Service) UpdateSessionStatus(ctx context.Context, actorID int64, actorRole string, sessionID int64, newStatus string) (*domain.Session, error) {
	st := domain.SessionStatus(newStatus)
	if !st.IsValid() {
		return nil, ErrInvalidStatus
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actorRole != string(domain.RoleAdmin) && sess.TrainerID != actorID {
		return nil, ErrForbidden
	}

	b, err := s.bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := sess.Status
	sess.Status = st
	sess.StatusHistory = sess.StatusHistory.Append(domain.StatusChange{
		Field:         domain.StatusFieldStatus,
		From:          string(from),
		To:            string(st),
		ChangedBy:     actorID,
		ChangedByRole: domain.UserRole(actorRole),
		ChangedAt:     now,
	})

	completedBooking := false
	if st == domain.SessionCompleted && !b.IsTerminal() {
		open, err := s.sessions.CountOpenByBooking(ctx, sess.BookingID, sess.ID)
		if err != nil {
			return nil, err
		}
		if open == 0 {
			bookingFrom := b.Status
			b.Status = domain.BookingCompleted
			b.StatusHistory = b.StatusHistory.Append(domain.StatusChange{
				Field:         domain.StatusFieldStatus,
				From:          string(bookingFrom),
				To:            string(domain.BookingCompleted),
				ChangedBy:     actorID,
				ChangedByRole: domain.UserRole(actorRole),
				Note:          "all sessions completed",
				ChangedAt:     now,
			})

			// Сессия и флип брони уходят одной транзакцией
			batch := []domain.Session{*sess}
			if err := s.bookings.UpdateWithSessions(ctx, b, batch); err != nil {
				return nil, err
			}
			*sess = batch[0]
			completedBooking = true

			if s.notifs != nil {
				_ = s.notifs.NotifyBookingStatusChanged(ctx, b.ClientID, b.ID, domain.BookingCompleted)
			}
			if s.events != nil {
				s.events.BookingStatusChanged(ctx, b, string(bookingFrom), string(domain.BookingCompleted))
			}
		}
	}

	if !completedBooking {
		if err := s.sessions.Update(ctx, sess); err != nil {
			return nil, err
		}
	}

	if st == domain.SessionCancelled && s.notifs != nil {
		_ = s.notifs.NotifySessionCancelled(ctx, sess.ClientID, sess.BookingID, sess.ID)
	}
	if s.events != nil {
		s.events.SessionStatusChanged(ctx, b, sess.ID, string(from), string(st))
	}

	return sess, nil
}
