package mailer

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridMailer отправляет письма через SendGrid API.
type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendGridMailer(apiKey, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:  apiKey,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *SendGridMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	subject := "Подтверждение email"
	text := fmt.Sprintf("Ваш код подтверждения: %s\nКод действует 5 минут.", code)
	return m.send(ctx, email, subject, text)
}

func (m *SendGridMailer) SendBookingReceived(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error {
	subject := "Заявка на бронирование принята"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nМы получили вашу заявку #%d и передали её тренеру.\nПредварительная стоимость: %.2f ₸.\nТренер подтвердит бронирование в ближайшее время.", name, bookingID, totalPrice)
	return m.send(ctx, email, subject, text)
}

func (m *SendGridMailer) SendBookingConfirmed(ctx context.Context, email, name string, bookingID int64, totalPrice float64) error {
	subject := "Бронирование подтверждено"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nВаше бронирование #%d подтверждено тренером.\nИтоговая стоимость: %.2f ₸.", name, bookingID, totalPrice)
	return m.send(ctx, email, subject, text)
}

func (m *SendGridMailer) send(_ context.Context, to, subject, text string) error {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", to))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", text))

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Printf("sendgrid error status=%d body=%s", res.StatusCode, res.Body)
		return fmt.Errorf("sendgrid: unexpected status %d", res.StatusCode)
	}
	return nil
}
