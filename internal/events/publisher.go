package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"fitmarket/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Publisher пишет события броней в Kafka.
// Nil-publisher допустим: все методы превращаются в no-op, так что
// сервисы не обязаны проверять, включена ли Kafka.
type Publisher struct {
	writer *kafka.Writer
	dlq    *kafka.Writer
	source string
}

func NewPublisher(brokers []string, topic, dlqTopic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}

	p := &Publisher{
		writer: newWriter(brokers, topic),
		source: "fitmarket-api",
	}
	if dlqTopic != "" {
		p.dlq = newWriter(brokers, dlqTopic)
	}
	return p
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key = booking_id, порядок внутри брони
		RequiredAcks: kafka.RequireAll,
		Compression:  compress.Snappy,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.dlq != nil {
		_ = p.dlq.Close()
	}
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func (p *Publisher) BookingCreated(ctx context.Context, b *domain.Booking) {
	p.publish(ctx, baseEvent(TypeBookingCreated, b))
}

func (p *Publisher) BookingStatusChanged(ctx context.Context, b *domain.Booking, from, to string) {
	e := baseEvent(TypeBookingStatusChanged, b)
	e.Field = domain.StatusFieldStatus
	e.From = from
	e.To = to
	p.publish(ctx, e)
}

func (p *Publisher) BookingPaymentChanged(ctx context.Context, b *domain.Booking, from, to string) {
	e := baseEvent(TypeBookingPaymentChanged, b)
	e.Field = domain.StatusFieldPayment
	e.From = from
	e.To = to
	p.publish(ctx, e)
}

func (p *Publisher) BookingCancelled(ctx context.Context, b *domain.Booking, reason string) {
	e := baseEvent(TypeBookingCancelled, b)
	e.Reason = reason
	p.publish(ctx, e)
}

func (p *Publisher) SessionStatusChanged(ctx context.Context, b *domain.Booking, sessionID int64, from, to string) {
	e := baseEvent(TypeSessionStatusChanged, b)
	e.SessionID = &sessionID
	e.Field = domain.StatusFieldStatus
	e.From = from
	e.To = to
	p.publish(ctx, e)
}

// publish никогда не возвращает ошибку наружу: поток событий
// вторичен по отношению к основному сценарию, сбой только логируем.
func (p *Publisher) publish(ctx context.Context, e BookingEvent) {
	if p == nil || p.writer == nil {
		return
	}

	value, err := json.Marshal(e)
	if err != nil {
		log.Printf("events: marshal failed event_type=%s booking_id=%d err=%v", e.EventType, e.BookingID, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.BookingID, 10)),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(e.EventID)},
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderSource, Value: []byte(p.source)},
			{Key: HeaderSchemaVersion, Value: []byte(SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish failed event_type=%s booking_id=%d err=%v", e.EventType, e.BookingID, err)
		p.toDLQ(ctx, msg, err)
	}
}

// toDLQ уводит недоставленное сообщение в DLQ-топик, если он настроен.
func (p *Publisher) toDLQ(ctx context.Context, msg kafka.Message, cause error) {
	if p.dlq == nil {
		return
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: "error", Value: []byte(cause.Error())})
	if err := p.dlq.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: dlq publish failed err=%v", err)
	}
}

func baseEvent(eventType string, b *domain.Booking) BookingEvent {
	return BookingEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		BookingID:     b.ID,
		ClientID:      b.ClientID,
		TrainerID:     b.TrainerID,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		TotalPrice:    b.TotalPrice,
	}
}
