package config

import (
	"strings"
)

const (
	defaultPort          = "8080"
	defaultKafkaTopic    = "fitmarket.bookings"
	defaultMailFromName  = "FitMarket"
	defaultMailFromEmail = "no-reply@fitmarket.kz"
)

// AppConfig — конфигурация процесса cmd/api, не относящаяся к auth.
type AppConfig struct {
	Port        string
	DatabaseDSN string

	// Kafka: пустой список брокеров выключает публикацию событий
	KafkaBrokers       []string
	KafkaBookingsTopic string
	KafkaDLQTopic      string

	// Почта: без API-ключа используется консольный mailer
	SendGridAPIKey string
	MailFromName   string
	MailFromEmail  string
	DevMailEcho    bool
}

func LoadAppConfig() *AppConfig {
	cfg := &AppConfig{
		Port:               strings.TrimSpace(getEnv("PORT", defaultPort)),
		DatabaseDSN:        strings.TrimSpace(getEnv("DATABASE_URL", "")),
		KafkaBookingsTopic: strings.TrimSpace(getEnv("KAFKA_TOPIC_BOOKINGS", defaultKafkaTopic)),
		KafkaDLQTopic:      strings.TrimSpace(getEnv("KAFKA_TOPIC_DLQ", "")),
		SendGridAPIKey:     strings.TrimSpace(getEnv("SENDGRID_API_KEY", "")),
		MailFromName:       strings.TrimSpace(getEnv("MAIL_FROM_NAME", defaultMailFromName)),
		MailFromEmail:      strings.TrimSpace(getEnv("MAIL_FROM_EMAIL", defaultMailFromEmail)),
		DevMailEcho:        parseBoolEnv("DEV_MAIL_ECHO", "true"),
	}

	if brokers := strings.TrimSpace(getEnv("KAFKA_BROKERS", "")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			b = strings.TrimSpace(b)
			if b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}
