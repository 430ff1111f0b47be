package domain

import "time"

// MessageType определяет тип сообщения
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	// MessageTypeSystem — системное уведомление
	MessageTypeSystem MessageType = "system"
)

// Conversation представляет диалог между двумя пользователями
// Может быть привязан к конкретному бронированию
type Conversation struct {
	// ID диалога
	ID int64 `json:"id" gorm:"primaryKey"`

	// Участник A (всегда ID меньше чем B)
	// Это правило упрощает поиск существующего диалога
	ParticipantA int64 `json:"participant_a" gorm:"not null;uniqueIndex:idx_participants"`

	// Участник B
	ParticipantB int64 `json:"participant_b" gorm:"not null;uniqueIndex:idx_participants"`

	// ID бронирования (опционально)
	// Если заполнено — диалог о конкретной брони
	BookingID *int64 `json:"booking_id,omitempty"`

	// Используется для сортировки списка диалогов
	LastMessageAt time.Time `json:"last_message_at" gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt     time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`

	// ========== Виртуальные поля (не в БД) ==========
	// Эти поля заполняются в Service, не хранятся в БД

	// Другой участник диалога (для отображения в списке)
	OtherUser *User `json:"other_user,omitempty" gorm:"-"`

	// Последнее сообщение (для preview в списке)
	LastMessage *Message `json:"last_message,omitempty" gorm:"-"`

	// Количество непрочитанных сообщений
	UnreadCount int `json:"unread_count" gorm:"-"`
}

// TableName указывает GORM имя таблицы
func (Conversation) TableName() string {
	return "conversations"
}

// Other возвращает ID второго участника диалога.
func (c *Conversation) Other(userID int64) int64 {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// HasParticipant проверяет, состоит ли пользователь в диалоге.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Message представляет одно сообщение в диалоге
type Message struct {
	// ID сообщения
	ID int64 `json:"id" gorm:"primaryKey"`

	ConversationID int64 `json:"conversation_id" gorm:"not null;index"`

	SenderID int64 `json:"sender_id" gorm:"not null"`

	// Текст сообщения
	Content string `json:"content" gorm:"not null"`

	// Тип сообщения: text, image, system
	MessageType MessageType `json:"message_type" gorm:"default:'text'"`

	// Прочитано ли сообщение получателем
	IsRead bool `json:"is_read" gorm:"default:false"`

	// Когда было прочитано
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Дата отправки
	CreatedAt time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`

	// Информация об отправителе (не в БД)
	Sender *User `json:"sender,omitempty" gorm:"-"`
}

// TableName указывает GORM имя таблицы
func (Message) TableName() string {
	return "messages"
}

// NormalizeParticipants возвращает пару (a, b) с a < b.
func NormalizeParticipants(x, y int64) (int64, int64) {
	if x > y {
		return y, x
	}
	return x, y
}
