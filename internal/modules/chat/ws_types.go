package chat

// WSClientMessage — входящий кадр от клиента.
//
// Типы: message, typing, read, ping.
type WSClientMessage struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
	IsTyping       bool   `json:"is_typing,omitempty"`
}

// WSServerMessage — исходящий кадр сервера.
type WSServerMessage struct {
	Type           string           `json:"type"`
	ConversationID int64            `json:"conversation_id,omitempty"`
	Message        *MessageResponse `json:"message,omitempty"`
	UserID         int64            `json:"user_id,omitempty"`
	IsTyping       bool             `json:"is_typing,omitempty"`
	Error          *WSError         `json:"error,omitempty"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewMessageEvent(conversationID int64, msg *MessageResponse) *WSServerMessage {
	return &WSServerMessage{
		Type:           "new_message",
		ConversationID: conversationID,
		Message:        msg,
	}
}

func NewTypingEvent(conversationID, userID int64, isTyping bool) *WSServerMessage {
	return &WSServerMessage{
		Type:           "typing",
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	}
}

func NewReadEvent(conversationID, userID int64) *WSServerMessage {
	return &WSServerMessage{
		Type:           "read",
		ConversationID: conversationID,
		UserID:         userID,
	}
}

func NewPongEvent() *WSServerMessage {
	return &WSServerMessage{Type: "pong"}
}

func NewErrorEvent(code, message string) *WSServerMessage {
	return &WSServerMessage{
		Type:  "error",
		Error: &WSError{Code: code, Message: message},
	}
}
