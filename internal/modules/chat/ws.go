package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"fitmarket/internal/pkg/jwt"
	"fitmarket/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Разрешаем подключения с любого origin (для dev)
	// В production заменить на проверку origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsSendPayload — поля кадра type=message, проверяются валидатором.
type wsSendPayload struct {
	ConversationID int64  `validate:"required,gt=0"`
	Content        string `validate:"required,max=4000"`
}

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
	service    *Service
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service, service *Service) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		service:    service,
	}
}

// RegisterRoutes вешает WS-эндпоинт на публичную группу:
// браузерный WebSocket API не умеет ставить Authorization header,
// поэтому токен приходит query-параметром и проверяется здесь.
func (h *WSHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat/ws", h.HandleWebSocket)
}

// HandleWebSocket обрабатывает WebSocket подключение
//
// Endpoint: GET /chat/ws?token=JWT_TOKEN
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required. Use ?token=YOUR_JWT_TOKEN",
		})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}

	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, conn)
	log.Printf("chat: user %d connected", userID)

	defer func() {
		h.hub.Unregister(userID, conn)
		log.Printf("chat: user %d disconnected", userID)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(conn)

	h.readLoop(conn, userID)
}

// pingLoop держит соединение живым. WriteControl допускает
// конкурентную запись, поэтому hub здесь не нужен.
func pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return
		}
	}
}

// readLoop читает кадры от клиента до разрыва соединения
func (h *WSHandler) readLoop(conn *websocket.Conn, userID int64) {
	for {
		_, rawMsg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("chat: websocket error for user %d: %v", userID, err)
			}
			return
		}

		var msg WSClientMessage
		if err := json.Unmarshal(rawMsg, &msg); err != nil {
			h.sendError(userID, "INVALID_JSON", "Failed to parse message")
			continue
		}

		switch msg.Type {
		case "message":
			h.handleMessage(userID, msg)
		case "typing":
			h.handleTyping(userID, msg)
		case "read":
			h.handleRead(userID, msg)
		case "ping":
			h.hub.SendToUser(userID, NewPongEvent())
		default:
			h.sendError(userID, "UNKNOWN_TYPE", "Unknown message type: "+msg.Type)
		}
	}
}

// handleMessage — отправка сообщения через WebSocket
func (h *WSHandler) handleMessage(senderID int64, msg WSClientMessage) {
	ctx := context.Background()

	payload := wsSendPayload{
		ConversationID: msg.ConversationID,
		Content:        msg.Content,
	}
	if errs := validator.Validate(payload); errs != nil {
		h.sendError(senderID, "VALIDATION_ERROR", fmt.Sprintf("invalid payload: %v", errs))
		return
	}

	newMsg, err := h.service.SendMessage(ctx, senderID, msg.ConversationID,
		SendMessageRequest{Content: msg.Content})
	if err != nil {
		h.sendError(senderID, "SEND_FAILED", err.Error())
		return
	}

	conv, err := h.service.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return
	}

	recipientID := conv.Other(senderID)
	event := NewMessageEvent(msg.ConversationID, ToMessageResponse(newMsg))

	// Отправителю — подтверждение, получателю — доставка
	delivered := h.hub.BroadcastMessage(senderID, recipientID, event)

	if !delivered {
		_ = h.service.NotifyIfOffline(ctx, recipientID, conv, newMsg)
	}
}

// handleTyping — индикатор "печатает"
func (h *WSHandler) handleTyping(userID int64, msg WSClientMessage) {
	ctx := context.Background()

	if msg.ConversationID <= 0 {
		return
	}

	conv, err := h.service.GetConversation(ctx, msg.ConversationID)
	if err != nil || !conv.HasParticipant(userID) {
		return
	}

	event := NewTypingEvent(msg.ConversationID, userID, msg.IsTyping)
	h.hub.SendToUser(conv.Other(userID), event)
}

// handleRead — отметка "прочитано"
func (h *WSHandler) handleRead(userID int64, msg WSClientMessage) {
	ctx := context.Background()

	if msg.ConversationID <= 0 {
		return
	}

	if _, err := h.service.MarkAsRead(ctx, userID, msg.ConversationID); err != nil {
		return
	}

	conv, err := h.service.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return
	}

	event := NewReadEvent(msg.ConversationID, userID)
	h.hub.SendToUser(conv.Other(userID), event)
}

func (h *WSHandler) sendError(userID int64, code, message string) {
	h.hub.SendToUser(userID, NewErrorEvent(code, message))
}
