package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client — одно активное WebSocket-соединение.
// Запись в conn сериализуется через mu: gorilla/websocket
// не допускает конкурентных вызовов WriteJSON.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub хранит активные соединения, по одному на пользователя.
type Hub struct {
	clients map[int64]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]*client),
	}
}

// Register привязывает соединение к пользователю.
// Старое соединение того же пользователя закрывается.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.clients[userID]; exists && old != nil {
		_ = old.conn.Close()
	}

	h.clients[userID] = &client{conn: conn}
}

func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	// Не трогаем чужое соединение: пользователь мог успеть
	// переподключиться, тогда в карте уже новый conn.
	if cl, exists := h.clients[userID]; exists && cl != nil && cl.conn == conn {
		_ = cl.conn.Close()
		delete(h.clients, userID)
	}
}

// SendToUser отправляет событие пользователю, если он онлайн.
// Возвращает true при успешной доставке.
func (h *Hub) SendToUser(userID int64, message interface{}) bool {
	h.mutex.RLock()
	cl, exists := h.clients[userID]
	h.mutex.RUnlock()

	if !exists || cl == nil {
		return false
	}

	if err := cl.writeJSON(message); err != nil {
		h.Unregister(userID, cl.conn)
		return false
	}

	return true
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// BroadcastMessage доставляет событие обоим участникам диалога.
// Возвращает true если получатель был онлайн.
func (h *Hub) BroadcastMessage(senderID, recipientID int64, message interface{}) bool {
	_ = h.SendToUser(senderID, message)
	return h.SendToUser(recipientID, message)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, cl := range h.clients {
		if cl != nil {
			_ = cl.conn.Close()
		}
		delete(h.clients, userID)
	}
}
