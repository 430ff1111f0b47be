package chat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitmarket/internal/domain"
	"fitmarket/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEnv struct {
	*testEnv
	srv *httptest.Server
	jwt *jwt.Service
	hub *Hub
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := newTestEnv(t)
	hub := NewHub()
	jwtSvc := jwt.New("test-secret", time.Hour)

	router := gin.New()
	NewWSHandler(hub, jwtSvc, env.svc).RegisterRoutes(router.Group("/api/v1"))

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &wsEnv{testEnv: env, srv: srv, jwt: jwtSvc, hub: hub}
}

func (w *wsEnv) wsURL(token string) string {
	return "ws" + strings.TrimPrefix(w.srv.URL, "http") + "/api/v1/chat/ws?token=" + token
}

func (w *wsEnv) dial(t *testing.T, userID int64) *websocket.Conn {
	t.Helper()

	token, err := w.jwt.GenerateToken(userID, "client")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(w.wsURL(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) WSServerMessage {
	t.Helper()
	var ev WSServerMessage
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebSocket_RequiresToken(t *testing.T) {
	env := newWSEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(env.wsURL("not-a-jwt"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWebSocket_MessageRoundTrip(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")
	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	annaConn := env.dial(t, anna.ID)
	timurConn := env.dial(t, timur.ID)

	require.NoError(t, annaConn.WriteJSON(WSClientMessage{
		Type:           "message",
		ConversationID: conv.ID,
		Content:        "До встречи в зале!",
	}))

	// Получатель видит новое сообщение
	got := readEvent(t, timurConn)
	assert.Equal(t, "new_message", got.Type)
	assert.Equal(t, conv.ID, got.ConversationID)
	require.NotNil(t, got.Message)
	assert.Equal(t, "До встречи в зале!", got.Message.Content)
	assert.Equal(t, anna.ID, got.Message.SenderID)
	require.NotNil(t, got.Message.Sender)
	assert.Equal(t, "Анна", got.Message.Sender.Name)

	// Отправитель получает подтверждение тем же событием
	echo := readEvent(t, annaConn)
	assert.Equal(t, "new_message", echo.Type)

	// Доставлено по WebSocket — уведомление не создаётся
	list, err := env.notifs.GetByUserID(ctx, timur.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWebSocket_OfflineRecipientGetsNotification(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")
	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	annaConn := env.dial(t, anna.ID)

	require.NoError(t, annaConn.WriteJSON(WSClientMessage{
		Type:           "message",
		ConversationID: conv.ID,
		Content:        "Вы завтра свободны?",
	}))

	echo := readEvent(t, annaConn)
	assert.Equal(t, "new_message", echo.Type)

	require.Eventually(t, func() bool {
		list, err := env.notifs.GetByUserID(ctx, timur.ID, 10)
		return err == nil && len(list) == 1
	}, 2*time.Second, 20*time.Millisecond)

	list, err := env.notifs.GetByUserID(ctx, timur.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.NotifNewMessage, list[0].Type)
	assert.Contains(t, list[0].Message, "Анна")
	assert.Contains(t, list[0].Message, "Вы завтра свободны?")
}

func TestWebSocket_TypingAndRead(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")
	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	_, err = env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: "Пишу вам"})
	require.NoError(t, err)

	annaConn := env.dial(t, anna.ID)
	timurConn := env.dial(t, timur.ID)

	require.NoError(t, annaConn.WriteJSON(WSClientMessage{
		Type:           "typing",
		ConversationID: conv.ID,
		IsTyping:       true,
	}))

	typing := readEvent(t, timurConn)
	assert.Equal(t, "typing", typing.Type)
	assert.Equal(t, anna.ID, typing.UserID)
	assert.True(t, typing.IsTyping)

	require.NoError(t, timurConn.WriteJSON(WSClientMessage{
		Type:           "read",
		ConversationID: conv.ID,
	}))

	read := readEvent(t, annaConn)
	assert.Equal(t, "read", read.Type)
	assert.Equal(t, timur.ID, read.UserID)

	require.Eventually(t, func() bool {
		unread, err := env.svc.GetTotalUnread(ctx, timur.ID)
		return err == nil && unread == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWebSocket_BadFrames(t *testing.T) {
	env := newWSEnv(t)

	anna := env.seedUser(t, "anna@example.com", "Анна")
	conn := env.dial(t, anna.ID)

	// Невалидный JSON
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
	ev := readEvent(t, conn)
	assert.Equal(t, "error", ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, "INVALID_JSON", ev.Error.Code)

	// Кадр message без conversation_id и content
	require.NoError(t, conn.WriteJSON(WSClientMessage{Type: "message"}))
	ev = readEvent(t, conn)
	assert.Equal(t, "error", ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, "VALIDATION_ERROR", ev.Error.Code)

	// Неизвестный тип
	require.NoError(t, conn.WriteJSON(WSClientMessage{Type: "dance"}))
	ev = readEvent(t, conn)
	assert.Equal(t, "error", ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, "UNKNOWN_TYPE", ev.Error.Code)

	// Прикладной ping
	require.NoError(t, conn.WriteJSON(WSClientMessage{Type: "ping"}))
	ev = readEvent(t, conn)
	assert.Equal(t, "pong", ev.Type)
}
