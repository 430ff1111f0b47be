package chat

import (
	"context"
	"strings"
	"testing"

	"fitmarket/internal/database"
	"fitmarket/internal/domain"
	"fitmarket/internal/modules/notification"
	"fitmarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc    *Service
	users  *repository.UserRepository
	chats  *repository.ChatRepository
	notifs *repository.NotificationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	users := repository.NewUserRepository(db)
	chats := repository.NewChatRepository(db)
	notifs := repository.NewNotificationRepository(db)

	svc := NewService(chats, users, notification.NewService(notifs))
	return &testEnv{svc: svc, users: users, chats: chats, notifs: notifs}
}

func (e *testEnv) seedUser(t *testing.T, email, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "x", Name: name, Role: domain.RoleClient, EmailVerified: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func TestGetOrCreateConversation_OnePerPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")

	conv, initial, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{
		RecipientID:    timur.ID,
		InitialMessage: "Здравствуйте! Есть ли окно в четверг?",
	})
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.NotNil(t, initial)
	assert.Equal(t, "Здравствуйте! Есть ли окно в четверг?", initial.Content)

	require.NotNil(t, conv.OtherUser)
	assert.Equal(t, "Тимур", conv.OtherUser.Name)

	// Повторный запрос с другой стороны пары возвращает тот же диалог
	again, _, err := env.svc.GetOrCreateConversation(ctx, timur.ID, CreateConversationRequest{RecipientID: anna.ID})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, "Анна", again.OtherUser.Name)

	convs, err := env.svc.GetUserConversations(ctx, anna.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestGetOrCreateConversation_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")

	_, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: anna.ID})
	assert.ErrorIs(t, err, ErrCannotMessageSelf)

	_, _, err = env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: 9999})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestSendMessage_ParticipantOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")
	stranger := env.seedUser(t, "stranger@example.com", "Посторонний")

	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	_, err = env.svc.SendMessage(ctx, stranger.ID, conv.ID, SendMessageRequest{Content: "впустите"})
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = env.svc.SendMessage(ctx, anna.ID, 9999, SendMessageRequest{Content: "привет"})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyContent)

	msg, err := env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: "привет"})
	require.NoError(t, err)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Анна", msg.Sender.Name)
}

func TestGetMessages_CursorPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")

	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	texts := []string{"раз", "два", "три", "четыре", "пять"}
	for _, txt := range texts {
		_, err := env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: txt})
		require.NoError(t, err)
	}

	// Первая страница: два самых новых, хронологический порядок
	page, hasMore, err := env.svc.GetMessages(ctx, timur.ID, conv.ID, 2, nil)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, page, 2)
	assert.Equal(t, "четыре", page[0].Content)
	assert.Equal(t, "пять", page[1].Content)
	require.NotNil(t, page[0].Sender)
	assert.Equal(t, "Анна", page[0].Sender.Name)

	// Курсор before_id уводит к более старым сообщениям
	older, hasMore, err := env.svc.GetMessages(ctx, timur.ID, conv.ID, 2, &page[0].ID)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, older, 2)
	assert.Equal(t, "два", older[0].Content)
	assert.Equal(t, "три", older[1].Content)

	first, hasMore, err := env.svc.GetMessages(ctx, timur.ID, conv.ID, 2, &older[0].ID)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, first, 1)
	assert.Equal(t, "раз", first[0].Content)

	_, _, err = env.svc.GetMessages(ctx, 9999, conv.ID, 10, nil)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkAsRead_UnreadCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")

	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: "тук-тук"})
		require.NoError(t, err)
	}

	convs, err := env.svc.GetUserConversations(ctx, timur.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 3, convs[0].UnreadCount)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "тук-тук", convs[0].LastMessage.Content)

	total, err := env.svc.GetTotalUnread(ctx, timur.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	// Свои сообщения в счётчик не входят
	totalAnna, err := env.svc.GetTotalUnread(ctx, anna.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, totalAnna)

	updated, err := env.svc.MarkAsRead(ctx, timur.ID, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	updated, err = env.svc.MarkAsRead(ctx, timur.ID, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	_, err = env.svc.MarkAsRead(ctx, 9999, conv.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestNotifyIfOffline_WritesNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "anna@example.com", "Анна")
	timur := env.seedUser(t, "timur@example.com", "Тимур")

	conv, _, err := env.svc.GetOrCreateConversation(ctx, anna.ID, CreateConversationRequest{RecipientID: timur.ID})
	require.NoError(t, err)

	long := strings.Repeat("очень длинное сообщение ", 10)
	msg, err := env.svc.SendMessage(ctx, anna.ID, conv.ID, SendMessageRequest{Content: long})
	require.NoError(t, err)

	require.NoError(t, env.svc.NotifyIfOffline(ctx, timur.ID, conv, msg))

	list, err := env.notifs.GetByUserID(ctx, timur.ID, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotifNewMessage, list[0].Type)
	assert.Contains(t, list[0].Message, "Анна")
	// Превью обрезано до 50 символов, без порванных рун
	assert.Contains(t, list[0].Message, "...")
	assert.Less(t, len([]rune(list[0].Message)), len([]rune("Анна: "))+60)
}
