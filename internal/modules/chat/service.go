package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fitmarket/internal/domain"
	"fitmarket/internal/modules/notification"
	"fitmarket/internal/repository"
)

var (
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrEmptyContent         = errors.New("message content cannot be empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrCannotMessageSelf    = errors.New("cannot send message to yourself")
)

type Service struct {
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
	notifs   *notification.Service
}

func NewService(
	chatRepo *repository.ChatRepository,
	userRepo *repository.UserRepository,
	notifs *notification.Service,
) *Service {
	return &Service{
		chatRepo: chatRepo,
		userRepo: userRepo,
		notifs:   notifs,
	}
}

// ============================================================
// CONVERSATIONS
// ============================================================

// GetOrCreateConversation возвращает существующий диалог пары
// пользователей или создаёт новый. На пару — ровно один диалог.
func (s *Service) GetOrCreateConversation(
	ctx context.Context,
	senderID int64,
	req CreateConversationRequest,
) (*domain.Conversation, *domain.Message, error) {

	if senderID == req.RecipientID {
		return nil, nil, ErrCannotMessageSelf
	}

	recipient, err := s.userRepo.GetByID(ctx, req.RecipientID)
	if err != nil || recipient == nil {
		return nil, nil, ErrRecipientNotFound
	}

	existing, err := s.chatRepo.GetConversationByParticipants(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	if existing != nil {
		var msg *domain.Message
		if strings.TrimSpace(req.InitialMessage) != "" {
			msg, _ = s.SendMessage(ctx, senderID, existing.ID, SendMessageRequest{Content: req.InitialMessage})
		}
		_ = s.enrichConversation(ctx, existing, senderID)
		return existing, msg, nil
	}

	participantA, participantB := domain.NormalizeParticipants(senderID, req.RecipientID)

	conv := &domain.Conversation{
		ParticipantA: participantA,
		ParticipantB: participantB,
		BookingID:    req.BookingID,
	}

	if err := s.chatRepo.CreateConversation(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	var msg *domain.Message
	if strings.TrimSpace(req.InitialMessage) != "" {
		msg, _ = s.SendMessage(ctx, senderID, conv.ID, SendMessageRequest{Content: req.InitialMessage})
	}

	_ = s.enrichConversation(ctx, conv, senderID)
	return conv, msg, nil
}

func (s *Service) GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	convs, err := s.chatRepo.GetUserConversations(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}

	for i := range convs {
		_ = s.enrichConversation(ctx, &convs[i], userID)
	}

	return convs, nil
}

func (s *Service) GetConversation(ctx context.Context, conversationID int64) (*domain.Conversation, error) {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil || conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *Service) IsParticipant(ctx context.Context, userID, conversationID int64) bool {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil || conv == nil {
		return false
	}
	return conv.HasParticipant(userID)
}

// GetTotalUnread — суммарный счётчик непрочитанных для badge в шапке.
func (s *Service) GetTotalUnread(ctx context.Context, userID int64) (int64, error) {
	return s.chatRepo.CountTotalUnread(ctx, userID)
}

func (s *Service) enrichConversation(ctx context.Context, conv *domain.Conversation, currentUserID int64) error {
	otherUser, _ := s.userRepo.GetByID(ctx, conv.Other(currentUserID))
	conv.OtherUser = otherUser

	last, _ := s.chatRepo.GetLastMessage(ctx, conv.ID)
	conv.LastMessage = last

	unread, _ := s.chatRepo.CountUnread(ctx, conv.ID, currentUserID)
	conv.UnreadCount = int(unread)

	return nil
}

// ============================================================
// MESSAGES
// ============================================================

func (s *Service) SendMessage(ctx context.Context, senderID, conversationID int64, req SendMessageRequest) (*domain.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil || conv == nil {
		return nil, ErrConversationNotFound
	}

	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
		MessageType:    domain.MessageTypeText,
	}

	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	_ = s.chatRepo.UpdateLastMessageAt(ctx, conversationID)

	sender, _ := s.userRepo.GetByID(ctx, senderID)
	msg.Sender = sender

	return msg, nil
}

func (s *Service) GetMessages(ctx context.Context, userID, conversationID int64, limit int, beforeID *int64) ([]domain.Message, bool, error) {
	if !s.IsParticipant(ctx, userID, conversationID) {
		return nil, false, ErrNotParticipant
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	msgs, err := s.chatRepo.GetMessages(ctx, conversationID, limit+1, beforeID)
	if err != nil {
		return nil, false, err
	}

	// Репозиторий отдаёт хронологический порядок: лишний элемент —
	// самый старый, отбрасываем его с начала.
	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[1:]
	}

	senderIDs := make([]int64, 0, 2)
	seen := make(map[int64]bool)
	for i := range msgs {
		if !seen[msgs[i].SenderID] {
			seen[msgs[i].SenderID] = true
			senderIDs = append(senderIDs, msgs[i].SenderID)
		}
	}
	senders, _ := s.userRepo.GetByIDs(ctx, senderIDs)
	for i := range msgs {
		msgs[i].Sender = senders[msgs[i].SenderID]
	}

	return msgs, hasMore, nil
}

func (s *Service) MarkAsRead(ctx context.Context, userID, conversationID int64) (int64, error) {
	if !s.IsParticipant(ctx, userID, conversationID) {
		return 0, ErrNotParticipant
	}
	return s.chatRepo.MarkMessagesAsRead(ctx, conversationID, userID)
}

// ============================================================
// NOTIFICATIONS
// ============================================================

// NotifyIfOffline создаёт уведомление для получателя, которому
// сообщение не было доставлено по WebSocket.
func (s *Service) NotifyIfOffline(
	ctx context.Context,
	recipientID int64,
	conversation *domain.Conversation,
	message *domain.Message,
) error {
	if s.notifs == nil {
		return nil
	}

	sender := message.Sender
	if sender == nil {
		var err error
		sender, err = s.userRepo.GetByID(ctx, message.SenderID)
		if err != nil {
			return err
		}
	}

	preview := message.Content
	if len([]rune(preview)) > 50 {
		preview = string([]rune(preview)[:50]) + "..."
	}

	return s.notifs.NotifyNewMessage(ctx, recipientID, conversation.ID, sender.Name, preview)
}
