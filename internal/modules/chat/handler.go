package chat

import (
	"errors"
	"net/http"
	"strconv"

	"fitmarket/internal/domain"
	"fitmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	hub     *Hub
}

func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// RegisterRoutes registers chat routes under protected group (JWT required).
// WebSocket endpoint регистрируется отдельно: аутентификация там
// через query token, а не через Authorization header.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	chatGroup := rg.Group("/chat")
	{
		chatGroup.POST("/conversations", h.CreateConversation)
		chatGroup.GET("/conversations", h.ListConversations)
		chatGroup.GET("/unread", h.GetUnreadCount)

		chatGroup.GET("/conversations/:id/messages", h.GetMessages)
		chatGroup.POST("/conversations/:id/messages", h.SendMessage)
		chatGroup.POST("/conversations/:id/read", h.MarkAsRead)
	}
}

// CreateConversation создаёт диалог с другим пользователем
//
// @Summary Создать диалог
// @Description Создаёт диалог с другим пользователем или возвращает существующий. На пару пользователей — один диалог
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateConversationRequest true "Данные для создания диалога"
// @Success 201 {object} map[string]interface{} "Диалог создан или найден"
// @Failure 400 {object} map[string]string "Ошибка валидации или создания диалога"
// @Router /chat/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	conv, initialMsg, err := h.service.GetOrCreateConversation(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "CHAT_ERROR", err.Error())
		return
	}

	if initialMsg != nil {
		h.deliver(c, conv.Other(userID), conv, initialMsg)
	}

	resp := ToConversationResponse(conv, userID)
	out := gin.H{"conversation": resp}
	if initialMsg != nil {
		out["initial_message"] = ToMessageResponse(initialMsg)
	}

	response.Success(c, http.StatusCreated, out)
}

// ListConversations возвращает список диалогов пользователя
//
// @Summary Получить список диалогов
// @Description Список диалогов текущего пользователя, новые сообщения сверху
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Максимальное количество диалогов" default(20)
// @Param offset query int false "Смещение от начала" default(0)
// @Success 200 {object} map[string]interface{} "Список диалогов"
// @Failure 500 {object} map[string]string "Ошибка при получении диалогов"
// @Router /chat/conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	convs, err := h.service.GetUserConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_ERROR", err.Error())
		return
	}

	items := make([]*ConversationResponse, 0, len(convs))
	for i := range convs {
		items = append(items, ToConversationResponse(&convs[i], userID))
	}

	response.Success(c, http.StatusOK, gin.H{"conversations": items})
}

// GetUnreadCount возвращает суммарное число непрочитанных сообщений
//
// @Summary Счётчик непрочитанных
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Количество непрочитанных сообщений"
// @Router /chat/unread [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID := c.GetInt64("user_id")

	count, err := h.service.GetTotalUnread(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// GetMessages получает сообщения из диалога
//
// @Summary Получить сообщения диалога
// @Description Сообщения диалога в хронологическом порядке, пагинация через before_id
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int64 true "ID диалога"
// @Param limit query int false "Максимальное количество сообщений" default(50)
// @Param before_id query int64 false "ID сообщения для загрузки более старых"
// @Success 200 {object} map[string]interface{} "Список сообщений и флаг has_more"
// @Failure 403 {object} map[string]string "Пользователь не участник диалога"
// @Router /chat/conversations/{id}/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var beforeID *int64
	if v := c.Query("before_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "before_id must be integer")
			return
		}
		beforeID = &id
	}

	msgs, hasMore, err := h.service.GetMessages(c.Request.Context(), userID, conversationID, limit, beforeID)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			response.Error(c, http.StatusForbidden, "NOT_PARTICIPANT", err.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, "CHAT_ERROR", err.Error())
		return
	}

	out := make([]*MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ToMessageResponse(&msgs[i]))
	}

	response.Success(c, http.StatusOK, gin.H{
		"messages": out,
		"has_more": hasMore,
	})
}

// SendMessage отправляет сообщение в диалог
//
// @Summary Отправить сообщение
// @Description Отправляет текстовое сообщение. Онлайн-получателю доставляется по WebSocket, офлайн-получателю создаётся уведомление
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int64 true "ID диалога"
// @Param request body SendMessageRequest true "Содержимое сообщения"
// @Success 201 {object} map[string]interface{} "Сообщение отправлено"
// @Failure 403 {object} map[string]string "Пользователь не участник диалога"
// @Failure 404 {object} map[string]string "Диалог не найден"
// @Router /chat/conversations/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), userID, conversationID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotParticipant):
			response.Error(c, http.StatusForbidden, "NOT_PARTICIPANT", err.Error())
		case errors.Is(err, ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			response.Error(c, http.StatusBadRequest, "CHAT_ERROR", err.Error())
		}
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), conversationID)
	if err == nil {
		h.deliver(c, conv.Other(userID), conv, msg)
	}

	response.Success(c, http.StatusCreated, gin.H{"message": ToMessageResponse(msg)})
}

// MarkAsRead отмечает сообщения в диалоге как прочитанные
//
// @Summary Отметить сообщения как прочитанные
// @Description Отмечает все непрочитанные сообщения диалога как прочитанные для текущего пользователя
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int64 true "ID диалога"
// @Success 200 {object} map[string]interface{} "Количество отмеченных сообщений"
// @Failure 403 {object} map[string]string "Пользователь не участник диалога"
// @Router /chat/conversations/{id}/read [post]
func (h *Handler) MarkAsRead(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	updated, err := h.service.MarkAsRead(c.Request.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			response.Error(c, http.StatusForbidden, "NOT_PARTICIPANT", err.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, "CHAT_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// deliver пытается доставить сообщение обоим участникам по WebSocket.
// Если получатель офлайн — пишет ему уведомление.
func (h *Handler) deliver(c *gin.Context, recipientID int64, conv *domain.Conversation, msg *domain.Message) {
	delivered := false
	if h.hub != nil {
		event := NewMessageEvent(conv.ID, ToMessageResponse(msg))
		delivered = h.hub.BroadcastMessage(msg.SenderID, recipientID, event)
	}
	if !delivered {
		_ = h.service.NotifyIfOffline(c.Request.Context(), recipientID, conv, msg)
	}
}
