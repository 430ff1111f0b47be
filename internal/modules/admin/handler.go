package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fitmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// trainers moderation
	admin.GET("/trainers/pending", h.GetPendingTrainers)
	admin.POST("/trainers/:id/verify", h.VerifyTrainer)
	admin.POST("/trainers/:id/reject", h.RejectTrainer)

	// users moderation
	admin.GET("/users", h.GetUsers)
	admin.POST("/users/:id/block", h.BlockUser)
	admin.POST("/users/:id/unblock", h.UnblockUser)

	// statistics
	admin.GET("/stats", h.GetStats)
}

// GetPendingTrainers получает список заявок тренеров, ожидающих модерации.
// @Summary		Получить заявки тренеров
// @Description	Возвращает постраничный список анкет тренеров, которые ждут одобрения от администратора. Доступно только для администраторов.
// @Tags		Admin - Модерация тренеров
// @Security	BearerAuth
// @Param		page	query	int		false	"Номер страницы (по умолчанию 1)"	default(1)
// @Param		limit	query	int		false	"Количество записей на странице (по умолчанию 20)"	default(20)
// @Success		200	{object}		map[string]interface{} "Список заявок"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		500	{object}		map[string]interface{} "Ошибка сервера при получении данных"
// @Router		/admin/trainers/pending [GET]
func (h *Handler) GetPendingTrainers(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), 20)

	rows, total, err := h.service.GetPendingTrainers(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pending_trainers": rows,
		"count":            total,
	})
}

// VerifyTrainer одобряет заявку тренера.
// @Summary		Одобрить тренера
// @Description	Одобряет анкету тренера. После одобрения анкета появится в каталоге, тренер получит уведомление.
// @Tags		Admin - Модерация тренеров
// @Security	BearerAuth
// @Param		id		path	int						true	"ID пользователя-тренера"
// @Param		request	body	VerifyTrainerRequest	false	"Заметки администратора (admin_notes)"
// @Success		200	{object}	interface{} "Анкета успешно одобрена"
// @Failure		400	{object}		map[string]interface{} "Ошибка: неверный ID или заявка не в статусе pending"
// @Failure		401	{object}		map[string]interface{} "Ошибка аутентификации"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		404	{object}		map[string]interface{} "Тренер или анкета не найдены"
// @Router		/admin/trainers/:id/verify [POST]
func (h *Handler) VerifyTrainer(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	adminID := c.GetInt64("user_id")
	if adminID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	trainerUserID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid trainer ID")
		return
	}

	// тело опционально: admin_notes можно не передавать
	var req VerifyTrainerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	log.Printf("admin action: VerifyTrainer admin_id=%d trainer_user_id=%d notes=%q", adminID, trainerUserID, req.AdminNotes)

	profile, err := h.service.VerifyTrainer(c.Request.Context(), trainerUserID, adminID, req.AdminNotes)
	if err != nil {
		switch {
		case isNotFound(err):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Trainer not found")
		case errors.Is(err, ErrNotPending):
			response.Error(c, http.StatusBadRequest, "VERIFY_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// RejectTrainer отклоняет заявку тренера.
// @Summary		Отклонить заявку тренера
// @Description	Отклоняет анкету тренера с указанием причины. Тренер сможет исправить анкету и подать заявку повторно.
// @Tags		Admin - Модерация тренеров
// @Security	BearerAuth
// @Param		id		path	int						true	"ID пользователя-тренера"
// @Param		request	body	RejectTrainerRequest	true	"Причина отклонения заявки"
// @Success		200	{object}		map[string]interface{} "Заявка успешно отклонена"
// @Failure		400	{object}		map[string]interface{} "Ошибка: неверный ID или отсутствует причина"
// @Failure		401	{object}		map[string]interface{} "Ошибка аутентификации"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		404	{object}		map[string]interface{} "Тренер или анкета не найдены"
// @Router		/admin/trainers/:id/reject [POST]
func (h *Handler) RejectTrainer(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	adminID := c.GetInt64("user_id")
	if adminID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	trainerUserID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid trainer ID")
		return
	}

	var req RejectTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reason is required")
		return
	}

	log.Printf("admin action: RejectTrainer admin_id=%d trainer_user_id=%d reason=%q", adminID, trainerUserID, req.Reason)

	if _, err := h.service.RejectTrainer(c.Request.Context(), trainerUserID, adminID, req.Reason); err != nil {
		switch {
		case isNotFound(err):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Trainer not found")
		case errors.Is(err, ErrNotPending), errors.Is(err, ErrReasonRequired):
			response.Error(c, http.StatusBadRequest, "REJECT_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Application rejected"})
}

// -------------------- Users --------------------

// BlockUser блокирует пользователя на платформе.
// @Summary		Заблокировать пользователя
// @Description	Блокирует пользователя с указанной причиной. Заблокированный пользователь не пройдёт логин и refresh, но его данные сохраняются.
// @Tags		Admin - Управление пользователями
// @Security	BearerAuth
// @Param		id		path	int					true	"ID пользователя"
// @Param		request	body	BlockUserRequest	true	"Причина блокировки"
// @Success		200	{object}	interface{} "Пользователь успешно заблокирован"
// @Failure		400	{object}		map[string]interface{} "Ошибка: неверный ID пользователя или отсутствует причина"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		404	{object}		map[string]interface{} "Пользователь не найден"
// @Router		/admin/users/:id/block [POST]
func (h *Handler) BlockUser(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	userID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	var req BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reason is required")
		return
	}

	log.Printf("admin action: BlockUser user_id=%d reason=%q", userID, req.Reason)

	u, err := h.service.BlockUser(c.Request.Context(), userID, req.Reason)
	if err != nil {
		switch {
		case isNotFound(err):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, ErrCannotBanAdmin), errors.Is(err, ErrReasonRequired):
			response.Error(c, http.StatusBadRequest, "BAN_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, u)
}

// UnblockUser разблокирует ранее заблокированного пользователя.
// @Summary		Разблокировать пользователя
// @Description	Восстанавливает доступ заблокированного пользователя к платформе.
// @Tags		Admin - Управление пользователями
// @Security	BearerAuth
// @Param		id	path	int	true	"ID пользователя"
// @Success		200	{object}	interface{} "Пользователь успешно разблокирован"
// @Failure		400	{object}		map[string]interface{} "Ошибка: неверный ID пользователя"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		404	{object}		map[string]interface{} "Пользователь не найден"
// @Router		/admin/users/:id/unblock [POST]
func (h *Handler) UnblockUser(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	userID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	log.Printf("admin action: UnblockUser user_id=%d", userID)

	u, err := h.service.UnblockUser(c.Request.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, u)
}

// GetUsers получает список всех пользователей с фильтрацией.
// @Summary		Получить список пользователей
// @Description	Возвращает постраничный список пользователей платформы с фильтрами по роли, блокировке и поиском по имени/email. Доступно только администраторам.
// @Tags		Admin - Управление пользователями
// @Security	BearerAuth
// @Param		page	query	int		false	"Номер страницы (по умолчанию 1)"	default(1)
// @Param		limit	query	int		false	"Количество записей на странице (по умолчанию 20)"	default(20)
// @Param		role	query	string	false	"Фильтр по роли (client, trainer, admin)"
// @Param		banned	query	boolean	false	"Фильтр по блокировке"
// @Param		q		query	string	false	"Поиск по имени или email"
// @Success		200	{object}	UserListResponse "Список пользователей с общим количеством и параметрами страницы"
// @Failure		400	{object}		map[string]interface{} "Ошибка валидации параметров запроса"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		500	{object}		map[string]interface{} "Ошибка сервера при получении списка пользователей"
// @Router		/admin/users [GET]
func (h *Handler) GetUsers(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), 20)

	var filter UserListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	log.Printf("admin action: GetUsers page=%d limit=%d", page, limit)

	users, total, err := h.service.ListUsers(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, UserListResponse{
		Users: users,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// -------------------- Statistics --------------------

// GetStats получает основную статистику платформы.
// @Summary		Получить статистику платформы
// @Description	Возвращает ключевые показатели: пользователи, тренеры, брони, тренировки, заявки на модерацию, доход. Доступно только администраторам.
// @Tags		Admin - Статистика
// @Security	BearerAuth
// @Success		200	{object}	StatisticsResponse "Объект со статистикой платформы"
// @Failure		403	{object}		map[string]interface{} "Доступ запрещён (требуются права администратора)"
// @Failure		500	{object}		map[string]interface{} "Ошибка сервера при получении статистики"
// @Router		/admin/stats [GET]
func (h *Handler) GetStats(c *gin.Context) {
	if !isAdmin(c) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// -------------------- helpers --------------------

func isAdmin(c *gin.Context) bool {
	role, ok := c.Get("role")
	if !ok {
		return false
	}
	rs, ok := role.(string)
	return ok && rs == "admin"
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
