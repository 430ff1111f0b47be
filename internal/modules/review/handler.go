package review

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/trainers/:id/reviews", h.GetByTrainer)
	}

	if protected != nil {
		protected.POST("/reviews", h.Create)
		protected.POST("/reviews/:id/response", h.Respond)
	}
}

// Create создаёт новый отзыв о тренере.
// @Summary		Написать отзыв
// @Description	Клиент может оценить тренера только после завершённой брони, и только один раз.
// @Tags		Отзывы
// @Security	BearerAuth
// @Param		request	body	CreateReviewRequest	true	"Данные отзыва (trainer_id, rating, comment)"
// @Success		201	{object}		map[string]interface{} "Отзыв успешно сохранён"
// @Failure		400	{object}		map[string]interface{} "Ошибка валидации данных"
// @Failure		403	{object}		map[string]interface{} "Запрещено: нет завершённой брони у этого тренера"
// @Failure		409	{object}		map[string]interface{} "Ошибка: отзыв уже существует"
// @Router		/reviews [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_REQUEST", "message": "Invalid request body"}})
		return
	}

	userID := c.GetInt64("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"}})
		return
	}

	rv, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		switch err {
		case ErrInvalidRequest:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_REQUEST", "message": "Invalid input"}})
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "Trainer not found"}})
		case ErrReviewNotAllowed:
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": gin.H{"code": "FORBIDDEN", "message": "You can review only after completed booking"}})
		case ErrConflict:
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": gin.H{"code": "CONFLICT", "message": "Only one review per trainer"}})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": gin.H{"code": "INTERNAL", "message": "Internal error"}})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": rv})
}

// GetByTrainer получает список отзывов о тренере.
// @Summary		Получить отзывы тренера
// @Description	Постраничный список отзывов, новые сверху. Скрытые администратором отзывы не отдаются.
// @Tags		Отзывы
// @Param		id		path	int	true	"ID тренера"
// @Param		limit	query	int	false	"Максимум отзывов на страницу (дефолт: 10)"
// @Param		offset	query	int	false	"Офсет с какой записи начинать"
// @Success		200	{object}		map[string]interface{} "Список отзывов"
// @Failure		400	{object}		map[string]interface{} "Ошибка: неверный ID тренера"
// @Router		/trainers/:id/reviews [GET]
func (h *Handler) GetByTrainer(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || trainerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_ID", "message": "Invalid trainer ID"}})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, total, err := h.svc.GetByTrainer(c.Request.Context(), trainerID, limit, offset)
	if err != nil {
		if err == ErrInvalidRequest {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_REQUEST", "message": "Invalid input"}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": gin.H{"code": "INTERNAL", "message": "Internal error"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"reviews": items, "total": total}})
}

// Respond добавляет ответ тренера на отзыв.
// @Summary		Ответить на отзыв
// @Description	Тренер может ответить на отзыв о себе. Ответ показывается рядом с отзывом.
// @Tags		Отзывы
// @Security	BearerAuth
// @Param		id		path	int						true	"ID отзыва"
// @Param		request	body	TrainerResponseRequest	true	"Текст ответа"
// @Success		200	{object}		map[string]interface{} "Ответ успешно добавлен"
// @Failure		403	{object}		map[string]interface{} "Запрещено: отзыв не о вас"
// @Failure		404	{object}		map[string]interface{} "Отзыв не найден"
// @Router		/reviews/:id/response [POST]
func (h *Handler) Respond(c *gin.Context) {
	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_ID", "message": "Invalid review ID"}})
		return
	}

	var req TrainerResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_REQUEST", "message": "Invalid request body"}})
		return
	}

	userID := c.GetInt64("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"}})
		return
	}

	rv, err := h.svc.Respond(c.Request.Context(), reviewID, userID, req.Response)
	if err != nil {
		switch err {
		case ErrInvalidRequest:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "INVALID_REQUEST", "message": "Invalid input"}})
		case ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": gin.H{"code": "FORBIDDEN", "message": "This review is not about you"}})
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "Review not found"}})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": gin.H{"code": "INTERNAL", "message": "Internal error"}})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rv})
}
