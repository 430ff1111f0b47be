package booking

import (
	"errors"
	"net/http"
	"strconv"

	"fitmarket/internal/middleware"
	"fitmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes — занятость тренера видна без авторизации.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/trainers/:id/sessions", h.GetTrainerSessions)
}

// RegisterProtectedRoutes — всё остальное за JWTAuth.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole("client"), h.CreateBooking)
		bookings.GET("/my", h.GetMyBookings)
		bookings.GET("/trainer", middleware.TrainerOnly(), h.GetTrainerBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.PATCH("/:id/payment-status", h.UpdatePaymentStatus)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}

	rg.PATCH("/sessions/:id/status", h.UpdateSessionStatus)
}

// CreateBooking godoc
// @Summary      Создать бронирование
// @Description  Заявка с несколькими сессиями. Стоимость считается сервером по прайсу тренера.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        input  body  CreateBookingRequest  true  "Заявка"
// @Success      201  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	clientID := c.GetInt64("user_id")
	b, err := h.service.CreateBooking(c.Request.Context(), clientID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
		case errors.Is(err, ErrTrainerNotFound):
			response.Error(c, http.StatusNotFound, "TRAINER_NOT_FOUND", "Trainer not found")
		case errors.Is(err, ErrNoActiveServices):
			response.Error(c, http.StatusBadRequest, "NO_ACTIVE_SERVICES", "Trainer has no active services to book")
		case errors.Is(err, ErrTimeConflict):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TIME_CONFLICT",
					"message": "Trainer is not available at the selected time",
				},
			})
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"booking": b,
		},
	})
}

// GetMyBookings handles GET /api/v1/bookings/my
func (h *Handler) GetMyBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, offset := parsePagination(c)

	rows, total, err := h.service.GetMyBookings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"bookings": rows,
			"pagination": gin.H{
				"page":        offset/limit + 1,
				"limit":       limit,
				"total":       total,
				"total_pages": (int(total) + limit - 1) / limit,
			},
		},
	})
}

// GetTrainerBookings handles GET /api/v1/bookings/trainer?status=
func (h *Handler) GetTrainerBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, offset := parsePagination(c)
	status := c.Query("status")

	rows, total, err := h.service.GetTrainerBookings(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown booking status")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"bookings": rows,
			"pagination": gin.H{
				"page":        offset/limit + 1,
				"limit":       limit,
				"total":       total,
				"total_pages": (int(total) + limit - 1) / limit,
			},
		},
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), bookingID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking": b,
	})
}

// UpdateStatus godoc
// @Summary      Сменить статус брони
// @Description  Принимается любой валидный статус, таблицы переходов нет. Каждая смена дописывается в историю.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id     path  int                  true  "ID брони"
// @Param        input  body  UpdateStatusRequest  true  "Новый статус"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /bookings/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), bookingID, req.Status)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking": b,
	})
}

// UpdatePaymentStatus handles PATCH /api/v1/bookings/:id/payment-status
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "payment_status is required")
		return
	}

	b, err := h.service.UpdatePaymentStatus(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), bookingID, req.PaymentStatus)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking": b,
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "REASON_REQUIRED", "Cancellation reason is required")
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), bookingID, req.Reason)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking": b,
	})
}

// GetTrainerSessions handles GET /api/v1/trainers/:id/sessions?date=YYYY-MM-DD
func (h *Handler) GetTrainerSessions(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid trainer ID")
		return
	}

	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "DATE_REQUIRED", "Query param date=YYYY-MM-DD is required")
		return
	}

	slots, err := h.service.GetTrainerSessions(c.Request.Context(), trainerID, date)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "INVALID_DATE", "Date must be YYYY-MM-DD")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"date":     date,
			"sessions": slots,
		},
	})
}

// UpdateSessionStatus handles PATCH /api/v1/sessions/:id/status
func (h *Handler) UpdateSessionStatus(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	var req UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}

	sess, err := h.service.UpdateSessionStatus(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), sessionID, req.Status)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": sess,
	})
}

/* ---------- helpers ---------- */

func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't have access to this booking")
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown status value")
	case errors.Is(err, ErrReasonRequired):
		response.Error(c, http.StatusBadRequest, "REASON_REQUIRED", "Cancellation reason is required")
	case errors.Is(err, ErrAlreadyFinished):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ALREADY_FINISHED",
				"message": "Booking is already cancelled or completed",
			},
		})
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
