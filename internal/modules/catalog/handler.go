package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"fitmarket/internal/middleware"
	"fitmarket/internal/pkg/response"
	"fitmarket/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	service  *Service
	userRepo *repository.UserRepository
}

func NewHandler(service *Service, userRepo *repository.UserRepository) *Handler {
	return &Handler{
		service:  service,
		userRepo: userRepo,
	}
}

/* ---------- PUBLIC HANDLERS ---------- */

// GetTrainers godoc
// @Summary      Каталог тренеров
// @Description  Список верифицированных тренеров с фильтрами и пагинацией
// @Tags         catalog
// @Produce      json
// @Param        city            query  string  false  "Город"
// @Param        specialization  query  string  false  "Специализация"
// @Param        min_price       query  number  false  "Мин. цена за час"
// @Param        max_price       query  number  false  "Макс. цена за час"
// @Param        min_rating      query  number  false  "Мин. рейтинг"
// @Param        q               query  string  false  "Поиск по имени и описанию"
// @Param        page            query  int     false  "Страница"
// @Param        limit           query  int     false  "Размер страницы (max 100)"
// @Success      200  {object}  map[string]interface{}
// @Router       /trainers [get]
func (h *Handler) GetTrainers(c *gin.Context) {
	var f repository.TrainerFilters

	f.City = c.Query("city")
	f.Specialization = c.Query("specialization")
	f.Query = c.Query("q")

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			f.MinPrice = val
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			f.MaxPrice = val
		}
	}

	if minRating := c.Query("min_rating"); minRating != "" {
		if val, err := strconv.ParseFloat(minRating, 64); err == nil {
			f.MinRating = val
		}
	}

	// Pagination
	f.Limit = 20 // default
	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 && val <= 100 {
			f.Limit = val
		}
	}

	f.Offset = 0
	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			f.Offset = (val - 1) * f.Limit
		}
	}

	trainers, total, err := h.service.SearchTrainers(c.Request.Context(), f)
	if err != nil {
		handleError(c, err)
		return
	}

	totalPages := (int(total) + f.Limit - 1) / f.Limit
	currentPage := (f.Offset / f.Limit) + 1

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"trainers": trainers,
			"pagination": gin.H{
				"page":        currentPage,
				"limit":       f.Limit,
				"total":       total,
				"total_pages": totalPages,
			},
		},
	})
}

// GetTrainerByID handles GET /api/v1/trainers/:id
func (h *Handler) GetTrainerByID(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid trainer ID",
			},
		})
		return
	}

	trainer, err := h.service.GetTrainer(c.Request.Context(), trainerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Trainer not found",
				},
			})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"trainer": trainer,
		},
	})
}

// GetTrainerServices handles GET /api/v1/trainers/:id/services
func (h *Handler) GetTrainerServices(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid trainer ID")
		return
	}

	services, err := h.service.serviceRepo.ListByTrainer(c.Request.Context(), trainerID, true)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"services": services,
		},
	})
}

// GetSpecializations handles GET /api/v1/specializations
func (h *Handler) GetSpecializations(c *gin.Context) {
	specs, err := h.service.Specializations(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"specializations": specs,
		},
	})
}

/* ---------- TRAINER SELF-SERVICE ---------- */

// UpdateMyProfile handles PUT /api/v1/trainers/me
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req UpdateTrainerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	profile, err := h.service.UpdateMyProfile(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Trainer profile not found")
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"trainer": profile,
		},
		"message": "Profile updated successfully",
	})
}

// CreateService godoc
// @Summary      Добавить услугу
// @Description  Создаёт позицию прайса. Только для верифицированных тренеров.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        input  body  CreateServiceRequest  true  "Услуга"
// @Success      201  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /trainers/me/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	// Сервису нужен пользователь целиком: он проверяет роль и статус
	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), user, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotVerified):
			response.Error(c, http.StatusForbidden, "NOT_VERIFIED", "Only verified trainers can manage services")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only trainers can manage services")
		case errors.Is(err, ErrServiceNameTaken):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SERVICE_NAME_TAKEN",
					"message": "You already have an active service with this name",
				},
			})
		default:
			handleError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"service": svc,
		},
		"message": "Service created successfully",
	})
}

// UpdateService handles PUT /api/v1/trainers/me/services/:id
func (h *Handler) UpdateService(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}

	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	svc, err := h.service.UpdateService(c.Request.Context(), userID, serviceID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNameTaken):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SERVICE_NAME_TAKEN",
					"message": "You already have an active service with this name",
				},
			})
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this service")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		default:
			handleError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"service": svc,
		},
		"message": "Service updated successfully",
	})
}

// DeleteService handles DELETE /api/v1/trainers/me/services/:id.
// Деактивация, не удаление: история сессий хранит service_id.
func (h *Handler) DeleteService(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}

	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	if err := h.service.DeactivateService(c.Request.Context(), userID, serviceID); err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this service")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		default:
			handleError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service deactivated",
	})
}

/* ---------- ROUTE REGISTRATION ---------- */

// RegisterRoutes registers public catalog routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	trainers := r.Group("/trainers")
	{
		trainers.GET("", h.GetTrainers)                  // GET /api/v1/trainers?city=...&specialization=...
		trainers.GET("/:id", h.GetTrainerByID)           // GET /api/v1/trainers/:id
		trainers.GET("/:id/services", h.GetTrainerServices) // GET /api/v1/trainers/:id/services
	}

	r.GET("/specializations", h.GetSpecializations)
}

// RegisterProtectedRoutes registers trainer self-service routes.
// Группа уже закрыта JWTAuth в main.go.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup, ownership *middleware.OwnershipChecker) {
	me := r.Group("/trainers/me", middleware.TrainerOnly())
	{
		me.PUT("", h.UpdateMyProfile)
		me.POST("/services", h.CreateService)
		me.PUT("/services/:id", ownership.CheckServiceOwnership(), h.UpdateService)
		me.DELETE("/services/:id", ownership.CheckServiceOwnership(), h.DeleteService)
	}
}

/* ---------- ERROR HANDLING ---------- */

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Resource not found",
			},
		})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You don't have permission to perform this action",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "An internal error occurred",
			},
		})
	}
}
