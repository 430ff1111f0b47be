package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"fitmarket/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler обрабатывает HTTP запросы для избранного
type Handler struct {
	repo     repository.FavoriteRepository
	trainers *repository.TrainerRepository
}

// NewHandler создаёт новый handler
func NewHandler(repo repository.FavoriteRepository, trainers *repository.TrainerRepository) *Handler {
	return &Handler{repo: repo, trainers: trainers}
}

// RegisterRoutes регистрирует routes для избранного
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	favorites := rg.Group("/favorites")
	{
		favorites.GET("", h.GetFavorites)
		favorites.POST("/:trainerId", h.AddFavorite)
		favorites.DELETE("/:trainerId", h.RemoveFavorite)
		favorites.GET("/:trainerId/status", h.CheckFavorite)
	}
}

// GetFavorites возвращает список избранных тренеров текущего пользователя
//
// @Summary Получить список избранных тренеров
// @Description Получает список тренеров, добавленных в избранное текущего пользователя, с поддержкой пагинации
// @Tags Favorite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Номер страницы" default(1)
// @Param per_page query int false "Элементов на страницу" default(20)
// @Success 200 {object} FavoriteListResponse "Список избранных тренеров"
// @Failure 401 {object} ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} ErrorResponse "Ошибка при получении списка избранного"
// @Router /favorites [get]
func (h *Handler) GetFavorites(c *gin.Context) {
	// Получаем user_id из JWT (установлен middleware)
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Парсим pagination параметры
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	// Получаем избранное из репозитория
	favorites, total, err := h.repo.GetByUserID(userID.(int64), perPage, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get favorites"})
		return
	}

	// Подвешиваем карточки тренеров одним батчем
	ids := make([]int64, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.TrainerID)
	}
	if len(ids) > 0 {
		if profiles, err := h.trainers.GetByUserIDs(c.Request.Context(), ids); err == nil {
			for i := range favorites {
				favorites[i].Trainer = profiles[favorites[i].TrainerID]
			}
		}
	}

	// Конвертируем в DTO и отправляем
	response := ToFavoriteListResponse(favorites, total, page, perPage)
	c.JSON(http.StatusOK, response)
}

// AddFavorite добавляет тренера в избранное текущего пользователя
//
// @Summary Добавить тренера в избранное
// @Description Добавляет тренера в список избранного. Возвращает ошибку, если тренер уже в избранном или не существует
// @Tags Favorite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainerId path int64 true "ID тренера"
// @Success 201 {object} FavoriteResponse "Тренер успешно добавлен в избранное"
// @Failure 400 {object} ErrorResponse "Некорректный ID тренера"
// @Failure 401 {object} ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} ErrorResponse "Тренер не найден"
// @Failure 409 {object} ErrorResponse "Тренер уже находится в избранном"
// @Failure 500 {object} ErrorResponse "Ошибка при добавлении в избранное"
// @Router /favorites/{trainerId} [post]
func (h *Handler) AddFavorite(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Парсим trainerId из URL
	trainerIDStr := c.Param("trainerId")
	trainerID, err := strconv.ParseInt(trainerIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	// Сначала убеждаемся, что такой тренер есть
	profile, err := h.trainers.GetByUserID(c.Request.Context(), trainerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trainer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}

	// Добавляем в избранное
	favorite, err := h.repo.Add(userID.(int64), trainerID)
	if err != nil {
		if err.Error() == "trainer already in favorites" {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}

	favorite.Trainer = profile
	response := ToFavoriteResponse(favorite)
	c.JSON(http.StatusCreated, response)
}

// RemoveFavorite удаляет тренера из избранного текущего пользователя
//
// @Summary Удалить тренера из избранного
// @Description Удаляет тренера из списка избранного. Возвращает ошибку, если тренера не было в избранном
// @Tags Favorite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainerId path int64 true "ID тренера"
// @Success 204 "Тренер успешно удалён из избранного"
// @Failure 400 {object} ErrorResponse "Некорректный ID тренера"
// @Failure 401 {object} ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} ErrorResponse "Тренер отсутствует в избранном"
// @Failure 500 {object} ErrorResponse "Ошибка при удалении из избранного"
// @Router /favorites/{trainerId} [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	trainerIDStr := c.Param("trainerId")
	trainerID, err := strconv.ParseInt(trainerIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	err = h.repo.Remove(userID.(int64), trainerID)
	if err != nil {
		if err.Error() == "favorite not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove favorite"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckFavorite проверяет, находится ли тренер в избранном пользователя
//
// @Summary Проверить находится ли тренер в избранном
// @Description Проверяет наличие тренера в списке избранного текущего пользователя
// @Tags Favorite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainerId path int64 true "ID тренера"
// @Success 200 {object} CheckFavoriteResponse "Результат проверки наличия тренера в избранном"
// @Failure 400 {object} ErrorResponse "Некорректный ID тренера"
// @Failure 401 {object} ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} ErrorResponse "Ошибка при проверке избранного"
// @Router /favorites/{trainerId}/status [get]
func (h *Handler) CheckFavorite(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	trainerIDStr := c.Param("trainerId")
	trainerID, err := strconv.ParseInt(trainerIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	isFavorite, err := h.repo.Exists(userID.(int64), trainerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check favorite"})
		return
	}

	c.JSON(http.StatusOK, CheckFavoriteResponse{IsFavorite: isFavorite})
}

// ErrorResponse для документации swagger
type ErrorResponse struct {
	Error string `json:"error"`
}
