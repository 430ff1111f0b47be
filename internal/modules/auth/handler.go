package auth

import (
	"errors"
	"net/http"
	"strings"

	"fitmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

// CookieConfig управляет выдачей refresh-cookie для web-клиентов.
type CookieConfig struct {
	Secure   bool
	SameSite string
	Path     string
	MaxAge   int
}

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service       *Service
	bookingReader BookingStatsReader
	cookies       CookieConfig
}

// NewHandler creates a new auth handler with injected service
func NewHandler(service *Service, bookingReader BookingStatsReader, cookies CookieConfig) *Handler {
	return &Handler{
		service:       service,
		bookingReader: bookingReader,
		cookies:       cookies,
	}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register/client", h.RegisterClient)
		authGroup.POST("/register/trainer", h.RegisterTrainer)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/verify/request", h.VerifyRequest)
		authGroup.POST("/verify/confirm", h.VerifyConfirm)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	userGroup := protected.Group("/users")
	{
		userGroup.GET("/me", h.GetMe)
		userGroup.PUT("/me", h.UpdateProfile)
	}
}

// RegisterClient регистрирует нового клиента на платформе.
// @Summary		Зарегистрировать клиента
// @Description	Создаёт аккаунт клиента. После регистрации на email уходит 6-значный код подтверждения; до подтверждения логин невозможен.
// @Tags		Аутентификация
// @Param		request	body	RegisterClientRequest	true	"Данные для регистрации (email, password, name, phone)"
// @Success		201	{object}	map[string]interface{}	"Клиент зарегистрирован, требуется подтверждение email"
// @Failure		400	{object}	map[string]interface{}	"Ошибка валидации"
// @Failure		409	{object}	map[string]interface{}	"Email уже зарегистрирован"
// @Router		/auth/register/client [POST]
func (h *Handler) RegisterClient(c *gin.Context) {
	var req RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.RegisterClient(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register client")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
			"phone": user.Phone,
		},
		"verification": "code_sent",
	})
}

// RegisterTrainer регистрирует тренера вместе с анкетой.
// @Summary		Зарегистрировать тренера
// @Description	Создаёт аккаунт тренера и анкету (город, специализации, опыт). Анкета уходит на модерацию: trainer_status=pending до одобрения администратором.
// @Tags		Аутентификация
// @Param		request	body	RegisterTrainerRequest	true	"Данные тренера"
// @Success		201	{object}	map[string]interface{}	"Тренер зарегистрирован, статус pending"
// @Failure		400	{object}	map[string]interface{}	"Ошибка валидации"
// @Failure		409	{object}	map[string]interface{}	"Email уже зарегистрирован"
// @Router		/auth/register/trainer [POST]
func (h *Handler) RegisterTrainer(c *gin.Context) {
	var req RegisterTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.RegisterTrainer(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register trainer")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":             user.ID,
			"email":          user.Email,
			"name":           user.Name,
			"role":           user.Role,
			"phone":          user.Phone,
			"trainer_status": user.TrainerStatus,
		},
		"verification": "code_sent",
	})
}

// Login авторизует пользователя и выдаёт пару токенов.
// @Summary		Войти в аккаунт
// @Description	Проверяет email/пароль. Возвращает JWT access-токен и opaque refresh-токен (также уходит в HttpOnly cookie для web). После 5 неудачных попыток аккаунт блокируется на 15 минут.
// @Tags		Аутентификация
// @Param		request	body	LoginRequest	true	"Учётные данные"
// @Success		200	{object}	map[string]interface{}	"Пара токенов + данные пользователя"
// @Failure		401	{object}	map[string]interface{}	"Неверный email или пароль"
// @Failure		403	{object}	map[string]interface{}	"Аккаунт заблокирован или email не подтверждён"
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
		case errors.Is(err, ErrAccountBanned):
			response.Error(c, http.StatusForbidden, "ACCOUNT_BANNED", "Account is banned")
		case errors.Is(err, ErrAccountLocked):
			response.Error(c, http.StatusForbidden, "ACCOUNT_LOCKED", "Too many failed attempts, try again later")
		case errors.Is(err, ErrEmailNotVerified):
			response.Error(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Confirm your email before logging in")
		default:
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		}
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":             result.User.ID,
			"email":          result.User.Email,
			"name":           result.User.Name,
			"role":           result.User.Role,
			"phone":          result.User.Phone,
			"trainer_status": result.User.TrainerStatus,
		},
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// Refresh ротирует refresh-токен и выдаёт новую пару.
// @Summary		Обновить токены
// @Description	Принимает refresh-токен из body или cookie. Старый токен гасится, выдаётся новый из той же семьи. Повторное предъявление использованного токена гасит всю семью.
// @Tags		Аутентификация
// @Success		200	{object}	map[string]interface{}	"Новая пара токенов"
// @Failure		401	{object}	map[string]interface{}	"Токен неизвестен, истёк или предъявлен повторно"
// @Router		/auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	raw := h.extractRefreshToken(c)
	if raw == "" {
		response.Error(c, http.StatusBadRequest, "REFRESH_TOKEN_MISSING", "Refresh token required")
		return
	}

	result, err := h.service.RefreshSession(c.Request.Context(), raw, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, ErrInvalidRefreshToken):
			response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
		case errors.Is(err, ErrRefreshTokenReused):
			response.Error(c, http.StatusUnauthorized, "REFRESH_REUSE_DETECTED", "Session revoked, log in again")
		case errors.Is(err, ErrAccountBanned):
			response.Error(c, http.StatusForbidden, "ACCOUNT_BANNED", "Account is banned")
		case errors.Is(err, ErrEmailNotVerified):
			response.Error(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Confirm your email first")
		default:
			response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		}
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)

	response.Success(c, http.StatusOK, gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// Logout отзывает refresh-токен. Идемпотентен.
func (h *Handler) Logout(c *gin.Context) {
	raw := h.extractRefreshToken(c)
	if raw != "" {
		if err := h.service.Logout(c.Request.Context(), raw); err != nil {
			response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
			return
		}
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"status": "logged_out"})
}

// VerifyRequest повторно отправляет код подтверждения email.
func (h *Handler) VerifyRequest(c *gin.Context) {
	var req VerifyRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.RequestEmailVerification(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrRateLimitExceeded) {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Wait before requesting another code")
			return
		}
		response.Error(c, http.StatusInternalServerError, "VERIFY_REQUEST_FAILED", "Failed to send verification code")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": result.Status})
}

// VerifyConfirm подтверждает email по коду.
func (h *Handler) VerifyConfirm(c *gin.Context) {
	var req VerifyConfirmDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ConfirmEmailVerification(c.Request.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrInvalidVerificationCodeFormat):
			response.Error(c, http.StatusBadRequest, "INVALID_CODE_FORMAT", "Verification code must be 6 digits")
		case errors.Is(err, ErrInvalidVerificationCode):
			response.Error(c, http.StatusBadRequest, "INVALID_CODE", "Verification code is wrong or expired")
		case errors.Is(err, ErrTooManyAttempts):
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Request a new verification code")
		default:
			response.Error(c, http.StatusInternalServerError, "VERIFY_CONFIRM_FAILED", "Failed to confirm email")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "verified"})
}

// GetMe получает профиль текущего авторизованного пользователя.
// @Summary		Получить профиль пользователя
// @Description	Возвращает профиль текущего пользователя. При include_stats=true добавляет статистику бронирований и последние брони.
// @Tags		Профиль
// @Security	BearerAuth
// @Param		include_stats	query	boolean	false	"Включить статистику бронирований"
// @Success		200	{object}	map[string]interface{}	"Профиль пользователя"
// @Failure		401	{object}	map[string]interface{}	"Требуется аутентификация"
// @Router		/users/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	userID := userIDAny.(int64)

	user, err := h.service.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	includeStats := c.Query("include_stats") == "true"

	profile := UserProfileResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Phone:         user.Phone,
		Role:          string(user.Role),
		AvatarURL:     user.AvatarURL,
		TrainerStatus: string(user.TrainerStatus),
		CreatedAt:     user.CreatedAt.Format("2006-01-02"),
	}

	if includeStats && h.bookingReader != nil {
		stats, err := h.bookingReader.GetStatsByUserID(c.Request.Context(), userID)
		if err == nil && stats != nil {
			profile.Stats = &UserStats{
				TotalBookings:     int(stats.Total),
				UpcomingBookings:  int(stats.Upcoming),
				CompletedBookings: int(stats.Completed),
				CancelledBookings: int(stats.Cancelled),
			}
		}

		recent, err := h.bookingReader.GetRecentByUserID(c.Request.Context(), userID, 3)
		if err == nil {
			profile.RecentBookings = make([]RecentBooking, 0, len(recent))
			for _, r := range recent {
				profile.RecentBookings = append(profile.RecentBookings, RecentBooking{
					ID:          r.ID,
					TrainerName: r.TrainerName,
					Date:        r.StartTime.Format("02.01.2006"),
					Status:      r.Status,
				})
			}
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": profile,
	})
}

// UpdateProfile обновляет имя/телефон текущего пользователя.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID.(int64), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update profile")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"phone": user.Phone,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) extractRefreshToken(c *gin.Context) string {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && strings.TrimSpace(req.RefreshToken) != "" {
		return strings.TrimSpace(req.RefreshToken)
	}
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(refreshCookieName, token, h.cookies.MaxAge, h.cookies.Path, "", h.cookies.Secure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(refreshCookieName, "", -1, h.cookies.Path, "", h.cookies.Secure, true)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
