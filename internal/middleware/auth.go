package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"fitmarket/internal/pkg/jwt"
	"fitmarket/internal/pkg/response"
	"fitmarket/internal/repository"

	"github.com/gin-gonic/gin"
)

// JWTAuth validates the Bearer token and puts user_id/role into the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Expected: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// OwnershipChecker provides middleware to verify resource ownership
type OwnershipChecker struct {
	serviceRepo *repository.ServiceRepository
}

// NewOwnershipChecker creates a new ownership checker
func NewOwnershipChecker(serviceRepo *repository.ServiceRepository) *OwnershipChecker {
	return &OwnershipChecker{serviceRepo: serviceRepo}
}

// CheckServiceOwnership verifies the authenticated trainer owns the service
// Expects service ID in URL param "id"
func (oc *OwnershipChecker) CheckServiceOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"},
			})
			return
		}

		serviceIDStr := c.Param("id")
		serviceID, err := strconv.ParseInt(serviceIDStr, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_ID", "message": "Invalid service ID"},
			})
			return
		}

		svc, err := oc.serviceRepo.GetByID(c.Request.Context(), serviceID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   gin.H{"code": "NOT_FOUND", "message": "Service not found"},
			})
			return
		}

		if svc.TrainerID != userID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "You don't own this service"},
			})
			return
		}

		c.Next()
	}
}
