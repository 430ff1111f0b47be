// Package response собирает единый JSON-конверт API:
// успех — {"success": true, "data": ...},
// ошибка — {"success": false, "error": {"code", "message"}}.
package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error отдаёт стабильный машинный code (контракт для фронта)
// и человекочитаемое message.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
