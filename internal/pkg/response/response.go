package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the payload as-is with status 200.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes the API error shape: a status code and a human-readable
// detail message.
func Error(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}
