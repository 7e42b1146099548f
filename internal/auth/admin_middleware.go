package auth

import (
	"net/http"

	"quizduel/backend/internal/database"
	"quizduel/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware gates the question bank and category curation routes.
// Chain it after AuthMiddleware; the role is re-read from the database on
// every request, so a demotion takes effect immediately rather than at
// token expiry.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var user models.User
		if err := database.DB.Select("role").First(&user, userID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
			return
		}

		if user.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
