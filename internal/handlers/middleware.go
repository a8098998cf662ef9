package handlers

import (
	"net/http"
	"strings"

	"linksnap/internal/models"
	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

const contextUserKey = "user_id"

// AuthRequired resolves the caller from the access-token cookie, a bearer
// token, or an X-API-Key header, in that order.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(accessCookie); err == nil && token != "" {
			if userID, ok := h.userFromToken(token, tokenTypeAccess); ok {
				c.Set(contextUserKey, userID)
				c.Next()
				return
			}
		}

		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if userID, ok := h.userFromToken(strings.TrimPrefix(auth, "Bearer "), tokenTypeAccess); ok {
				c.Set(contextUserKey, userID)
				c.Next()
				return
			}
		}

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			var user models.User
			if err := h.db.Where("api_key = ?", apiKey).First(&user).Error; err == nil {
				c.Set(contextUserKey, user.ID)
				c.Next()
				return
			}
		}

		respond(c, http.StatusUnauthorized, nil, "unauthorized")
		c.Abort()
	}
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"data":    nil,
				"message": "rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(contextUserKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
