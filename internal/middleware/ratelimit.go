package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/service"
)

// RateLimitHeaders reports the caller's remaining reservation budget on every
// response. The enforcement itself lives in the reservation engine, ahead of
// any lock acquisition; this middleware only surfaces the window state so
// clients can back off before hitting the limit.
func RateLimitHeaders(limiter *service.RateLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claimsValue, exists := c.Get(ContextUserKey); exists {
			if claims, ok := claimsValue.(*models.JWTClaims); ok {
				remaining, err := limiter.RemainingRequests(c.Request.Context(), claims.UserID, service.ActionReserve)
				if err == nil {
					c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
					c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
				}
			}
		}
		c.Next()
	}
}
