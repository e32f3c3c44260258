package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/logger"
)

const (
	HeaderGuestID = "X-Guest-ID"
	CtxGuestID    = "guest_id"
)

// TrialConsumer is satisfied by cache.TrialLimiter.
type TrialConsumer interface {
	Consume(ctx context.Context, guestID string) (bool, error)
}

// GuestID identifies an anonymous caller by the X-Guest-ID header, falling
// back to the client IP.
func GuestID(c *gin.Context) string {
	if id := c.GetString(CtxGuestID); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader(HeaderGuestID)); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}

// GuestTrial lets a guest through once. Signed-in users are not limited.
// A limiter failure lets the request through.
func GuestTrial(limiter TrialConsumer, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		if _, ok := UserID(c); ok {
			c.Next()
			return
		}
		guestID := GuestID(c)
		c.Set(CtxGuestID, guestID)

		ok, err := limiter.Consume(c.Request.Context(), guestID)
		if err != nil {
			log.Warn("guest trial check failed", "guest_id", guestID, "error", err)
			c.Next()
			return
		}
		if !ok {
			err := apperr.GuestTrialError("middleware.guest_trial")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": apperr.Message(err, c.GetHeader("Accept-Language")),
				"code":  apperr.Auth,
			})
			return
		}
		c.Next()
	}
}
