package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/middleware"
	"github.com/vnkhanh/koru-backend/repository"
)

var pinLimitMessages = map[string]string{
	"en": "You can only pin up to 5 items.",
	"id": "Maksimal 5 item yang bisa disematkan",
}

func lang(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}

// respondError writes {error, code} with a localized message. Repository
// sentinels get their own statuses; everything else goes through apperr.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": apperr.Validation})
		return
	case errors.Is(err, repository.ErrPinLimit):
		msg, ok := pinLimitMessages[primaryLang(lang(c))]
		if !ok {
			msg = pinLimitMessages["en"]
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg, "code": apperr.Validation})
		return
	}
	kind := apperr.Categorize(err)
	c.JSON(apperr.StatusFor(err), gin.H{
		"error": apperr.Message(err, lang(c)),
		"code":  kind,
	})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": apperr.MessageFor(apperr.Validation, lang(c)),
		"code":  apperr.Validation,
	})
}

func primaryLang(s string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "id") {
		return "id"
	}
	return "en"
}

// paramID parses the :id route parameter, answering 400 when it is not a uuid.
func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the signed-in user. Routes using it sit behind
// AuthMiddleware, so a missing user is answered with 401.
func currentUser(c *gin.Context) (string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": apperr.MessageFor(apperr.Auth, lang(c)),
			"code":  apperr.Auth,
		})
	}
	return id, ok
}
